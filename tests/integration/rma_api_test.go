package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appfulfillment "github.com/rms/backend/internal/application/fulfillment"
	appidentity "github.com/rms/backend/internal/application/identity"
	apprma "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/infrastructure/auth"
	"github.com/rms/backend/internal/infrastructure/config"
	"github.com/rms/backend/internal/infrastructure/merp"
	"github.com/rms/backend/internal/infrastructure/persistence"
	"github.com/rms/backend/internal/infrastructure/storage"
	"github.com/rms/backend/internal/interfaces/http/handler"
	"github.com/rms/backend/internal/interfaces/http/middleware"
	"github.com/rms/backend/internal/interfaces/http/router"
	"github.com/rms/backend/tests/testutil"
)

const apiTestSecret = "integration-portal-secret"

// APITestServer serves the full RMS router over a PostgreSQL database
type APITestServer struct {
	DB     *TestDB
	Engine *gin.Engine
}

func NewAPITestServer(t *testing.T) *APITestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	tdb := NewTestDB(t)
	db := tdb.DB
	rmaRepo := persistence.NewGormRMARepository(db)
	scope := persistence.NewGormTransactionScope(db)

	adapter, err := merp.NewAdapter(config.MERPConfig{Mode: "stub"}, persistence.NewGormIntegrationLogRepository(db), zap.NewNop())
	require.NoError(t, err)

	lifecycle := apprma.NewLifecycleService(rmaRepo, scope.RMA(),
		apprma.WithFulfillmentDispatcher(appfulfillment.NewDispatcher(adapter, scope.Audit(), nil, zap.NewNop())))
	queries := apprma.NewQueryService(rmaRepo, persistence.NewGormAuditRepository(db))
	collaboration := apprma.NewCollaborationService(lifecycle, rmaRepo, persistence.NewGormAttachmentRepository(db),
		storage.NewStubAttachmentStorage("http://files.test"), 5*time.Minute, zap.NewNop())
	users := appidentity.NewUserService(persistence.NewGormUserRepository(db), scope.Identity(), zap.NewNop())

	engine := gin.New()
	engine.Use(middleware.RequestID())

	handlers := router.Handlers{
		RMA:           handler.NewRMAHandler(lifecycle, queries),
		Line:          handler.NewLineHandler(lifecycle),
		Approval:      handler.NewApprovalHandler(lifecycle, queries),
		Finance:       handler.NewFinanceHandler(queries),
		Collaboration: handler.NewCollaborationHandler(collaboration),
		User:          handler.NewUserHandler(users),
		System:        handler.NewSystemHandler("rms-test", "test", nil),
	}
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range router.RMSGroups(handlers,
		middleware.PortalAuth(auth.NewPortalTokenVerifier(config.JWTConfig{PortalSecret: apiTestSecret}), zap.NewNop()),
		middleware.ResolveActor(users),
	) {
		r.Register(group)
	}
	r.Setup()

	return &APITestServer{DB: tdb, Engine: engine}
}

func (s *APITestServer) token(t *testing.T, portalUserID string) string {
	t.Helper()
	token, err := auth.SignPortalToken(apiTestSecret, auth.PortalClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   portalUserID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *APITestServer) do(t *testing.T, portalUserID, method, path string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if portalUserID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, portalUserID))
	}

	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w.Code, resp
}

type rmaBody struct {
	ID                 uuid.UUID `json:"id"`
	RMANumber          string    `json:"rma_number"`
	Status             string    `json:"status"`
	AllowedTransitions []string  `json:"allowed_transitions"`
	Lines              []struct {
		ID          uuid.UUID `json:"id"`
		ReceivedQty int       `json:"received_qty"`
	} `json:"lines"`
}

func decodeRMA(t *testing.T, resp apiResponse) rmaBody {
	t.Helper()
	var body rmaBody
	require.NoError(t, json.Unmarshal(resp.Data, &body))
	return body
}

func TestRMAAPI_Flow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := NewAPITestServer(t)
	branch := testutil.TestBranchID()
	s.DB.CreateTestUser("agent-1", "RETURNS_AGENT", branch)
	s.DB.CreateTestUser("manager-1", "BRANCH_MANAGER", branch)
	s.DB.CreateTestUser("warehouse-1", "WAREHOUSE", branch)
	s.DB.CreateTestUser("customer-1", "CUSTOMER", branch)

	code, resp := s.do(t, "agent-1", http.MethodPost, "/rmas", map[string]any{
		"branch_id": branch.String(),
		"lines": []map[string]any{
			{"part_number": "PN-500", "ordered_qty": 2, "reason_code": "DEFECTIVE", "disposition": "REPLACEMENT"},
		},
	})
	require.Equal(t, http.StatusCreated, code, resp)
	created := decodeRMA(t, resp)
	assert.Equal(t, "DRAFT", created.Status)
	assert.Equal(t, []string{"SUBMITTED", "CANCELLED"}, created.AllowedTransitions)
	id := created.ID

	code, resp = s.do(t, "customer-1", http.MethodPost, fmt.Sprintf("/rmas/%s/submit", id), nil)
	require.Equal(t, http.StatusOK, code, resp)

	t.Run("warehouse cannot approve", func(t *testing.T) {
		code, resp := s.do(t, "warehouse-1", http.MethodPost, fmt.Sprintf("/approvals/%s/approve", id), nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.False(t, resp.Success)
	})

	t.Run("approval queue lists the submission", func(t *testing.T) {
		code, resp := s.do(t, "manager-1", http.MethodGet, "/approvals/queue", nil)
		require.Equal(t, http.StatusOK, code)
		var items []rmaBody
		require.NoError(t, json.Unmarshal(resp.Data, &items))
		require.Len(t, items, 1)
		assert.Equal(t, id, items[0].ID)
	})

	code, resp = s.do(t, "manager-1", http.MethodPost, fmt.Sprintf("/approvals/%s/approve", id), nil)
	require.Equal(t, http.StatusOK, code, resp)

	t.Run("illegal transition reports allowed targets", func(t *testing.T) {
		code, resp := s.do(t, "agent-1", http.MethodPost, fmt.Sprintf("/rmas/%s/close", id), nil)
		assert.Equal(t, http.StatusBadRequest, code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_INVALID_TRANSITION", resp.Error.Code)
		assert.ElementsMatch(t, []any{"RECEIVED", "CANCELLED"}, resp.Error.Details["allowedTransitions"])
	})

	lineID := created.Lines[0].ID
	code, resp = s.do(t, "warehouse-1", http.MethodPost, fmt.Sprintf("/rmas/%s/lines/%s/receive", id, lineID),
		map[string]any{"received_qty": 3})
	require.Equal(t, http.StatusOK, code, resp)
	received := decodeRMA(t, resp)
	assert.Equal(t, "RECEIVED", received.Status)
	assert.Equal(t, 3, received.Lines[0].ReceivedQty)

	code, resp = s.do(t, "agent-1", http.MethodGet, fmt.Sprintf("/rmas/%s/audit", id), nil)
	require.Equal(t, http.StatusOK, code)
	var trail []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &trail))
	assert.Len(t, trail, 4)
}

func TestRMAAPI_Authentication(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := NewAPITestServer(t)
	branch := testutil.TestBranchID()
	s.DB.CreateTestUser("agent-1", "RETURNS_AGENT", branch)
	s.DB.CreateTestUser("outsider-1", "RETURNS_AGENT", testutil.OtherBranchID())

	t.Run("missing token", func(t *testing.T) {
		code, resp := s.do(t, "", http.MethodGet, "/rmas", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.False(t, resp.Success)
	})

	t.Run("unprovisioned user", func(t *testing.T) {
		code, resp := s.do(t, "stranger", http.MethodGet, "/rmas", nil)
		assert.Equal(t, http.StatusForbidden, code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "ERR_NOT_PROVISIONED", resp.Error.Code)
	})

	t.Run("foreign branch reads as not found", func(t *testing.T) {
		code, resp := s.do(t, "agent-1", http.MethodPost, "/rmas", map[string]any{
			"branch_id": branch.String(),
			"lines":     []map[string]any{{"part_number": "PN", "ordered_qty": 1, "reason_code": "R"}},
		})
		require.Equal(t, http.StatusCreated, code, resp)
		id := decodeRMA(t, resp).ID

		code, _ = s.do(t, "outsider-1", http.MethodGet, fmt.Sprintf("/rmas/%s", id), nil)
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = s.do(t, "outsider-1", http.MethodPost, "/rmas", map[string]any{
			"branch_id": branch.String(),
			"lines":     []map[string]any{{"part_number": "PN", "ordered_qty": 1, "reason_code": "R"}},
		})
		assert.Equal(t, http.StatusForbidden, code)
	})

	t.Run("me returns the resolved actor", func(t *testing.T) {
		code, resp := s.do(t, "agent-1", http.MethodGet, "/me", nil)
		require.Equal(t, http.StatusOK, code)
		var me struct {
			PortalUserID string `json:"portal_user_id"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &me))
		assert.Equal(t, "agent-1", me.PortalUserID)
	})
}

package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/interfaces/http/dto"
	"github.com/rms/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupRMARouter(lifecycle *MockLifecycle, queries *MockQueries) *gin.Engine {
	h := NewRMAHandler(lifecycle, queries)
	r := newTestRouter()
	r.POST("/rmas", h.Create)
	r.GET("/rmas", h.List)
	r.GET("/rmas/:id", h.Get)
	r.GET("/rmas/:id/audit", h.AuditTrail)
	r.POST("/rmas/:id/submit", h.Submit)
	r.POST("/rmas/:id/cancel", h.Cancel)
	r.POST("/rmas/:id/info-required", h.PlaceInfoRequired)
	r.POST("/rmas/:id/resolve", h.Resolve)
	return r
}

func TestRMAHandler_Create(t *testing.T) {
	branchID := testActor.BranchIDs[0]

	t.Run("creates a draft", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		created := sampleRMA(rma.StatusDraft)
		credit := rma.DispositionCredit
		lifecycle.On("CreateDraft", mock.Anything, testActor, mock.MatchedBy(func(in rmaapp.CreateDraftInput) bool {
			return in.BranchID == branchID && in.CustomerID == nil && len(in.Lines) == 1 &&
				in.Lines[0].PartNumber == "PN-1" && *in.Lines[0].Disposition == credit &&
				in.Lines[0].UnitCost.String() == "12.5"
		})).Return(created, nil)

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost, "/rmas", `{
			"branch_id": "`+branchID.String()+`",
			"lines": [{"part_number": "PN-1", "ordered_qty": 4, "reason_code": "DAMAGED", "disposition": "CREDIT", "unit_cost": "12.50"}]
		}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		resp := testutil.DecodeResponse(t, w)
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, "RMA-202603-000001", data["rma_number"])
		assert.Equal(t, "DRAFT", data["status"])
		assert.ElementsMatch(t, []any{"SUBMITTED", "CANCELLED"}, data["allowed_transitions"])
		lifecycle.AssertExpectations(t)
	})

	t.Run("rejects an invalid line before reaching the service", func(t *testing.T) {
		lifecycle := new(MockLifecycle)

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost, "/rmas", `{
			"branch_id": "`+branchID.String()+`",
			"lines": [{"part_number": "PN-1", "ordered_qty": 0, "reason_code": "DAMAGED", "disposition": "KEEP"}]
		}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.Fields)
		lifecycle.AssertNotCalled(t, "CreateDraft", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires a branch", func(t *testing.T) {
		w := testutil.DoRequest(setupRMARouter(new(MockLifecycle), new(MockQueries)), http.MethodPost, "/rmas", `{"lines": []}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w)
		require.Len(t, resp.Error.Fields, 1)
		assert.Equal(t, "branch_id", resp.Error.Fields[0].Field)
	})

	t.Run("maps a precondition failure with its reason", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		lifecycle.On("CreateDraft", mock.Anything, testActor, mock.Anything).
			Return(nil, shared.NewPreconditionError(rma.ReasonNoLines, "At least one line item is required to create an RMA"))

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost, "/rmas",
			`{"branch_id": "`+branchID.String()+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w)
		assert.Equal(t, dto.ErrCodePreconditionFailed, resp.Error.Code)
		assert.Equal(t, rma.ReasonNoLines, resp.Error.Details["reason"])
		assert.NotEmpty(t, resp.Error.RequestID)
	})
}

func TestRMAHandler_List(t *testing.T) {
	t.Run("passes filters and paginates", func(t *testing.T) {
		queries := new(MockQueries)
		status := rma.StatusSubmitted
		branchID := testActor.BranchIDs[0]
		queries.On("List", mock.Anything, testActor, rma.ListFilter{
			Status:   &status,
			BranchID: &branchID,
			Page:     shared.Page{Take: 10, Skip: 20},
		}).Return(shared.Paginated[rmaapp.RMAListItemResponse]{
			Items: []rmaapp.RMAListItemResponse{{ID: uuid.New(), RMANumber: "RMA-202603-000002", Status: "SUBMITTED"}},
			Total: 21,
			Take:  10,
			Skip:  20,
		}, nil)

		w := testutil.DoRequest(setupRMARouter(new(MockLifecycle), queries), http.MethodGet,
			"/rmas?status=SUBMITTED&branch_id="+branchID.String()+"&take=10&skip=20", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		resp := testutil.DecodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(21), resp.Meta.Total)
		assert.Len(t, resp.Data, 1)
		queries.AssertExpectations(t)
	})
}

func TestRMAHandler_RejectsMalformedRequests(t *testing.T) {
	queries := new(MockQueries)
	lifecycle := new(MockLifecycle)
	setup := func(t *testing.T) http.Handler { return setupRMARouter(lifecycle, queries) }

	testutil.RunRouteCases(t, setup, []testutil.RouteCase{
		{
			Name:           "unknown status",
			Path:           "/rmas?status=SHIPPED",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
		},
		{
			Name:           "oversized page",
			Path:           "/rmas?take=1000",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
			Validate: func(t *testing.T, resp dto.Response) {
				require.Len(t, resp.Error.Fields, 1)
				assert.Equal(t, "Must be at most 100", resp.Error.Fields[0].Message)
			},
		},
		{
			Name:           "branch filter is not a uuid",
			Path:           "/rmas?branch_id=main",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeValidation,
		},
		{
			Name:           "invalid rma id",
			Path:           "/rmas/not-a-uuid",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
		},
		{
			Name:           "submit with invalid rma id",
			Method:         http.MethodPost,
			Path:           "/rmas/not-a-uuid/submit",
			ExpectedStatus: http.StatusBadRequest,
			ExpectedCode:   dto.ErrCodeBadRequest,
		},
	})

	queries.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	lifecycle.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestRMAHandler_Get(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		queries := new(MockQueries)
		id := uuid.New()
		queries.On("Get", mock.Anything, testActor, id).Return(nil, rma.ErrRMANotFound)

		w := testutil.DoRequest(setupRMARouter(new(MockLifecycle), queries), http.MethodGet, "/rmas/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, testutil.DecodeResponse(t, w).Error.Code)
	})

	t.Run("audit trail", func(t *testing.T) {
		queries := new(MockQueries)
		id := uuid.New()
		queries.On("AuditTrail", mock.Anything, testActor, id).Return([]rmaapp.AuditEventResponse{
			{ID: uuid.New(), Action: "RMA_CREATED", ActorRole: "RETURNS_AGENT"},
			{ID: uuid.New(), Action: "RMA_SUBMITTED", ActorRole: "RETURNS_AGENT"},
		}, nil)

		w := testutil.DoRequest(setupRMARouter(new(MockLifecycle), queries), http.MethodGet, "/rmas/"+id.String()+"/audit", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		events := testutil.DecodeResponse(t, w).Data.([]any)
		require.Len(t, events, 2)
		assert.Equal(t, "RMA_CREATED", events[0].(map[string]any)["action"])
	})
}

func TestRMAHandler_Transitions(t *testing.T) {
	t.Run("invalid transition carries the legal next states", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		id := uuid.New()
		lifecycle.On("Submit", mock.Anything, testActor, id).Return(nil, &rma.InvalidTransitionError{
			From:    rma.StatusApproved,
			To:      rma.StatusSubmitted,
			Allowed: []rma.Status{rma.StatusReceived, rma.StatusCancelled},
		})

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost, "/rmas/"+id.String()+"/submit", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInvalidTransition, resp.Error.Code)
		assert.Equal(t, "APPROVED", resp.Error.Details["fromStatus"])
		assert.Equal(t, []any{"RECEIVED", "CANCELLED"}, resp.Error.Details["allowedTransitions"])
	})

	t.Run("cancel requires a reason", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost,
			"/rmas/"+uuid.NewString()+"/cancel", `{"reason": "   "}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		lifecycle.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancel forwards the reason", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		id := uuid.New()
		lifecycle.On("Cancel", mock.Anything, testActor, id, "Customer withdrew").Return(sampleRMA(rma.StatusCancelled), nil)

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost,
			"/rmas/"+id.String()+"/cancel", `{"reason": "Customer withdrew"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "CANCELLED", testutil.DecodeResponse(t, w).Data.(map[string]any)["status"])
		lifecycle.AssertExpectations(t)
	})

	t.Run("info required forwards the note", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		id := uuid.New()
		lifecycle.On("PlaceInfoRequired", mock.Anything, testActor, id, "Need photos").Return(sampleRMA(rma.StatusInfoRequired), nil)

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost,
			"/rmas/"+id.String()+"/info-required", `{"note": "Need photos"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		lifecycle.AssertExpectations(t)
	})

	t.Run("infrastructure failure does not leak", func(t *testing.T) {
		lifecycle := new(MockLifecycle)
		id := uuid.New()
		lifecycle.On("Resolve", mock.Anything, testActor, id).Return(nil, errors.New("pq: connection reset"))

		w := testutil.DoRequest(setupRMARouter(lifecycle, new(MockQueries)), http.MethodPost, "/rmas/"+id.String()+"/resolve", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := testutil.DecodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, w.Body.String(), "connection reset")
	})
}

package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/rms/backend/internal/application/identity"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/interfaces/http/dto"
	"github.com/rms/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupUserRouter(users *MockUsers) *gin.Engine {
	h := NewUserHandler(users)
	r := newTestRouter()
	r.GET("/me", h.Me)
	r.POST("/admin/users", h.Provision)
	r.GET("/admin/users", h.List)
	r.GET("/admin/users/:id", h.Get)
	r.PUT("/admin/users/:id/branches/:branchId", h.AssignBranchRole)
	r.DELETE("/admin/users/:id/branches/:branchId", h.RevokeBranchRole)
	return r
}

func TestUserHandler_Me(t *testing.T) {
	w := testutil.DoRequest(setupUserRouter(new(MockUsers)), http.MethodGet, "/me", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.DecodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, testActor.ID.String(), data["id"])
	assert.Equal(t, "RETURNS_AGENT", data["role"])
	assert.Equal(t, false, data["is_admin"])
}

func TestUserHandler_Provision(t *testing.T) {
	branchID := uuid.New()

	t.Run("provisions", func(t *testing.T) {
		users := new(MockUsers)
		users.On("ProvisionUser", mock.Anything, testActor, identityapp.ProvisionUserInput{
			PortalUserID: "portal-42",
			Email:        "qc@example.com",
			DisplayName:  "Quinn",
			BranchRoles:  []identity.BranchRole{{BranchID: branchID, Role: identity.RoleQC}},
		}).Return(&identityapp.UserResponse{ID: uuid.New(), PortalUserID: "portal-42"}, nil)

		w := testutil.DoRequest(setupUserRouter(users), http.MethodPost, "/admin/users", `{
			"portal_user_id": "portal-42",
			"email": "qc@example.com",
			"display_name": "Quinn",
			"branch_roles": [{"branch_id": "`+branchID.String()+`", "role": "QC"}]
		}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		users.AssertExpectations(t)
	})

	t.Run("unknown role", func(t *testing.T) {
		w := testutil.DoRequest(setupUserRouter(new(MockUsers)), http.MethodPost, "/admin/users", `{
			"portal_user_id": "portal-42",
			"email": "qc@example.com",
			"display_name": "Quinn",
			"branch_roles": [{"branch_id": "`+branchID.String()+`", "role": "JANITOR"}]
		}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("no branch roles", func(t *testing.T) {
		w := testutil.DoRequest(setupUserRouter(new(MockUsers)), http.MethodPost, "/admin/users",
			`{"portal_user_id": "p", "email": "a@example.com", "display_name": "A", "branch_roles": []}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate portal user", func(t *testing.T) {
		users := new(MockUsers)
		users.On("ProvisionUser", mock.Anything, testActor, mock.Anything).
			Return(nil, shared.NewDomainError(shared.CodeConflict, "User already provisioned"))

		w := testutil.DoRequest(setupUserRouter(users), http.MethodPost, "/admin/users", `{
			"portal_user_id": "portal-42",
			"email": "qc@example.com",
			"display_name": "Quinn",
			"branch_roles": [{"branch_id": "`+branchID.String()+`", "role": "QC"}]
		}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConflict, testutil.DecodeResponse(t, w).Error.Code)
	})
}

func TestUserHandler_BranchRoles(t *testing.T) {
	userID, branchID := uuid.New(), uuid.New()
	path := "/admin/users/" + userID.String() + "/branches/" + branchID.String()

	users := new(MockUsers)
	users.On("AssignBranchRole", mock.Anything, testActor, userID, branchID, identity.RoleFinance).
		Return(&identityapp.UserResponse{ID: userID}, nil)
	users.On("RevokeBranchRole", mock.Anything, testActor, userID, branchID).
		Return(&identityapp.UserResponse{ID: userID}, nil)
	router := setupUserRouter(users)

	assert.Equal(t, http.StatusOK, testutil.DoRequest(router, http.MethodPut, path, `{"role": "FINANCE"}`).Code)
	assert.Equal(t, http.StatusOK, testutil.DoRequest(router, http.MethodDelete, path, nil).Code)
	users.AssertExpectations(t)
}

func TestUserHandler_ListAndGet(t *testing.T) {
	userID := uuid.New()
	users := new(MockUsers)
	users.On("List", mock.Anything, shared.Page{Take: 2, Skip: 0}).
		Return(shared.NewPaginated([]identityapp.UserResponse{{ID: userID}}, 3, shared.Page{Take: 2}), nil)
	users.On("Get", mock.Anything, userID).Return(nil, shared.ErrNotFound)
	router := setupUserRouter(users)

	w := testutil.DoRequest(router, http.MethodGet, "/admin/users?take=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), testutil.DecodeResponse(t, w).Meta.Total)

	w = testutil.DoRequest(router, http.MethodGet, "/admin/users/"+userID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

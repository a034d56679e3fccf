package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	identityapp "github.com/rms/backend/internal/application/identity"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/interfaces/http/dto"
)

// UserHandler handles user provisioning and the caller's own profile
type UserHandler struct {
	BaseHandler
	users UserAdministration
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserAdministration) *UserHandler {
	return &UserHandler{users: users}
}

// BranchRoleRequest is one branch role assignment
//
//	@Description	Branch role assignment
type BranchRoleRequest struct {
	BranchID string `json:"branch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Role     string `json:"role" binding:"required,oneof=CUSTOMER WAREHOUSE QC FINANCE RETURNS_AGENT BRANCH_MANAGER ADMIN" example:"WAREHOUSE"`
}

// ProvisionUserRequest registers a portal user in RMS
//
//	@Description	Request body for provisioning a user
type ProvisionUserRequest struct {
	PortalUserID string              `json:"portal_user_id" binding:"required,notblank,max=255" example:"auth0|64f1c2"`
	Email        string              `json:"email" binding:"required,email,max=255" example:"jane@example.com"`
	DisplayName  string              `json:"display_name" binding:"required,notblank,max=200" example:"Jane Doe"`
	BranchRoles  []BranchRoleRequest `json:"branch_roles" binding:"required,min=1,dive"`
}

// SetBranchRoleRequest sets a user's role on the branch in the path
//
//	@Description	Request body for assigning a branch role
type SetBranchRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=CUSTOMER WAREHOUSE QC FINANCE RETURNS_AGENT BRANCH_MANAGER ADMIN" example:"QC"`
}

// MeResponse describes the resolved caller
//
//	@Description	Current RMS actor
type MeResponse struct {
	ID           uuid.UUID   `json:"id"`
	PortalUserID string      `json:"portal_user_id"`
	Email        string      `json:"email"`
	Role         string      `json:"role"`
	BranchIDs    []uuid.UUID `json:"branch_ids"`
	IsAdmin      bool        `json:"is_admin"`
}

// Me godoc
//
//	@ID				getCurrentActor
//	@Summary		Current actor
//	@Description	The RMS identity resolved from the bearer token
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	APIResponse[MeResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	h.Success(c, MeResponse{
		ID:           actor.ID,
		PortalUserID: actor.PortalUserID,
		Email:        actor.Email,
		Role:         string(actor.Role),
		BranchIDs:    actor.BranchIDs,
		IsAdmin:      actor.IsAdmin,
	})
}

// Provision godoc
//
//	@ID				provisionUser
//	@Summary		Provision a user
//	@Tags			admin-users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ProvisionUserRequest	true	"User"
//	@Success		201		{object}	APIResponse[identityapp.UserResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users [post]
func (h *UserHandler) Provision(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	var req ProvisionUserRequest
	if !h.bindJSON(c, &req) {
		return
	}
	input := identityapp.ProvisionUserInput{
		PortalUserID: req.PortalUserID,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
	}
	for _, br := range req.BranchRoles {
		branchID, err := uuid.Parse(br.BranchID)
		if err != nil {
			h.BadRequest(c, "Invalid branch ID")
			return
		}
		input.BranchRoles = append(input.BranchRoles, identity.BranchRole{BranchID: branchID, Role: identity.Role(br.Role)})
	}

	user, err := h.users.ProvisionUser(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// List godoc
//
//	@ID				listUsers
//	@Summary		List users
//	@Tags			admin-users
//	@Produce		json
//	@Param			take	query		int	false	"Page size"
//	@Param			skip	query		int	false	"Offset"
//	@Success		200		{object}	APIResponse[[]identityapp.UserResponse]
//	@Security		BearerAuth
//	@Router			/admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.users.List(c.Request.Context(), req.Page())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
//
//	@ID				getUser
//	@Summary		Get a user
//	@Tags			admin-users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"	format(uuid)
//	@Success		200	{object}	APIResponse[identityapp.UserResponse]
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "user ID")
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// AssignBranchRole godoc
//
//	@ID				assignUserBranchRole
//	@Summary		Assign a branch role
//	@Description	Grant or replace the user's role on a branch
//	@Tags			admin-users
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string					true	"User ID"	format(uuid)
//	@Param			branchId	path		string					true	"Branch ID"	format(uuid)
//	@Param			request		body		SetBranchRoleRequest	true	"Role"
//	@Success		200			{object}	APIResponse[identityapp.UserResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users/{id}/branches/{branchId} [put]
func (h *UserHandler) AssignBranchRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id", "user ID")
	if !ok {
		return
	}
	branchID, ok := h.uuidParam(c, "branchId", "branch ID")
	if !ok {
		return
	}
	var req SetBranchRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.AssignBranchRole(c.Request.Context(), actor, userID, branchID, identity.Role(req.Role))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// RevokeBranchRole godoc
//
//	@ID				revokeUserBranchRole
//	@Summary		Revoke a branch role
//	@Tags			admin-users
//	@Produce		json
//	@Param			id			path		string	true	"User ID"	format(uuid)
//	@Param			branchId	path		string	true	"Branch ID"	format(uuid)
//	@Success		200			{object}	APIResponse[identityapp.UserResponse]
//	@Failure		404			{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/users/{id}/branches/{branchId} [delete]
func (h *UserHandler) RevokeBranchRole(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id", "user ID")
	if !ok {
		return
	}
	branchID, ok := h.uuidParam(c, "branchId", "branch ID")
	if !ok {
		return
	}

	user, err := h.users.RevokeBranchRole(c.Request.Context(), actor, userID, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

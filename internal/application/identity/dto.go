package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
)

// ProvisionUserInput contains input for provisioning a user
type ProvisionUserInput struct {
	PortalUserID string
	Email        string
	DisplayName  string
	BranchRoles  []identity.BranchRole
}

// BootstrapAdminInput contains input for creating the first administrator
type BootstrapAdminInput struct {
	PortalUserID string
	Email        string
	DisplayName  string
	BranchID     uuid.UUID
}

// BranchRoleResponse represents a branch role assignment
type BranchRoleResponse struct {
	BranchID uuid.UUID `json:"branch_id"`
	Role     string    `json:"role"`
}

// UserResponse represents an RMS user in API responses
type UserResponse struct {
	ID           uuid.UUID            `json:"id"`
	PortalUserID string               `json:"portal_user_id"`
	Email        string               `json:"email"`
	DisplayName  string               `json:"display_name"`
	PrimaryRole  *string              `json:"primary_role"`
	BranchRoles  []BranchRoleResponse `json:"branch_roles"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// ToUserResponse converts a domain user to a response DTO
func ToUserResponse(u *identity.User) *UserResponse {
	roles := make([]BranchRoleResponse, len(u.BranchRoles))
	for i, br := range u.BranchRoles {
		roles[i] = BranchRoleResponse{BranchID: br.BranchID, Role: br.Role.String()}
	}

	resp := &UserResponse{
		ID:           u.ID,
		PortalUserID: u.PortalUserID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		BranchRoles:  roles,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if actor, ok := u.Actor(); ok {
		primary := actor.Role.String()
		resp.PrimaryRole = &primary
	}
	return resp
}

func branchRoleValue(branchID uuid.UUID, role *identity.Role) map[string]any {
	value := map[string]any{"branchId": branchID.String(), "role": nil}
	if role != nil {
		value["role"] = role.String()
	}
	return value
}

package identity

import (
	"slices"

	"github.com/google/uuid"
)

// Actor is the authenticated, provisioned caller of an RMS operation
type Actor struct {
	ID           uuid.UUID
	PortalUserID string
	Email        string
	Role         Role
	BranchIDs    []uuid.UUID
	IsAdmin      bool
}

// HasBranch reports whether the actor is assigned to branchID
func (a Actor) HasBranch(branchID uuid.UUID) bool {
	return slices.Contains(a.BranchIDs, branchID)
}

// CanSeeBranch reports whether records owned by branchID are visible to the actor
func (a Actor) CanSeeBranch(branchID uuid.UUID) bool {
	return a.IsAdmin || a.HasBranch(branchID)
}

// HasAnyRole reports whether the actor's primary role is one of roles.
// Admins satisfy every role requirement.
func (a Actor) HasAnyRole(roles ...Role) bool {
	if a.IsAdmin {
		return true
	}
	return slices.Contains(roles, a.Role)
}

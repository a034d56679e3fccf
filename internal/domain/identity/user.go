package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
)

// BranchRole assigns a role to a user for one branch
type BranchRole struct {
	BranchID uuid.UUID
	Role     Role
}

// User is an RMS user linked to a portal identity
type User struct {
	shared.BaseEntity
	PortalUserID string
	Email        string
	DisplayName  string
	BranchRoles  []BranchRole
}

// NewUser creates a user with at least one branch role
func NewUser(portalUserID, email, displayName string, roles []BranchRole, now time.Time) (*User, error) {
	portalUserID = strings.TrimSpace(portalUserID)
	if portalUserID == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Portal user ID cannot be empty")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Email cannot be empty")
	}
	if len(roles) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "At least one branch role is required")
	}

	seen := make(map[uuid.UUID]bool, len(roles))
	for _, br := range roles {
		if !br.Role.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid role: "+br.Role.String())
		}
		if br.BranchID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Branch ID cannot be empty")
		}
		if seen[br.BranchID] {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, "Duplicate branch assignment")
		}
		seen[br.BranchID] = true
	}

	return &User{
		BaseEntity:   shared.NewBaseEntity(now),
		PortalUserID: portalUserID,
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		BranchRoles:  roles,
	}, nil
}

// RoleFor returns the role held on branchID, if any
func (u *User) RoleFor(branchID uuid.UUID) (Role, bool) {
	for _, br := range u.BranchRoles {
		if br.BranchID == branchID {
			return br.Role, true
		}
	}
	return "", false
}

// Actor resolves the request actor for the user.
// Returns false when the user holds no branch roles, i.e. is not provisioned.
func (u *User) Actor() (Actor, bool) {
	if len(u.BranchRoles) == 0 {
		return Actor{}, false
	}

	roles := make([]Role, 0, len(u.BranchRoles))
	branchIDs := make([]uuid.UUID, 0, len(u.BranchRoles))
	for _, br := range u.BranchRoles {
		roles = append(roles, br.Role)
		branchIDs = append(branchIDs, br.BranchID)
	}

	primary, ok := ResolvePrimaryRole(roles)
	if !ok {
		return Actor{}, false
	}

	return Actor{
		ID:           u.ID,
		PortalUserID: u.PortalUserID,
		Email:        u.Email,
		Role:         primary,
		BranchIDs:    branchIDs,
		IsAdmin:      primary == RoleAdmin,
	}, true
}

package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
)

// UserReader provides read access to RMS users
type UserReader interface {
	// FindByPortalUserID returns the user with branch roles, or nil when unknown
	FindByPortalUserID(ctx context.Context, portalUserID string) (*User, error)

	// FindByID returns the user with branch roles, or nil when unknown
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// List returns users ordered by email
	List(ctx context.Context, page shared.Page) ([]User, int64, error)
}

// UserWriter mutates users. Only obtainable inside a transaction scope.
type UserWriter interface {
	UserReader

	// Create inserts the user and its branch roles
	Create(ctx context.Context, user *User) error

	// UpsertBranchRole assigns role on branchID, replacing any existing role there
	UpsertBranchRole(ctx context.Context, userID uuid.UUID, role BranchRole) error

	// DeleteBranchRole removes the user's assignment on branchID
	DeleteBranchRole(ctx context.Context, userID, branchID uuid.UUID) error
}

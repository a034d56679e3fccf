package identity

import (
	"slices"

	"github.com/google/uuid"
)

// BranchScope restricts a listing to a set of branches.
// An unrestricted scope matches every branch; a restricted scope with no
// branches matches nothing.
type BranchScope struct {
	Unrestricted bool
	BranchIDs    []uuid.UUID
}

// Allows reports whether a record owned by branchID falls inside the scope
func (s BranchScope) Allows(branchID uuid.UUID) bool {
	return s.Unrestricted || slices.Contains(s.BranchIDs, branchID)
}

// IsEmpty reports whether the scope can never match a record
func (s BranchScope) IsEmpty() bool {
	return !s.Unrestricted && len(s.BranchIDs) == 0
}

// BranchScopeFor returns the branch filter for actor.
// Admins see every branch; everybody else sees their assigned branches.
func BranchScopeFor(actor Actor) BranchScope {
	if actor.IsAdmin {
		return BranchScope{Unrestricted: true}
	}
	return BranchScope{BranchIDs: slices.Clone(actor.BranchIDs)}
}

// Narrow restricts the scope to a single branch requested by the caller.
// Narrowing never widens: a branch outside the scope yields an empty scope.
func (s BranchScope) Narrow(branchID *uuid.UUID) BranchScope {
	if branchID == nil || *branchID == uuid.Nil {
		return s
	}
	if !s.Allows(*branchID) {
		return BranchScope{}
	}
	return BranchScope{BranchIDs: []uuid.UUID{*branchID}}
}

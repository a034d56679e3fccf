// Package datascope restricts GORM queries to the branches an actor may see.
//
// Usage:
//
//	scoped := db.Scopes(datascope.Branches(identity.BranchScopeFor(actor), "rmas.branch_id"))
//	scoped.Find(&rmas) // WHERE rmas.branch_id IN (...) for non-admins
package datascope

import (
	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
	"gorm.io/gorm"
)

// DefaultBranchColumn is the owning-branch column of the rmas table
const DefaultBranchColumn = "rmas.branch_id"

// Branches returns a GORM scope filtering column by the branch scope.
// An unrestricted scope adds nothing; an empty scope matches no rows.
func Branches(scope identity.BranchScope, column string) func(*gorm.DB) *gorm.DB {
	if column == "" {
		column = DefaultBranchColumn
	}
	return func(db *gorm.DB) *gorm.DB {
		return Apply(db, scope, column)
	}
}

// Apply adds the branch predicate for scope to db
func Apply(db *gorm.DB, scope identity.BranchScope, column string) *gorm.DB {
	switch {
	case scope.Unrestricted:
		return db
	case scope.IsEmpty():
		// No branches assigned - return empty result
		return db.Where("1 = 0")
	case len(scope.BranchIDs) == 1:
		return db.Where(column+" = ?", scope.BranchIDs[0])
	default:
		return db.Where(column+" IN ?", scope.BranchIDs)
	}
}

// ForActor resolves the actor's scope, narrowed to an optional requested branch
func ForActor(actor identity.Actor, requested *uuid.UUID) identity.BranchScope {
	return identity.BranchScopeFor(actor).Narrow(requested)
}

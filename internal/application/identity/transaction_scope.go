package identity

import (
	"context"

	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
)

// TransactionalRepositories exposes the stores bound to one open transaction
type TransactionalRepositories interface {
	Users() identity.UserWriter
	Audit() audit.Recorder
}

// TransactionScope runs fn inside one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

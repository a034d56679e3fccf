package rma

import (
	"context"

	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/rma"
)

// TransactionalRepositories exposes the stores bound to one open transaction.
// Writes to the RMA store and the audit recorder obtained here commit or
// roll back together.
type TransactionalRepositories interface {
	RMAs() rma.Store
	Audit() audit.Recorder
	Attachments() attachment.Repository
}

// TransactionScope runs fn inside one database transaction.
// A non-nil error from fn rolls the transaction back; nil commits it.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

package persistence

import (
	"context"

	appfulfillment "github.com/rms/backend/internal/application/fulfillment"
	appidentity "github.com/rms/backend/internal/application/identity"
	apprma "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"gorm.io/gorm"
)

// GormTransactionScope runs application work inside GORM transactions.
// Repositories handed to the callback share the transaction; if the callback
// returns an error the transaction is rolled back, otherwise it is committed.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

func (s *GormTransactionScope) run(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// RMA returns the scope used by the RMA lifecycle services
func (s *GormTransactionScope) RMA() apprma.TransactionScope {
	return rmaScope{s}
}

// Identity returns the scope used by the user service
func (s *GormTransactionScope) Identity() appidentity.TransactionScope {
	return identityScope{s}
}

// Audit returns the scope used by the fulfillment dispatcher
func (s *GormTransactionScope) Audit() appfulfillment.AuditScope {
	return auditScope{s}
}

type rmaScope struct{ *GormTransactionScope }

func (s rmaScope) Execute(ctx context.Context, fn func(repos apprma.TransactionalRepositories) error) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		return fn(txRepositories{tx: tx})
	})
}

type identityScope struct{ *GormTransactionScope }

func (s identityScope) Execute(ctx context.Context, fn func(repos appidentity.TransactionalRepositories) error) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		return fn(txRepositories{tx: tx})
	})
}

type auditScope struct{ *GormTransactionScope }

func (s auditScope) Execute(ctx context.Context, fn func(recorder audit.Recorder) error) error {
	return s.run(ctx, func(tx *gorm.DB) error {
		return fn(NewGormAuditRepository(tx))
	})
}

// txRepositories provides access to all repositories within a transaction.
type txRepositories struct {
	tx *gorm.DB
}

func (r txRepositories) RMAs() rma.Store {
	return NewGormRMARepository(r.tx)
}

func (r txRepositories) Audit() audit.Recorder {
	return NewGormAuditRepository(r.tx)
}

func (r txRepositories) Attachments() attachment.Repository {
	return NewGormAttachmentRepository(r.tx)
}

func (r txRepositories) Users() identity.UserWriter {
	return NewGormUserRepository(r.tx)
}

var (
	_ apprma.TransactionScope               = rmaScope{}
	_ apprma.TransactionalRepositories      = txRepositories{}
	_ appidentity.TransactionScope          = identityScope{}
	_ appidentity.TransactionalRepositories = txRepositories{}
	_ appfulfillment.AuditScope             = auditScope{}
)

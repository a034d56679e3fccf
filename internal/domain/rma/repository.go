package rma

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Default page sizes for queue listings
const (
	DefaultApprovalQueueTake = 50
	DefaultCreditQueueTake   = 100
	DefaultListTake          = 50
	MaxTake                  = 500
)

// ListFilter narrows a branch-scoped RMA listing
type ListFilter struct {
	Status   *Status
	BranchID *uuid.UUID
	Page     shared.Page
}

// QueueFilter narrows a work queue listing
type QueueFilter struct {
	Status   *Status
	BranchID *uuid.UUID
	Page     shared.Page
}

// CreditApprovalLine is a CREDIT line awaiting Finance approval together
// with the identifying fields of its RMA.
type CreditApprovalLine struct {
	Line
	RMANumber    string
	BranchID     uuid.UUID
	CustomerID   *uuid.UUID
	RMACreatedAt time.Time
}

// Patch is a partial update of RMA header fields; nil fields are left unchanged
type Patch struct {
	RejectionReason       *string
	CancellationReason    *string
	DisputeReason         *string
	ContestedAt           *time.Time
	ContestResolutionNote *string
	AssignedToID          *uuid.UUID
	ClearAssignee         bool
}

// LinePatch is a partial update of a line's editable fields
type LinePatch struct {
	PartNumber *string
	OrderedQty *int
	ReasonCode *string
	UnitCost   *decimal.Decimal

	// DispositionSet marks Disposition as present; a nil Disposition clears it.
	DispositionSet bool
	Disposition    *Disposition

	// ClearFinanceApproval drops financeApprovedAt/financeApprovedById
	ClearFinanceApproval bool
}

// QCResult is the outcome of a QC inspection on one line
type QCResult struct {
	InspectedQty                int
	InspectedAt                 time.Time
	QCPass                      *bool
	QCFindings                  *string
	QCDispositionRecommendation *Disposition
}

// Reader provides the read side of the RMA store
type Reader interface {
	// FindByID returns the RMA with lines, or nil when it does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*RMA, error)

	// FindByIDBranchScoped returns the RMA only when it belongs to a branch
	// visible to actor; nil otherwise, whether or not the row exists
	FindByIDBranchScoped(ctx context.Context, actor identity.Actor, id uuid.UUID) (*RMA, error)

	// FindManyBranchScoped lists RMAs visible to actor, newest first
	FindManyBranchScoped(ctx context.Context, actor identity.Actor, filter ListFilter) ([]RMA, int64, error)

	// FindForApprovalQueue lists SUBMITTED and CONTESTED RMAs visible to actor, oldest first
	FindForApprovalQueue(ctx context.Context, actor identity.Actor, filter QueueFilter) ([]RMA, int64, error)

	// FindCreditApprovalLines lists unapproved CREDIT lines on QC_COMPLETE RMAs
	// visible to actor, ordered by RMA creation time
	FindCreditApprovalLines(ctx context.Context, actor identity.Actor, filter QueueFilter) ([]CreditApprovalLine, int64, error)
}

// Store is the transactional write side of the RMA store. Instances are
// bound to an open transaction and are only handed out by a transaction scope.
type Store interface {
	Reader

	// FindByIDForUpdate loads the RMA with lines and locks its header row
	// until the transaction ends; nil when it does not exist
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RMA, error)

	// CountNumbersWithPrefix counts RMA numbers starting with prefix
	CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error)

	// GenerateRMANumber returns the next count-based number for the month of now
	GenerateRMANumber(ctx context.Context, now time.Time) (string, error)

	// CreateRMA inserts the header and its lines; returns ErrNumberConflict
	// when the RMA number is already taken
	CreateRMA(ctx context.Context, r *RMA) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, now time.Time) error
	UpdateRMA(ctx context.Context, id uuid.UUID, patch Patch, now time.Time) error
	AddLine(ctx context.Context, line *Line) error
	UpdateLine(ctx context.Context, lineID uuid.UUID, patch LinePatch, now time.Time) error
	RemoveLine(ctx context.Context, lineID uuid.UUID) error
	UpdateLineReceipt(ctx context.Context, lineID uuid.UUID, receivedQty int, now time.Time) error
	UpdateLineQC(ctx context.Context, lineID uuid.UUID, result QCResult, now time.Time) error
	UpdateLineFinanceApproval(ctx context.Context, lineID, approverID uuid.UUID, approvedAt time.Time) error
}

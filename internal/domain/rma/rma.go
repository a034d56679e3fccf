package rma

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
)

// RMA is the return merchandise authorization aggregate root
type RMA struct {
	shared.BaseEntity
	RMANumber             string
	BranchID              uuid.UUID
	CustomerID            *uuid.UUID
	SubmittedByID         *uuid.UUID
	AssignedToID          *uuid.UUID
	Status                Status
	RejectionReason       *string
	CancellationReason    *string
	DisputeReason         *string
	ContestedAt           *time.Time
	ContestResolutionNote *string
	Lines                 []Line
}

// NewRMA creates a draft RMA with its initial lines
func NewRMA(number string, branchID uuid.UUID, customerID, createdByID *uuid.UUID, specs []LineSpec, now time.Time) (*RMA, error) {
	if number == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "RMA number cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Branch ID cannot be empty")
	}
	if len(specs) == 0 {
		return nil, preconditionf(ReasonNoLines, "At least one line item is required to create an RMA")
	}

	r := &RMA{
		BaseEntity:    shared.NewBaseEntity(now),
		RMANumber:     number,
		BranchID:      branchID,
		CustomerID:    customerID,
		SubmittedByID: createdByID,
		Status:        StatusDraft,
		Lines:         make([]Line, 0, len(specs)),
	}
	for i, spec := range specs {
		line, err := NewLine(r.ID, i+1, spec, now)
		if err != nil {
			return nil, err
		}
		r.Lines = append(r.Lines, line)
	}
	return r, nil
}

// FindLine returns the line with the given ID
func (r *RMA) FindLine(lineID uuid.UUID) (*Line, error) {
	for i := range r.Lines {
		if r.Lines[i].ID == lineID {
			return &r.Lines[i], nil
		}
	}
	return nil, ErrLineNotFound
}

// NextLineNumber returns the number for a line appended to the RMA
func (r *RMA) NextLineNumber() int {
	highest := 0
	for _, l := range r.Lines {
		if l.LineNumber > highest {
			highest = l.LineNumber
		}
	}
	return highest + 1
}

// CheckHasLines fails when the RMA has no lines
func (r *RMA) CheckHasLines() error {
	if len(r.Lines) == 0 {
		return preconditionf(ReasonNoLines, "Cannot submit an RMA with no line items")
	}
	return nil
}

// CheckLinesEditable fails unless lines may be modified in the current status
func (r *RMA) CheckLinesEditable() error {
	if !r.Status.IsLineEditable() {
		return preconditionf(ReasonLinesNotEditable,
			"Lines cannot be modified when RMA is in %s status; editable in DRAFT or INFO_REQUIRED", r.Status)
	}
	return nil
}

// CheckStatusIn fails with STATUS_NOT_ALLOWED unless the RMA is in one of statuses
func (r *RMA) CheckStatusIn(operation string, statuses ...Status) error {
	if slices.Contains(statuses, r.Status) {
		return nil
	}
	allowed := make([]string, len(statuses))
	for i, s := range statuses {
		allowed[i] = string(s)
	}
	return preconditionf(ReasonStatusNotAllowed, "Cannot %s when RMA is in %s status", operation, r.Status).
		WithDetail("allowedStatuses", allowed)
}

// CheckCanContest enforces the one-contest-per-RMA rule
func (r *RMA) CheckCanContest() error {
	if r.ContestedAt != nil {
		return preconditionf(ReasonAlreadyContested, "RMA %s has already been contested", r.RMANumber)
	}
	return nil
}

// IsFirstReceipt reports whether a receipt now would be the first on the RMA:
// the RMA is APPROVED and no line has received anything yet.
func (r *RMA) IsFirstReceipt() bool {
	if r.Status != StatusApproved {
		return false
	}
	for _, l := range r.Lines {
		if l.ReceivedQty != 0 {
			return false
		}
	}
	return true
}

// UnapprovedCreditLines counts CREDIT lines still awaiting Finance approval
func (r *RMA) UnapprovedCreditLines() int {
	n := 0
	for i := range r.Lines {
		if r.Lines[i].IsCredit() && !r.Lines[i].IsFinanceApproved() {
			n++
		}
	}
	return n
}

// CheckFinanceGate fails while any CREDIT line lacks Finance approval
func (r *RMA) CheckFinanceGate() error {
	if n := r.UnapprovedCreditLines(); n > 0 {
		return preconditionf(ReasonUnapprovedCredit,
			"Cannot resolve: %d credit line(s) awaiting finance approval", n).WithDetail("count", n)
	}
	return nil
}

// Snapshot returns the header fields used as audit values
func (r *RMA) Snapshot() map[string]any {
	return map[string]any{
		"rmaNumber": r.RMANumber,
		"status":    string(r.Status),
		"branchId":  r.BranchID.String(),
		"lineCount": len(r.Lines),
	}
}

// RequireText trims s and fails with REASON_REQUIRED when nothing is left
func RequireText(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", preconditionf(ReasonReasonRequired, "%s is required", field).WithDetail("field", field)
	}
	return s, nil
}

package rma

import (
	"fmt"
	"strings"

	"github.com/rms/backend/internal/domain/shared"
)

// Precondition failure reasons
const (
	ReasonNoLines               = "NO_LINES"
	ReasonReasonRequired        = "REASON_REQUIRED"
	ReasonLinesNotEditable      = "LINES_NOT_EDITABLE"
	ReasonDispositionLocked     = "DISPOSITION_LOCKED"
	ReasonInvalidQuantity       = "INVALID_QUANTITY"
	ReasonSplitQuantityMismatch = "SPLIT_QUANTITY_MISMATCH"
	ReasonSplitTooFew           = "SPLIT_TOO_FEW"
	ReasonAlreadyContested      = "ALREADY_CONTESTED"
	ReasonUnapprovedCredit      = "UNAPPROVED_CREDIT_LINES"
	ReasonNotCreditLine         = "NOT_CREDIT_LINE"
	ReasonStatusNotAllowed      = "STATUS_NOT_ALLOWED"
	ReasonInvalidDisposition    = "INVALID_DISPOSITION"
	ReasonInvalidLine           = "INVALID_LINE"
	ReasonAlreadyApproved       = "ALREADY_APPROVED"
)

var (
	ErrRMANotFound  = shared.NewDomainError(shared.CodeNotFound, "RMA not found")
	ErrLineNotFound = shared.NewDomainError(shared.CodeNotFound, "RMA line not found")

	// ErrNumberConflict signals that an allocated RMA number is already taken
	ErrNumberConflict = shared.NewDomainError(shared.CodeConflict, "RMA number already allocated")
)

// InvalidTransitionError reports a status change missing from the transition table
type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	list := strings.Join(allowed, ", ")
	if list == "" {
		list = "none"
	}
	return fmt.Sprintf("Invalid transition from %s to %s (allowed: %s)", e.From, e.To, list)
}

// Unwrap exposes the error as an INVALID_TRANSITION domain error
func (e *InvalidTransitionError) Unwrap() error {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return &shared.DomainError{
		Code:    shared.CodeInvalidTransition,
		Message: e.Error(),
		Details: map[string]any{
			"fromStatus":         string(e.From),
			"toStatus":           string(e.To),
			"allowedTransitions": allowed,
		},
	}
}

func preconditionf(reason, format string, args ...any) *shared.DomainError {
	return shared.NewPreconditionError(reason, fmt.Sprintf(format, args...))
}

package rma

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Disposition is the resolution category of a returned line
type Disposition string

const (
	DispositionCredit      Disposition = "CREDIT"
	DispositionReplacement Disposition = "REPLACEMENT"
	DispositionScrap       Disposition = "SCRAP"
	DispositionRTV         Disposition = "RTV"
)

// IsValid checks if the disposition is a known value
func (d Disposition) IsValid() bool {
	switch d {
	case DispositionCredit, DispositionReplacement, DispositionScrap, DispositionRTV:
		return true
	}
	return false
}

// String returns the string representation
func (d Disposition) String() string {
	return string(d)
}

// Line is one returned item on an RMA
type Line struct {
	ID                          uuid.UUID
	RMAID                       uuid.UUID
	LineNumber                  int
	PartNumber                  string
	OrderedQty                  int
	ReasonCode                  string
	Disposition                 *Disposition
	UnitCost                    *decimal.Decimal
	ReceivedQty                 int
	InspectedQty                int
	QCInspectedAt               *time.Time
	QCPass                      *bool
	QCFindings                  *string
	QCDispositionRecommendation *Disposition
	FinanceApprovedAt           *time.Time
	FinanceApprovedByID         *uuid.UUID
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

// LineSpec describes a line to be created
type LineSpec struct {
	PartNumber  string
	OrderedQty  int
	ReasonCode  string
	Disposition *Disposition
	UnitCost    *decimal.Decimal
}

// Validate checks the fields required on every new line
func (s LineSpec) Validate() error {
	if strings.TrimSpace(s.PartNumber) == "" {
		return preconditionf(ReasonInvalidLine, "Part number is required")
	}
	if s.OrderedQty <= 0 {
		return preconditionf(ReasonInvalidQuantity, "Ordered quantity must be a positive integer, got %d", s.OrderedQty)
	}
	if strings.TrimSpace(s.ReasonCode) == "" {
		return preconditionf(ReasonInvalidLine, "Reason code is required")
	}
	if s.Disposition != nil && !s.Disposition.IsValid() {
		return preconditionf(ReasonInvalidDisposition, "Invalid disposition: %s", *s.Disposition)
	}
	if s.UnitCost != nil && s.UnitCost.IsNegative() {
		return preconditionf(ReasonInvalidLine, "Unit cost cannot be negative")
	}
	return nil
}

// NewLine builds a line with zero received and inspected quantities
func NewLine(rmaID uuid.UUID, lineNumber int, spec LineSpec, now time.Time) (Line, error) {
	if err := spec.Validate(); err != nil {
		return Line{}, err
	}
	return Line{
		ID:          uuid.New(),
		RMAID:       rmaID,
		LineNumber:  lineNumber,
		PartNumber:  strings.TrimSpace(spec.PartNumber),
		OrderedQty:  spec.OrderedQty,
		ReasonCode:  strings.TrimSpace(spec.ReasonCode),
		Disposition: spec.Disposition,
		UnitCost:    spec.UnitCost,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// IsCredit reports whether the line's disposition is CREDIT
func (l *Line) IsCredit() bool {
	return l.Disposition != nil && *l.Disposition == DispositionCredit
}

// IsDispositionLocked reports whether QC inspection has fixed the disposition
func (l *Line) IsDispositionLocked() bool {
	return l.QCInspectedAt != nil
}

// IsFinanceApproved reports whether Finance approved the line's credit
func (l *Line) IsFinanceApproved() bool {
	return l.FinanceApprovedAt != nil
}

// CheckReceipt validates a new received quantity for the line.
// Receiving more than ordered is allowed.
func (l *Line) CheckReceipt(receivedQty int) error {
	if receivedQty < 0 {
		return preconditionf(ReasonInvalidQuantity, "Received quantity cannot be negative, got %d", receivedQty)
	}
	if receivedQty < l.InspectedQty {
		return preconditionf(ReasonInvalidQuantity,
			"Received quantity %d cannot be less than already inspected quantity %d", receivedQty, l.InspectedQty)
	}
	return nil
}

// CheckInspection validates a new inspected quantity for the line
func (l *Line) CheckInspection(inspectedQty int) error {
	if inspectedQty < 0 {
		return preconditionf(ReasonInvalidQuantity, "Inspected quantity cannot be negative, got %d", inspectedQty)
	}
	if inspectedQty > l.ReceivedQty {
		return preconditionf(ReasonInvalidQuantity,
			"Inspected quantity %d cannot exceed received quantity %d", inspectedQty, l.ReceivedQty)
	}
	return nil
}

// Snapshot returns the line's editable and quantity fields for audit values
func (l *Line) Snapshot() map[string]any {
	snap := map[string]any{
		"lineId":       l.ID.String(),
		"lineNumber":   l.LineNumber,
		"partNumber":   l.PartNumber,
		"orderedQty":   l.OrderedQty,
		"reasonCode":   l.ReasonCode,
		"receivedQty":  l.ReceivedQty,
		"inspectedQty": l.InspectedQty,
		"disposition":  nil,
	}
	if l.Disposition != nil {
		snap["disposition"] = string(*l.Disposition)
	}
	if l.UnitCost != nil {
		snap["unitCost"] = l.UnitCost.String()
	}
	return snap
}

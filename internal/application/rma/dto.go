package rma

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/shopspring/decimal"
)

// LineInput describes a line on a new RMA or a line appended to an RMA
type LineInput struct {
	PartNumber  string
	OrderedQty  int
	ReasonCode  string
	Disposition *rma.Disposition
	UnitCost    *decimal.Decimal
}

func (in LineInput) spec() rma.LineSpec {
	return rma.LineSpec{
		PartNumber:  in.PartNumber,
		OrderedQty:  in.OrderedQty,
		ReasonCode:  in.ReasonCode,
		Disposition: in.Disposition,
		UnitCost:    in.UnitCost,
	}
}

// CreateDraftInput carries the fields of a new draft RMA
type CreateDraftInput struct {
	BranchID   uuid.UUID
	CustomerID *uuid.UUID
	Lines      []LineInput
}

// UpdateLineInput is a partial line update. DispositionSet distinguishes an
// explicit disposition change (including clearing it) from no change.
type UpdateLineInput struct {
	PartNumber     *string
	OrderedQty     *int
	ReasonCode     *string
	UnitCost       *decimal.Decimal
	DispositionSet bool
	Disposition    *rma.Disposition
}

// SplitInput describes one replacement line produced by a split.
// Part number, reason code and unit cost default to the original line's.
type SplitInput struct {
	OrderedQty  int
	ReasonCode  *string
	Disposition *rma.Disposition
}

// QCInspectionInput records the outcome of inspecting one line
type QCInspectionInput struct {
	InspectedQty                int
	QCPass                      *bool
	QCFindings                  *string
	QCDispositionRecommendation *rma.Disposition
}

// LineResponse represents an RMA line in API responses
type LineResponse struct {
	ID                          uuid.UUID        `json:"id"`
	LineNumber                  int              `json:"line_number"`
	PartNumber                  string           `json:"part_number"`
	OrderedQty                  int              `json:"ordered_qty"`
	ReasonCode                  string           `json:"reason_code"`
	Disposition                 *string          `json:"disposition"`
	UnitCost                    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReceivedQty                 int              `json:"received_qty"`
	InspectedQty                int              `json:"inspected_qty"`
	QCInspectedAt               *time.Time       `json:"qc_inspected_at"`
	QCPass                      *bool            `json:"qc_pass,omitempty"`
	QCFindings                  *string          `json:"qc_findings,omitempty"`
	QCDispositionRecommendation *string          `json:"qc_disposition_recommendation,omitempty"`
	FinanceApprovedAt           *time.Time       `json:"finance_approved_at"`
	FinanceApprovedByID         *uuid.UUID       `json:"finance_approved_by_id"`
	CreatedAt                   time.Time        `json:"created_at"`
	UpdatedAt                   time.Time        `json:"updated_at"`
}

// RMAResponse represents an RMA with its lines in API responses
type RMAResponse struct {
	ID                    uuid.UUID      `json:"id"`
	RMANumber             string         `json:"rma_number"`
	BranchID              uuid.UUID      `json:"branch_id"`
	CustomerID            *uuid.UUID     `json:"customer_id"`
	SubmittedByID         *uuid.UUID     `json:"submitted_by_id"`
	AssignedToID          *uuid.UUID     `json:"assigned_to_id"`
	Status                string         `json:"status"`
	RejectionReason       *string        `json:"rejection_reason,omitempty"`
	CancellationReason    *string        `json:"cancellation_reason,omitempty"`
	DisputeReason         *string        `json:"dispute_reason,omitempty"`
	ContestedAt           *time.Time     `json:"contested_at"`
	ContestResolutionNote *string        `json:"contest_resolution_note,omitempty"`
	AllowedTransitions    []string       `json:"allowed_transitions"`
	Lines                 []LineResponse `json:"lines"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// RMAListItemResponse is the summary of an RMA in listings
type RMAListItemResponse struct {
	ID         uuid.UUID  `json:"id"`
	RMANumber  string     `json:"rma_number"`
	BranchID   uuid.UUID  `json:"branch_id"`
	CustomerID *uuid.UUID `json:"customer_id"`
	Status     string     `json:"status"`
	LineCount  int        `json:"line_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CreditApprovalLineResponse is a line awaiting Finance approval
type CreditApprovalLineResponse struct {
	LineResponse
	RMAID        uuid.UUID  `json:"rma_id"`
	RMANumber    string     `json:"rma_number"`
	BranchID     uuid.UUID  `json:"branch_id"`
	CustomerID   *uuid.UUID `json:"customer_id"`
	RMACreatedAt time.Time  `json:"rma_created_at"`
}

// AuditEventResponse represents an audit trail entry
type AuditEventResponse struct {
	ID         uuid.UUID      `json:"id"`
	RMAID      *uuid.UUID     `json:"rma_id,omitempty"`
	RMALineID  *uuid.UUID     `json:"rma_line_id,omitempty"`
	ActorID    uuid.UUID      `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	Action     string         `json:"action"`
	FromStatus *string        `json:"from_status,omitempty"`
	ToStatus   *string        `json:"to_status,omitempty"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// AttachmentResponse represents attachment metadata, with a presigned URL
// when one was requested
type AttachmentResponse struct {
	ID           uuid.UUID  `json:"id"`
	RMAID        uuid.UUID  `json:"rma_id"`
	FileName     string     `json:"file_name"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	UploadedByID uuid.UUID  `json:"uploaded_by_id"`
	CreatedAt    time.Time  `json:"created_at"`
	URL          string     `json:"url,omitempty"`
	URLExpiresAt *time.Time `json:"url_expires_at,omitempty"`
}

func dispositionString(d *rma.Disposition) *string {
	if d == nil {
		return nil
	}
	s := string(*d)
	return &s
}

// ToLineResponse converts a domain line to a response DTO
func ToLineResponse(l *rma.Line) LineResponse {
	return LineResponse{
		ID:                          l.ID,
		LineNumber:                  l.LineNumber,
		PartNumber:                  l.PartNumber,
		OrderedQty:                  l.OrderedQty,
		ReasonCode:                  l.ReasonCode,
		Disposition:                 dispositionString(l.Disposition),
		UnitCost:                    l.UnitCost,
		ReceivedQty:                 l.ReceivedQty,
		InspectedQty:                l.InspectedQty,
		QCInspectedAt:               l.QCInspectedAt,
		QCPass:                      l.QCPass,
		QCFindings:                  l.QCFindings,
		QCDispositionRecommendation: dispositionString(l.QCDispositionRecommendation),
		FinanceApprovedAt:           l.FinanceApprovedAt,
		FinanceApprovedByID:         l.FinanceApprovedByID,
		CreatedAt:                   l.CreatedAt,
		UpdatedAt:                   l.UpdatedAt,
	}
}

// ToRMAResponse converts a domain RMA to a response DTO
func ToRMAResponse(r *rma.RMA) *RMAResponse {
	lines := make([]LineResponse, len(r.Lines))
	for i := range r.Lines {
		lines[i] = ToLineResponse(&r.Lines[i])
	}
	next := r.Status.AllowedTransitions()
	allowed := make([]string, len(next))
	for i, s := range next {
		allowed[i] = string(s)
	}

	return &RMAResponse{
		ID:                    r.ID,
		RMANumber:             r.RMANumber,
		BranchID:              r.BranchID,
		CustomerID:            r.CustomerID,
		SubmittedByID:         r.SubmittedByID,
		AssignedToID:          r.AssignedToID,
		Status:                string(r.Status),
		RejectionReason:       r.RejectionReason,
		CancellationReason:    r.CancellationReason,
		DisputeReason:         r.DisputeReason,
		ContestedAt:           r.ContestedAt,
		ContestResolutionNote: r.ContestResolutionNote,
		AllowedTransitions:    allowed,
		Lines:                 lines,
		CreatedAt:             r.CreatedAt,
		UpdatedAt:             r.UpdatedAt,
	}
}

// ToRMAListItemResponse converts a domain RMA to a listing summary
func ToRMAListItemResponse(r *rma.RMA) RMAListItemResponse {
	return RMAListItemResponse{
		ID:         r.ID,
		RMANumber:  r.RMANumber,
		BranchID:   r.BranchID,
		CustomerID: r.CustomerID,
		Status:     string(r.Status),
		LineCount:  len(r.Lines),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// ToCreditApprovalLineResponse converts a queued credit line to a response DTO
func ToCreditApprovalLineResponse(l *rma.CreditApprovalLine) CreditApprovalLineResponse {
	return CreditApprovalLineResponse{
		LineResponse: ToLineResponse(&l.Line),
		RMAID:        l.RMAID,
		RMANumber:    l.RMANumber,
		BranchID:     l.BranchID,
		CustomerID:   l.CustomerID,
		RMACreatedAt: l.RMACreatedAt,
	}
}

// ToAuditEventResponse converts an audit event to a response DTO
func ToAuditEventResponse(e *audit.Event) AuditEventResponse {
	return AuditEventResponse{
		ID:         e.ID,
		RMAID:      e.RMAID,
		RMALineID:  e.RMALineID,
		ActorID:    e.ActorID,
		ActorRole:  e.ActorRole,
		Action:     e.Action,
		FromStatus: e.FromStatus,
		ToStatus:   e.ToStatus,
		OldValue:   e.OldValue,
		NewValue:   e.NewValue,
		Metadata:   e.Metadata,
		OccurredAt: e.OccurredAt,
	}
}

// ToAttachmentResponse converts attachment metadata to a response DTO
func ToAttachmentResponse(a *attachment.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		RMAID:        a.RMAID,
		FileName:     a.FileName,
		ContentType:  a.ContentType,
		SizeBytes:    a.SizeBytes,
		UploadedByID: a.UploadedByID,
		CreatedAt:    a.CreatedAt,
	}
}

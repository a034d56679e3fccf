package handler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	rmaapp "github.com/rms/backend/internal/application/rma"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/shopspring/decimal"
)

// LineRequest describes one line of a new RMA or an added line
//
//	@Description	RMA line input
type LineRequest struct {
	PartNumber  string           `json:"part_number" binding:"required,notblank,max=100" example:"PN-10023"`
	OrderedQty  int              `json:"ordered_qty" binding:"required,gt=0" example:"4"`
	ReasonCode  string           `json:"reason_code" binding:"required,notblank,max=100" example:"DAMAGED_IN_TRANSIT"`
	Disposition *string          `json:"disposition" binding:"omitempty,disposition" example:"CREDIT"`
	UnitCost    *decimal.Decimal `json:"unit_cost" swaggertype:"string" example:"12.50"`
}

func (r LineRequest) toInput() rmaapp.LineInput {
	return rmaapp.LineInput{
		PartNumber:  r.PartNumber,
		OrderedQty:  r.OrderedQty,
		ReasonCode:  r.ReasonCode,
		Disposition: toDisposition(r.Disposition),
		UnitCost:    r.UnitCost,
	}
}

// CreateRMARequest represents a request to open a draft RMA
//
//	@Description	Request body for creating a draft RMA
type CreateRMARequest struct {
	BranchID   string        `json:"branch_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CustomerID *string       `json:"customer_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Lines      []LineRequest `json:"lines" binding:"omitempty,dive"`
}

func (r CreateRMARequest) toInput() (rmaapp.CreateDraftInput, error) {
	branchID, err := uuid.Parse(r.BranchID)
	if err != nil {
		return rmaapp.CreateDraftInput{}, err
	}
	input := rmaapp.CreateDraftInput{BranchID: branchID}
	if r.CustomerID != nil {
		customerID, err := uuid.Parse(*r.CustomerID)
		if err != nil {
			return rmaapp.CreateDraftInput{}, err
		}
		input.CustomerID = &customerID
	}
	for _, l := range r.Lines {
		input.Lines = append(input.Lines, l.toInput())
	}
	return input, nil
}

// OptionalDisposition tells an explicit null apart from an absent key
type OptionalDisposition struct {
	Set   bool
	Value *rma.Disposition
}

// UnmarshalJSON implements json.Unmarshaler
func (o *OptionalDisposition) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	d := rma.Disposition(s)
	if !d.IsValid() {
		return fmt.Errorf("invalid disposition %q", s)
	}
	o.Value = &d
	return nil
}

// UpdateLineRequest is a partial line update; omitted fields are unchanged
//
//	@Description	Request body for updating an RMA line
type UpdateLineRequest struct {
	PartNumber  *string             `json:"part_number" binding:"omitempty,notblank,max=100" example:"PN-10024"`
	OrderedQty  *int                `json:"ordered_qty" binding:"omitempty,gt=0" example:"3"`
	ReasonCode  *string             `json:"reason_code" binding:"omitempty,notblank,max=100" example:"WRONG_PART"`
	UnitCost    *decimal.Decimal    `json:"unit_cost" swaggertype:"string" example:"9.75"`
	Disposition OptionalDisposition `json:"disposition" swaggertype:"string" example:"REPLACEMENT"`
}

func (r UpdateLineRequest) toInput() rmaapp.UpdateLineInput {
	return rmaapp.UpdateLineInput{
		PartNumber:     r.PartNumber,
		OrderedQty:     r.OrderedQty,
		ReasonCode:     r.ReasonCode,
		UnitCost:       r.UnitCost,
		DispositionSet: r.Disposition.Set,
		Disposition:    r.Disposition.Value,
	}
}

// SplitTargetRequest is one line produced by a split
//
//	@Description	Split target line
type SplitTargetRequest struct {
	OrderedQty  int     `json:"ordered_qty" binding:"required,gt=0" example:"2"`
	ReasonCode  *string `json:"reason_code" binding:"omitempty,notblank,max=100" example:"DEFECTIVE"`
	Disposition *string `json:"disposition" binding:"omitempty,disposition" example:"SCRAP"`
}

// SplitLineRequest replaces a line by two or more lines with the same total quantity
//
//	@Description	Request body for splitting an RMA line
type SplitLineRequest struct {
	Splits []SplitTargetRequest `json:"splits" binding:"required,min=2,dive"`
}

func (r SplitLineRequest) toInput() []rmaapp.SplitInput {
	out := make([]rmaapp.SplitInput, len(r.Splits))
	for i, s := range r.Splits {
		out[i] = rmaapp.SplitInput{
			OrderedQty:  s.OrderedQty,
			ReasonCode:  s.ReasonCode,
			Disposition: toDisposition(s.Disposition),
		}
	}
	return out
}

// ReceiptRequest records the quantity physically received for a line
//
//	@Description	Request body for recording a receipt
type ReceiptRequest struct {
	ReceivedQty *int `json:"received_qty" binding:"required,gte=0" example:"4"`
}

// QCInspectionRequest records the inspection outcome of a line
//
//	@Description	Request body for recording a QC inspection
type QCInspectionRequest struct {
	InspectedQty                *int    `json:"inspected_qty" binding:"required,gte=0" example:"4"`
	QCPass                      *bool   `json:"qc_pass" example:"true"`
	QCFindings                  *string `json:"qc_findings" binding:"omitempty,max=2000" example:"Casing cracked"`
	QCDispositionRecommendation *string `json:"qc_disposition_recommendation" binding:"omitempty,disposition" example:"SCRAP"`
}

func (r QCInspectionRequest) toInput() rmaapp.QCInspectionInput {
	return rmaapp.QCInspectionInput{
		InspectedQty:                *r.InspectedQty,
		QCPass:                      r.QCPass,
		QCFindings:                  r.QCFindings,
		QCDispositionRecommendation: toDisposition(r.QCDispositionRecommendation),
	}
}

// ReasonRequest carries the mandatory free text of reject, cancel and contest
//
//	@Description	Request body carrying a reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,notblank,max=2000" example:"Serial number does not match the order"`
}

// NoteRequest carries the mandatory note of info-required, overturn and uphold
//
//	@Description	Request body carrying a note
type NoteRequest struct {
	Note string `json:"note" binding:"required,notblank,max=2000" example:"Please attach photos of the damage"`
}

// CommentRequest carries a comment body
//
//	@Description	Request body for adding a comment
type CommentRequest struct {
	Body string `json:"body" binding:"required,notblank,max=4000" example:"Customer called about the delay"`
}

// RegisterAttachmentRequest describes a file about to be uploaded
//
//	@Description	Request body for registering an attachment
type RegisterAttachmentRequest struct {
	FileName    string `json:"file_name" binding:"required,notblank,max=255" example:"damage.jpg"`
	ContentType string `json:"content_type" binding:"required" example:"image/jpeg"`
	SizeBytes   int64  `json:"size_bytes" binding:"required,gt=0" example:"204800"`
}

// AssignRequest sets or clears the assignee; a null assignee_id unassigns
//
//	@Description	Request body for assigning an RMA
type AssignRequest struct {
	AssigneeID *string `json:"assignee_id" binding:"omitempty,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
}

func toDisposition(s *string) *rma.Disposition {
	if s == nil {
		return nil
	}
	d := rma.Disposition(*s)
	return &d
}

// Package fulfillment describes the contract with the external ERP (MERP)
// that issues credit memos and replacement orders for resolved RMAs.
package fulfillment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OperationType identifies an adapter call in the integration log
type OperationType string

const (
	OperationCreditMemo       OperationType = "CREDIT_MEMO"
	OperationReplacementOrder OperationType = "REPLACEMENT_ORDER"
)

// ResultStatus is the outcome reported by the adapter
type ResultStatus string

const (
	ResultCreated ResultStatus = "CREATED"
	ResultStub    ResultStatus = "STUB"
	ResultFailed  ResultStatus = "FAILED"
)

// Result is the structured outcome of an adapter call
type Result struct {
	Success      bool         `json:"success"`
	ReferenceID  *string      `json:"referenceId"`
	Status       ResultStatus `json:"status"`
	ErrorCode    *string      `json:"errorCode,omitempty"`
	ErrorMessage *string      `json:"errorMessage,omitempty"`
}

// CreditMemoLine is one credited line
type CreditMemoLine struct {
	LineNumber       int             `json:"lineNumber"`
	PartNumber       string          `json:"partNumber"`
	QuantityApproved int             `json:"quantityApproved"`
	UnitCost         decimal.Decimal `json:"unitCost"`
	CreditReason     string          `json:"creditReason"`
}

// CreditMemoPayload requests a credit memo for an RMA
type CreditMemoPayload struct {
	RMAID                 uuid.UUID        `json:"rmaId"`
	RMANumber             string           `json:"rmaNumber"`
	CustomerAccountNumber string           `json:"customerAccountNumber"`
	Lines                 []CreditMemoLine `json:"lines"`
	RequestedBy           string           `json:"requestedBy"`
}

// Address is a ship-to address for replacement orders
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// ReplacementOrderLine is one line to ship as a replacement
type ReplacementOrderLine struct {
	LineNumber       int             `json:"lineNumber"`
	PartNumber       string          `json:"partNumber"`
	QuantityApproved int             `json:"quantityApproved"`
	UnitCost         decimal.Decimal `json:"unitCost"`
}

// ReplacementOrderPayload requests a replacement order for an RMA
type ReplacementOrderPayload struct {
	RMAID                 uuid.UUID              `json:"rmaId"`
	RMANumber             string                 `json:"rmaNumber"`
	CustomerAccountNumber string                 `json:"customerAccountNumber"`
	ShipToAddress         *Address               `json:"shipToAddress,omitempty"`
	Lines                 []ReplacementOrderLine `json:"lines"`
	RequestedBy           string                 `json:"requestedBy"`
}

// Adapter issues fulfillment documents in the external ERP.
// Exactly one implementation is active per process.
type Adapter interface {
	CreateCreditMemo(ctx context.Context, payload CreditMemoPayload) (Result, error)
	CreateReplacementOrder(ctx context.Context, payload ReplacementOrderPayload) (Result, error)
}

// IntegrationLog records one adapter call for reconciliation
type IntegrationLog struct {
	ID              uuid.UUID
	RMAID           uuid.UUID
	OperationType   OperationType
	RequestPayload  []byte
	ResponsePayload []byte
	ReferenceID     *string
	Status          ResultStatus
	CreatedAt       time.Time
}

// IntegrationLogRepository persists integration log rows
type IntegrationLogRepository interface {
	Create(ctx context.Context, log *IntegrationLog) error
	FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]IntegrationLog, error)
}

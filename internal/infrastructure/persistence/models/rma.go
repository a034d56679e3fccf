package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/shopspring/decimal"
)

// RMAModel is the persistence model for the RMA aggregate root
type RMAModel struct {
	BaseModel
	RMANumber             string     `gorm:"type:varchar(32);not null;uniqueIndex"`
	BranchID              uuid.UUID  `gorm:"type:uuid;not null;index:idx_rmas_branch_status_created,priority:1"`
	CustomerID            *uuid.UUID `gorm:"type:uuid;index"`
	SubmittedByID         *uuid.UUID `gorm:"type:uuid"`
	AssignedToID          *uuid.UUID `gorm:"type:uuid;index"`
	Status                rma.Status `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_rmas_branch_status_created,priority:2"`
	RejectionReason       *string    `gorm:"type:text"`
	CancellationReason    *string    `gorm:"type:text"`
	DisputeReason         *string    `gorm:"type:text"`
	ContestedAt           *time.Time
	ContestResolutionNote *string        `gorm:"type:text"`
	Lines                 []RMALineModel `gorm:"foreignKey:RMAID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (RMAModel) TableName() string {
	return "rmas"
}

// ToDomain converts the persistence model to a domain RMA, including any loaded lines
func (m *RMAModel) ToDomain() *rma.RMA {
	r := &rma.RMA{
		BaseEntity:            m.BaseModel.ToDomain(),
		RMANumber:             m.RMANumber,
		BranchID:              m.BranchID,
		CustomerID:            m.CustomerID,
		SubmittedByID:         m.SubmittedByID,
		AssignedToID:          m.AssignedToID,
		Status:                m.Status,
		RejectionReason:       m.RejectionReason,
		CancellationReason:    m.CancellationReason,
		DisputeReason:         m.DisputeReason,
		ContestedAt:           m.ContestedAt,
		ContestResolutionNote: m.ContestResolutionNote,
		Lines:                 make([]rma.Line, len(m.Lines)),
	}
	for i := range m.Lines {
		r.Lines[i] = m.Lines[i].ToDomain()
	}
	return r
}

// RMAModelFromDomain creates a persistence model, lines included, from a domain RMA
func RMAModelFromDomain(r *rma.RMA) *RMAModel {
	m := &RMAModel{
		RMANumber:             r.RMANumber,
		BranchID:              r.BranchID,
		CustomerID:            r.CustomerID,
		SubmittedByID:         r.SubmittedByID,
		AssignedToID:          r.AssignedToID,
		Status:                r.Status,
		RejectionReason:       r.RejectionReason,
		CancellationReason:    r.CancellationReason,
		DisputeReason:         r.DisputeReason,
		ContestedAt:           r.ContestedAt,
		ContestResolutionNote: r.ContestResolutionNote,
		Lines:                 make([]RMALineModel, len(r.Lines)),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	for i := range r.Lines {
		m.Lines[i] = *RMALineModelFromDomain(&r.Lines[i])
	}
	return m
}

// RMALineModel is the persistence model for one RMA line
type RMALineModel struct {
	ID                          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	RMAID                       uuid.UUID        `gorm:"type:uuid;not null;index"`
	LineNumber                  int              `gorm:"not null"`
	PartNumber                  string           `gorm:"type:varchar(100);not null"`
	OrderedQty                  int              `gorm:"not null"`
	ReasonCode                  string           `gorm:"type:varchar(100);not null"`
	Disposition                 *rma.Disposition `gorm:"type:varchar(20);index"`
	UnitCost                    *decimal.Decimal `gorm:"type:numeric(18,4)"`
	ReceivedQty                 int              `gorm:"not null;default:0"`
	InspectedQty                int              `gorm:"not null;default:0"`
	QCInspectedAt               *time.Time
	QCPass                      *bool
	QCFindings                  *string          `gorm:"type:text"`
	QCDispositionRecommendation *rma.Disposition `gorm:"type:varchar(20)"`
	FinanceApprovedAt           *time.Time
	FinanceApprovedByID         *uuid.UUID `gorm:"type:uuid"`
	CreatedAt                   time.Time  `gorm:"not null"`
	UpdatedAt                   time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RMALineModel) TableName() string {
	return "rma_lines"
}

// ToDomain converts the persistence model to a domain line
func (m *RMALineModel) ToDomain() rma.Line {
	return rma.Line{
		ID:                          m.ID,
		RMAID:                       m.RMAID,
		LineNumber:                  m.LineNumber,
		PartNumber:                  m.PartNumber,
		OrderedQty:                  m.OrderedQty,
		ReasonCode:                  m.ReasonCode,
		Disposition:                 m.Disposition,
		UnitCost:                    m.UnitCost,
		ReceivedQty:                 m.ReceivedQty,
		InspectedQty:                m.InspectedQty,
		QCInspectedAt:               m.QCInspectedAt,
		QCPass:                      m.QCPass,
		QCFindings:                  m.QCFindings,
		QCDispositionRecommendation: m.QCDispositionRecommendation,
		FinanceApprovedAt:           m.FinanceApprovedAt,
		FinanceApprovedByID:         m.FinanceApprovedByID,
		CreatedAt:                   m.CreatedAt,
		UpdatedAt:                   m.UpdatedAt,
	}
}

// RMALineModelFromDomain creates a persistence model from a domain line
func RMALineModelFromDomain(l *rma.Line) *RMALineModel {
	return &RMALineModel{
		ID:                          l.ID,
		RMAID:                       l.RMAID,
		LineNumber:                  l.LineNumber,
		PartNumber:                  l.PartNumber,
		OrderedQty:                  l.OrderedQty,
		ReasonCode:                  l.ReasonCode,
		Disposition:                 l.Disposition,
		UnitCost:                    l.UnitCost,
		ReceivedQty:                 l.ReceivedQty,
		InspectedQty:                l.InspectedQty,
		QCInspectedAt:               l.QCInspectedAt,
		QCPass:                      l.QCPass,
		QCFindings:                  l.QCFindings,
		QCDispositionRecommendation: l.QCDispositionRecommendation,
		FinanceApprovedAt:           l.FinanceApprovedAt,
		FinanceApprovedByID:         l.FinanceApprovedByID,
		CreatedAt:                   l.CreatedAt,
		UpdatedAt:                   l.UpdatedAt,
	}
}

// CreditApprovalLineRow is the projection scanned by the credit approval queue
type CreditApprovalLineRow struct {
	RMALineModel
	RMANumber    string
	BranchID     uuid.UUID
	CustomerID   *uuid.UUID
	RMACreatedAt time.Time
}

// ToDomain converts the row to a domain credit approval line
func (r *CreditApprovalLineRow) ToDomain() rma.CreditApprovalLine {
	return rma.CreditApprovalLine{
		Line:         r.RMALineModel.ToDomain(),
		RMANumber:    r.RMANumber,
		BranchID:     r.BranchID,
		CustomerID:   r.CustomerID,
		RMACreatedAt: r.RMACreatedAt,
	}
}

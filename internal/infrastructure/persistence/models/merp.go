package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/fulfillment"
)

// MERPIntegrationLogModel records one fulfillment adapter call
type MERPIntegrationLogModel struct {
	ID              uuid.UUID                 `gorm:"type:uuid;primaryKey"`
	RMAID           uuid.UUID                 `gorm:"type:uuid;not null;index"`
	OperationType   fulfillment.OperationType `gorm:"type:varchar(32);not null"`
	RequestPayload  []byte                    `gorm:"type:jsonb;not null"`
	ResponsePayload []byte                    `gorm:"type:jsonb"`
	ReferenceID     *string                   `gorm:"type:varchar(128)"`
	Status          fulfillment.ResultStatus  `gorm:"type:varchar(20);not null"`
	CreatedAt       time.Time                 `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MERPIntegrationLogModel) TableName() string {
	return "merp_integration_logs"
}

// ToDomain converts the persistence model to a domain integration log
func (m *MERPIntegrationLogModel) ToDomain() fulfillment.IntegrationLog {
	return fulfillment.IntegrationLog{
		ID:              m.ID,
		RMAID:           m.RMAID,
		OperationType:   m.OperationType,
		RequestPayload:  m.RequestPayload,
		ResponsePayload: m.ResponsePayload,
		ReferenceID:     m.ReferenceID,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
	}
}

// MERPIntegrationLogModelFromDomain creates a persistence model from a domain log
func MERPIntegrationLogModelFromDomain(l *fulfillment.IntegrationLog) *MERPIntegrationLogModel {
	return &MERPIntegrationLogModel{
		ID:              l.ID,
		RMAID:           l.RMAID,
		OperationType:   l.OperationType,
		RequestPayload:  l.RequestPayload,
		ResponsePayload: l.ResponsePayload,
		ReferenceID:     l.ReferenceID,
		Status:          l.Status,
		CreatedAt:       l.CreatedAt,
	}
}

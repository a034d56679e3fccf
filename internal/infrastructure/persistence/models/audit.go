package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/audit"
)

// AuditEventModel is an append-only audit row
type AuditEventModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RMAID      *uuid.UUID `gorm:"type:uuid;index:idx_audit_events_rma_occurred,priority:1"`
	RMALineID  *uuid.UUID `gorm:"type:uuid"`
	ActorID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	ActorRole  string     `gorm:"type:varchar(32);not null"`
	Action     string     `gorm:"type:varchar(64);not null;index"`
	FromStatus *string    `gorm:"type:varchar(20)"`
	ToStatus   *string    `gorm:"type:varchar(20)"`
	OldValue   JSONMap    `gorm:"type:jsonb"`
	NewValue   JSONMap    `gorm:"type:jsonb"`
	Metadata   JSONMap    `gorm:"type:jsonb"`
	IPAddress  *string    `gorm:"type:varchar(64)"`
	OccurredAt time.Time  `gorm:"not null;index:idx_audit_events_rma_occurred,priority:2"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string {
	return "audit_events"
}

// ToDomain converts the persistence model to a domain audit event
func (m *AuditEventModel) ToDomain() audit.Event {
	return audit.Event{
		ID: m.ID,
		Entry: audit.Entry{
			RMAID:      m.RMAID,
			RMALineID:  m.RMALineID,
			ActorID:    m.ActorID,
			ActorRole:  m.ActorRole,
			Action:     m.Action,
			FromStatus: m.FromStatus,
			ToStatus:   m.ToStatus,
			OldValue:   m.OldValue,
			NewValue:   m.NewValue,
			Metadata:   m.Metadata,
			IPAddress:  m.IPAddress,
		},
		OccurredAt: m.OccurredAt,
	}
}

// AuditEventModelFromEntry builds a new row for entry with a fresh ID
func AuditEventModelFromEntry(entry audit.Entry, occurredAt time.Time) *AuditEventModel {
	return &AuditEventModel{
		ID:         uuid.New(),
		RMAID:      entry.RMAID,
		RMALineID:  entry.RMALineID,
		ActorID:    entry.ActorID,
		ActorRole:  entry.ActorRole,
		Action:     entry.Action,
		FromStatus: entry.FromStatus,
		ToStatus:   entry.ToStatus,
		OldValue:   entry.OldValue,
		NewValue:   entry.NewValue,
		Metadata:   entry.Metadata,
		IPAddress:  entry.IPAddress,
		OccurredAt: occurredAt,
	}
}

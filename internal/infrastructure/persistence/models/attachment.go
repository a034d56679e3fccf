package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/attachment"
)

// AttachmentModel stores attachment metadata; the body lives in object storage
type AttachmentModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	RMAID        uuid.UUID `gorm:"type:uuid;not null;index"`
	FileName     string    `gorm:"type:varchar(255);not null"`
	ContentType  string    `gorm:"type:varchar(100);not null"`
	SizeBytes    int64     `gorm:"not null"`
	StorageKey   string    `gorm:"type:varchar(512);not null;uniqueIndex"`
	UploadedByID uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "rma_attachments"
}

// ToDomain converts the persistence model to a domain attachment
func (m *AttachmentModel) ToDomain() attachment.Attachment {
	return attachment.Attachment{
		ID:           m.ID,
		RMAID:        m.RMAID,
		FileName:     m.FileName,
		ContentType:  m.ContentType,
		SizeBytes:    m.SizeBytes,
		StorageKey:   m.StorageKey,
		UploadedByID: m.UploadedByID,
		CreatedAt:    m.CreatedAt,
	}
}

// AttachmentModelFromDomain creates a persistence model from a domain attachment
func AttachmentModelFromDomain(a *attachment.Attachment) *AttachmentModel {
	return &AttachmentModel{
		ID:           a.ID,
		RMAID:        a.RMAID,
		FileName:     a.FileName,
		ContentType:  a.ContentType,
		SizeBytes:    a.SizeBytes,
		StorageKey:   a.StorageKey,
		UploadedByID: a.UploadedByID,
		CreatedAt:    a.CreatedAt,
	}
}

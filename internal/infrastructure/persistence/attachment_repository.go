package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/attachment"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements attachment.Repository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// Create inserts attachment metadata
func (r *GormAttachmentRepository) Create(ctx context.Context, a *attachment.Attachment) error {
	return r.db.WithContext(ctx).Create(models.AttachmentModelFromDomain(a)).Error
}

// FindByID finds an attachment of the given RMA; nil when absent
func (r *GormAttachmentRepository) FindByID(ctx context.Context, rmaID, id uuid.UUID) (*attachment.Attachment, error) {
	var model models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND rma_id = ?", id, rmaID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	a := model.ToDomain()
	return &a, nil
}

// FindByRMA lists an RMA's attachments, oldest first
func (r *GormAttachmentRepository) FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]attachment.Attachment, error) {
	var rows []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("rma_id = ?", rmaID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]attachment.Attachment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ attachment.Repository = (*GormAttachmentRepository)(nil)

package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/fulfillment"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormIntegrationLogRepository persists fulfillment adapter calls
type GormIntegrationLogRepository struct {
	db *gorm.DB
}

// NewGormIntegrationLogRepository creates a new GormIntegrationLogRepository
func NewGormIntegrationLogRepository(db *gorm.DB) *GormIntegrationLogRepository {
	return &GormIntegrationLogRepository{db: db}
}

// Create inserts one log row
func (r *GormIntegrationLogRepository) Create(ctx context.Context, log *fulfillment.IntegrationLog) error {
	return r.db.WithContext(ctx).Create(models.MERPIntegrationLogModelFromDomain(log)).Error
}

// FindByRMA lists an RMA's adapter calls, oldest first
func (r *GormIntegrationLogRepository) FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]fulfillment.IntegrationLog, error) {
	var rows []models.MERPIntegrationLogModel
	if err := r.db.WithContext(ctx).
		Where("rma_id = ?", rmaID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]fulfillment.IntegrationLog, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ fulfillment.IntegrationLogRepository = (*GormIntegrationLogRepository)(nil)

package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/infrastructure/logger"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormAuditRepository appends and reads audit events.
// As a Recorder it must be bound to the transaction of the change it records.
type GormAuditRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record inserts one event stamped with the server clock
func (r *GormAuditRepository) Record(ctx context.Context, entry audit.Entry) (*audit.Event, error) {
	if entry.Action == "" {
		return nil, fmt.Errorf("audit entry without action")
	}
	if !audit.IsKnownAction(entry.Action) {
		logger.FromContext(ctx).Warn("Recording unknown audit action", zap.String("action", entry.Action))
	}
	model := models.AuditEventModelFromEntry(entry, r.now())
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return nil, fmt.Errorf("record audit event %s: %w", entry.Action, err)
	}
	event := model.ToDomain()
	return &event, nil
}

// FindByRMA returns the RMA's events in occurrence order
func (r *GormAuditRepository) FindByRMA(ctx context.Context, rmaID uuid.UUID) ([]audit.Event, error) {
	var rows []models.AuditEventModel
	if err := r.db.WithContext(ctx).
		Where("rma_id = ?", rmaID).
		Order("occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	events := make([]audit.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].ToDomain()
	}
	return events, nil
}

// Ensure GormAuditRepository implements the audit ports
var (
	_ audit.Recorder = (*GormAuditRepository)(nil)
	_ audit.Reader   = (*GormAuditRepository)(nil)
)

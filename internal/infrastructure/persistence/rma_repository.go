package persistence

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/rma"
	"github.com/rms/backend/internal/infrastructure/persistence/datascope"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRMARepository implements rma.Reader, and rma.Store when bound to a transaction
type GormRMARepository struct {
	db *gorm.DB
}

// NewGormRMARepository creates a new GormRMARepository
func NewGormRMARepository(db *gorm.DB) *GormRMARepository {
	return &GormRMARepository{db: db}
}

func withOrderedLines(db *gorm.DB) *gorm.DB {
	return db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("rma_lines.line_number ASC")
	})
}

// first loads one RMA with lines; nil when no row matches
func (r *GormRMARepository) first(query *gorm.DB) (*rma.RMA, error) {
	var model models.RMAModel
	if err := withOrderedLines(query).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByID finds an RMA with its lines
func (r *GormRMARepository) FindByID(ctx context.Context, id uuid.UUID) (*rma.RMA, error) {
	return r.first(r.db.WithContext(ctx).Where("rmas.id = ?", id))
}

// FindByIDForUpdate loads the RMA and takes a row lock on its header
func (r *GormRMARepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*rma.RMA, error) {
	return r.first(r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("rmas.id = ?", id))
}

// FindByIDBranchScoped finds an RMA only when it is owned by a branch visible to actor
func (r *GormRMARepository) FindByIDBranchScoped(ctx context.Context, actor identity.Actor, id uuid.UUID) (*rma.RMA, error) {
	return r.first(r.db.WithContext(ctx).
		Scopes(datascope.Branches(identity.BranchScopeFor(actor), datascope.DefaultBranchColumn)).
		Where("rmas.id = ?", id))
}

// FindManyBranchScoped lists visible RMAs, newest first
func (r *GormRMARepository) FindManyBranchScoped(ctx context.Context, actor identity.Actor, filter rma.ListFilter) ([]rma.RMA, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RMAModel{}).
		Scopes(datascope.Branches(datascope.ForActor(actor, filter.BranchID), datascope.DefaultBranchColumn))
	if filter.Status != nil {
		query = query.Where("rmas.status = ?", *filter.Status)
	}
	return r.page(query, "rmas.created_at DESC", filter.Page.Take, filter.Page.Skip)
}

// approvalQueueStatuses are the statuses awaiting a branch manager decision
var approvalQueueStatuses = []rma.Status{rma.StatusSubmitted, rma.StatusContested}

// FindForApprovalQueue lists visible SUBMITTED and CONTESTED RMAs, oldest first
func (r *GormRMARepository) FindForApprovalQueue(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) ([]rma.RMA, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RMAModel{}).
		Scopes(datascope.Branches(datascope.ForActor(actor, filter.BranchID), datascope.DefaultBranchColumn))
	statuses := approvalQueueStatuses
	if filter.Status != nil {
		if !slices.Contains(approvalQueueStatuses, *filter.Status) {
			return []rma.RMA{}, 0, nil
		}
		statuses = []rma.Status{*filter.Status}
	}
	query = query.Where("rmas.status IN ?", statuses)
	return r.page(query, "rmas.created_at ASC", filter.Page.Take, filter.Page.Skip)
}

func (r *GormRMARepository) page(query *gorm.DB, order string, take, skip int) ([]rma.RMA, int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.RMAModel
	if err := withOrderedLines(query.Session(&gorm.Session{})).
		Order(order).
		Offset(skip).
		Limit(take).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]rma.RMA, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindCreditApprovalLines lists unapproved CREDIT lines on visible QC_COMPLETE RMAs
func (r *GormRMARepository) FindCreditApprovalLines(ctx context.Context, actor identity.Actor, filter rma.QueueFilter) ([]rma.CreditApprovalLine, int64, error) {
	if filter.Status != nil && *filter.Status != rma.StatusQCComplete {
		return []rma.CreditApprovalLine{}, 0, nil
	}
	query := r.db.WithContext(ctx).
		Table("rma_lines").
		Joins("JOIN rmas ON rmas.id = rma_lines.rma_id").
		Scopes(datascope.Branches(datascope.ForActor(actor, filter.BranchID), datascope.DefaultBranchColumn)).
		Where("rma_lines.disposition = ?", rma.DispositionCredit).
		Where("rma_lines.finance_approved_at IS NULL").
		Where("rmas.status = ?", rma.StatusQCComplete)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CreditApprovalLineRow
	if err := query.Session(&gorm.Session{}).
		Select("rma_lines.*, rmas.rma_number, rmas.branch_id, rmas.customer_id, rmas.created_at AS rma_created_at").
		Order("rmas.created_at ASC, rma_lines.line_number ASC").
		Offset(filter.Page.Skip).
		Limit(filter.Page.Take).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]rma.CreditApprovalLine, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, total, nil
}

// CountNumbersWithPrefix counts RMA numbers that start with prefix
func (r *GormRMARepository) CountNumbersWithPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.RMAModel{}).
		Where("rma_number LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// GenerateRMANumber returns count+1 within the month of now. Concurrent callers
// can compute the same number; the unique index rejects the loser.
func (r *GormRMARepository) GenerateRMANumber(ctx context.Context, now time.Time) (string, error) {
	count, err := r.CountNumbersWithPrefix(ctx, rma.NumberPrefix(now))
	if err != nil {
		return "", fmt.Errorf("count rma numbers: %w", err)
	}
	return rma.FormatNumber(now, count+1), nil
}

// CreateRMA inserts the header and all lines
func (r *GormRMARepository) CreateRMA(ctx context.Context, a *rma.RMA) error {
	err := r.db.WithContext(ctx).Create(models.RMAModelFromDomain(a)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return rma.ErrNumberConflict
	}
	return err
}

// UpdateStatus sets the RMA status
func (r *GormRMARepository) UpdateStatus(ctx context.Context, id uuid.UUID, status rma.Status, now time.Time) error {
	return r.updateHeader(ctx, id, map[string]any{"status": status, "updated_at": now})
}

// UpdateRMA applies a partial header patch
func (r *GormRMARepository) UpdateRMA(ctx context.Context, id uuid.UUID, patch rma.Patch, now time.Time) error {
	updates := map[string]any{"updated_at": now}
	if patch.RejectionReason != nil {
		updates["rejection_reason"] = *patch.RejectionReason
	}
	if patch.CancellationReason != nil {
		updates["cancellation_reason"] = *patch.CancellationReason
	}
	if patch.DisputeReason != nil {
		updates["dispute_reason"] = *patch.DisputeReason
	}
	if patch.ContestedAt != nil {
		updates["contested_at"] = *patch.ContestedAt
	}
	if patch.ContestResolutionNote != nil {
		updates["contest_resolution_note"] = *patch.ContestResolutionNote
	}
	switch {
	case patch.ClearAssignee:
		updates["assigned_to_id"] = nil
	case patch.AssignedToID != nil:
		updates["assigned_to_id"] = *patch.AssignedToID
	}
	return r.updateHeader(ctx, id, updates)
}

func (r *GormRMARepository) updateHeader(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.RMAModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return rma.ErrRMANotFound
	}
	return nil
}

// AddLine inserts a line
func (r *GormRMARepository) AddLine(ctx context.Context, line *rma.Line) error {
	return r.db.WithContext(ctx).Create(models.RMALineModelFromDomain(line)).Error
}

// UpdateLine applies a partial line patch
func (r *GormRMARepository) UpdateLine(ctx context.Context, lineID uuid.UUID, patch rma.LinePatch, now time.Time) error {
	updates := map[string]any{"updated_at": now}
	if patch.PartNumber != nil {
		updates["part_number"] = *patch.PartNumber
	}
	if patch.OrderedQty != nil {
		updates["ordered_qty"] = *patch.OrderedQty
	}
	if patch.ReasonCode != nil {
		updates["reason_code"] = *patch.ReasonCode
	}
	if patch.UnitCost != nil {
		updates["unit_cost"] = *patch.UnitCost
	}
	if patch.DispositionSet {
		if patch.Disposition == nil {
			updates["disposition"] = nil
		} else {
			updates["disposition"] = *patch.Disposition
		}
	}
	if patch.ClearFinanceApproval {
		updates["finance_approved_at"] = nil
		updates["finance_approved_by_id"] = nil
	}
	return r.updateLine(ctx, lineID, updates)
}

// RemoveLine deletes a line
func (r *GormRMARepository) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", lineID).Delete(&models.RMALineModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return rma.ErrLineNotFound
	}
	return nil
}

// UpdateLineReceipt sets the received quantity
func (r *GormRMARepository) UpdateLineReceipt(ctx context.Context, lineID uuid.UUID, receivedQty int, now time.Time) error {
	return r.updateLine(ctx, lineID, map[string]any{"received_qty": receivedQty, "updated_at": now})
}

// UpdateLineQC records a QC inspection result
func (r *GormRMARepository) UpdateLineQC(ctx context.Context, lineID uuid.UUID, result rma.QCResult, now time.Time) error {
	updates := map[string]any{
		"inspected_qty":   result.InspectedQty,
		"qc_inspected_at": result.InspectedAt,
		"updated_at":      now,
	}
	if result.QCPass != nil {
		updates["qc_pass"] = *result.QCPass
	}
	if result.QCFindings != nil {
		updates["qc_findings"] = *result.QCFindings
	}
	if result.QCDispositionRecommendation != nil {
		updates["qc_disposition_recommendation"] = *result.QCDispositionRecommendation
	}
	return r.updateLine(ctx, lineID, updates)
}

// UpdateLineFinanceApproval stamps Finance approval on a line
func (r *GormRMARepository) UpdateLineFinanceApproval(ctx context.Context, lineID, approverID uuid.UUID, approvedAt time.Time) error {
	return r.updateLine(ctx, lineID, map[string]any{
		"finance_approved_at":    approvedAt,
		"finance_approved_by_id": approverID,
		"updated_at":             approvedAt,
	})
}

func (r *GormRMARepository) updateLine(ctx context.Context, lineID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.RMALineModel{}).Where("id = ?", lineID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return rma.ErrLineNotFound
	}
	return nil
}

// Ensure GormRMARepository implements the RMA store ports
var (
	_ rma.Reader = (*GormRMARepository)(nil)
	_ rma.Store  = (*GormRMARepository)(nil)
)

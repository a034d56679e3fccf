package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrPortalUserTaken is returned when a portal identity is already provisioned
var ErrPortalUserTaken = shared.NewDomainError(shared.CodeConflict, "Portal user is already provisioned")

// GormUserRepository implements identity.UserReader, and identity.UserWriter inside a transaction
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) first(query *gorm.DB) (*identity.User, error) {
	var model models.UserModel
	if err := query.Preload("BranchRoles").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPortalUserID finds a user by the portal's subject claim
func (r *GormUserRepository) FindByPortalUserID(ctx context.Context, portalUserID string) (*identity.User, error) {
	if portalUserID == "" {
		return nil, nil
	}
	return r.first(r.db.WithContext(ctx).Where("portal_user_id = ?", portalUserID))
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// List returns users ordered by email
func (r *GormUserRepository) List(ctx context.Context, page shared.Page) ([]identity.User, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.UserModel
	if err := r.db.WithContext(ctx).
		Preload("BranchRoles").
		Order("email ASC").
		Offset(page.Skip).
		Limit(page.Take).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

// Create inserts the user and its branch roles
func (r *GormUserRepository) Create(ctx context.Context, user *identity.User) error {
	err := r.db.WithContext(ctx).Create(models.UserModelFromDomain(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrPortalUserTaken
	}
	return err
}

// UpsertBranchRole assigns role on a branch, replacing the existing assignment there
func (r *GormUserRepository) UpsertBranchRole(ctx context.Context, userID uuid.UUID, role identity.BranchRole) error {
	row := models.UserBranchRoleModel{
		UserID:    userID,
		BranchID:  role.BranchID,
		Role:      role.Role,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "branch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
}

// DeleteBranchRole removes the user's assignment on branchID
func (r *GormUserRepository) DeleteBranchRole(ctx context.Context, userID, branchID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND branch_id = ?", userID, branchID).
		Delete(&models.UserBranchRoleModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormUserRepository implements the identity ports
var (
	_ identity.UserReader = (*GormUserRepository)(nil)
	_ identity.UserWriter = (*GormUserRepository)(nil)
)

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/identity"
)

// UserModel is the persistence model for an RMS user
type UserModel struct {
	BaseModel
	PortalUserID string                `gorm:"type:varchar(128);not null;uniqueIndex"`
	Email        string                `gorm:"type:varchar(200);not null"`
	DisplayName  string                `gorm:"type:varchar(200)"`
	BranchRoles  []UserBranchRoleModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User, including loaded branch roles
func (m *UserModel) ToDomain() *identity.User {
	u := &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		PortalUserID: m.PortalUserID,
		Email:        m.Email,
		DisplayName:  m.DisplayName,
		BranchRoles:  make([]identity.BranchRole, len(m.BranchRoles)),
	}
	for i, br := range m.BranchRoles {
		u.BranchRoles[i] = identity.BranchRole{BranchID: br.BranchID, Role: br.Role}
	}
	return u
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		PortalUserID: u.PortalUserID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		BranchRoles:  make([]UserBranchRoleModel, len(u.BranchRoles)),
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	for i, br := range u.BranchRoles {
		m.BranchRoles[i] = UserBranchRoleModel{
			UserID:    u.ID,
			BranchID:  br.BranchID,
			Role:      br.Role,
			CreatedAt: u.CreatedAt,
		}
	}
	return m
}

// UserBranchRoleModel assigns one role to a user on one branch
type UserBranchRoleModel struct {
	UserID    uuid.UUID     `gorm:"type:uuid;primaryKey"`
	BranchID  uuid.UUID     `gorm:"type:uuid;primaryKey;index"`
	Role      identity.Role `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserBranchRoleModel) TableName() string {
	return "user_branch_roles"
}

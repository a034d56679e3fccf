package identity_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	appidentity "github.com/rms/backend/internal/application/identity"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/infrastructure/persistence"
	"github.com/rms/backend/internal/infrastructure/persistence/models"
	"github.com/rms/backend/tests/testutil"
)

func newUserService(t *testing.T) (*appidentity.UserService, *gorm.DB) {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	scope := persistence.NewGormTransactionScope(db)
	return appidentity.NewUserService(persistence.NewGormUserRepository(db), scope.Identity(), nil), db
}

func auditActions(t *testing.T, db *gorm.DB) []models.AuditEventModel {
	t.Helper()
	var rows []models.AuditEventModel
	require.NoError(t, db.Order("occurred_at ASC").Find(&rows).Error)
	return rows
}

func TestUserService_ProvisionAndResolve(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	admin := testutil.NewAdmin("admin")
	branch := testutil.TestBranchID()

	created, err := svc.ProvisionUser(ctx, admin, appidentity.ProvisionUserInput{
		PortalUserID: "portal-42",
		Email:        "qc@example.com",
		DisplayName:  "Quinn",
		BranchRoles:  []identity.BranchRole{{BranchID: branch, Role: identity.RoleQC}},
	})
	require.NoError(t, err)
	require.NotNil(t, created.PrimaryRole)
	assert.Equal(t, "QC", *created.PrimaryRole)

	_, err = svc.ProvisionUser(ctx, admin, appidentity.ProvisionUserInput{
		PortalUserID: "portal-42",
		Email:        "other@example.com",
		BranchRoles:  []identity.BranchRole{{BranchID: branch, Role: identity.RoleFinance}},
	})
	assert.ErrorIs(t, err, appidentity.ErrUserExists)

	actor, err := svc.ResolveActor(ctx, "portal-42")
	require.NoError(t, err)
	require.NotNil(t, actor)
	assert.Equal(t, created.ID, actor.ID)
	assert.Equal(t, identity.RoleQC, actor.Role)
	assert.Equal(t, []uuid.UUID{branch}, actor.BranchIDs)

	unknown, err := svc.ResolveActor(ctx, "portal-unknown")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	rows := auditActions(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionUserProvisioned, rows[0].Action)
	assert.Equal(t, admin.ID, rows[0].ActorID)
	assert.Nil(t, rows[0].RMAID)
}

func TestUserService_ProvisionRejectsInvalidInput(t *testing.T) {
	svc, db := newUserService(t)

	_, err := svc.ProvisionUser(context.Background(), testutil.NewAdmin("admin"), appidentity.ProvisionUserInput{
		PortalUserID: "portal-1",
		Email:        "a@example.com",
	})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	assert.Empty(t, auditActions(t, db))
}

func TestUserService_BranchRoles(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	admin := testutil.NewAdmin("admin")
	own, other := testutil.TestBranchID(), testutil.OtherBranchID()

	user, err := svc.ProvisionUser(ctx, admin, appidentity.ProvisionUserInput{
		PortalUserID: "portal-7",
		Email:        "w@example.com",
		BranchRoles:  []identity.BranchRole{{BranchID: own, Role: identity.RoleWarehouse}},
	})
	require.NoError(t, err)

	t.Run("assign adds a second branch", func(t *testing.T) {
		got, err := svc.AssignBranchRole(ctx, admin, user.ID, other, identity.RoleBranchManager)
		require.NoError(t, err)
		assert.Len(t, got.BranchRoles, 2)
		assert.Equal(t, "BRANCH_MANAGER", *got.PrimaryRole)
	})

	t.Run("assigning the same role is a no-op", func(t *testing.T) {
		before := len(auditActions(t, db))
		_, err := svc.AssignBranchRole(ctx, admin, user.ID, other, identity.RoleBranchManager)
		require.NoError(t, err)
		assert.Len(t, auditActions(t, db), before)
	})

	t.Run("assign validates input", func(t *testing.T) {
		_, err := svc.AssignBranchRole(ctx, admin, user.ID, other, "ROOT")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = svc.AssignBranchRole(ctx, admin, user.ID, uuid.Nil, identity.RoleQC)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		_, err = svc.AssignBranchRole(ctx, admin, uuid.New(), own, identity.RoleQC)
		assert.ErrorIs(t, err, appidentity.ErrUserNotFound)
	})

	t.Run("revoke removes the branch", func(t *testing.T) {
		got, err := svc.RevokeBranchRole(ctx, admin, user.ID, other)
		require.NoError(t, err)
		require.Len(t, got.BranchRoles, 1)
		assert.Equal(t, "WAREHOUSE", got.BranchRoles[0].Role)

		_, err = svc.RevokeBranchRole(ctx, admin, user.ID, other)
		assert.ErrorIs(t, err, appidentity.ErrBranchRoleNotFound)
	})

	t.Run("revoking the last role unprovisions", func(t *testing.T) {
		_, err := svc.RevokeBranchRole(ctx, admin, user.ID, own)
		require.NoError(t, err)

		actor, err := svc.ResolveActor(ctx, "portal-7")
		require.NoError(t, err)
		assert.Nil(t, actor)
	})

	changed := 0
	for _, row := range auditActions(t, db) {
		if row.Action == audit.ActionRoleChanged {
			changed++
		}
	}
	assert.Equal(t, 3, changed)
}

func TestUserService_BootstrapAdmin(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()
	branch := testutil.TestBranchID()
	input := appidentity.BootstrapAdminInput{
		PortalUserID: "portal-root",
		Email:        "root@example.com",
		BranchID:     branch,
	}

	first, err := svc.BootstrapAdmin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", *first.PrimaryRole)

	again, err := svc.BootstrapAdmin(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	rows := auditActions(t, db)
	require.Len(t, rows, 1)
	assert.Equal(t, "SYSTEM", rows[0].ActorRole)
	assert.Equal(t, first.ID, rows[0].ActorID)
	assert.Equal(t, "bootstrap", rows[0].Metadata["source"])

	list, err := svc.List(ctx, shared.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

package identity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

func TestResolvePrimaryRole(t *testing.T) {
	tests := []struct {
		name   string
		roles  []Role
		want   Role
		wantOK bool
	}{
		{"single role", []Role{RoleQC}, RoleQC, true},
		{"highest priority wins", []Role{RoleCustomer, RoleBranchManager, RoleFinance}, RoleBranchManager, true},
		{"agent outranks finance", []Role{RoleFinance, RoleReturnsAgent}, RoleReturnsAgent, true},
		{"admin outranks everything", []Role{RoleBranchManager, RoleAdmin}, RoleAdmin, true},
		{"unknown roles ignored", []Role{"SUPERVISOR", RoleWarehouse}, RoleWarehouse, true},
		{"no known role", []Role{"SUPERVISOR"}, "", false},
		{"empty", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolvePrimaryRole(tt.roles)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range AllRoles() {
		assert.True(t, r.IsValid(), r)
	}
	assert.False(t, Role("ROOT").IsValid())
	assert.Len(t, AllRoles(), 7)
}

func TestNewUser(t *testing.T) {
	branch := uuid.New()

	t.Run("creates a user", func(t *testing.T) {
		u, err := NewUser(" portal-1 ", " a@example.com ", " Alex ", []BranchRole{{BranchID: branch, Role: RoleQC}}, testNow)
		require.NoError(t, err)
		assert.Equal(t, "portal-1", u.PortalUserID)
		assert.Equal(t, "a@example.com", u.Email)
		assert.Equal(t, "Alex", u.DisplayName)
		assert.NotEqual(t, uuid.Nil, u.ID)
	})

	tests := []struct {
		name   string
		portal string
		email  string
		roles  []BranchRole
	}{
		{"empty portal id", " ", "a@example.com", []BranchRole{{BranchID: branch, Role: RoleQC}}},
		{"empty email", "p", "", []BranchRole{{BranchID: branch, Role: RoleQC}}},
		{"no roles", "p", "a@example.com", nil},
		{"invalid role", "p", "a@example.com", []BranchRole{{BranchID: branch, Role: "ROOT"}}},
		{"nil branch", "p", "a@example.com", []BranchRole{{BranchID: uuid.Nil, Role: RoleQC}}},
		{"duplicate branch", "p", "a@example.com", []BranchRole{{BranchID: branch, Role: RoleQC}, {BranchID: branch, Role: RoleFinance}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.portal, tt.email, "", tt.roles, testNow)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
}

func TestUser_Actor(t *testing.T) {
	b1, b2 := uuid.New(), uuid.New()

	t.Run("primary role across branches", func(t *testing.T) {
		u, err := NewUser("p", "a@example.com", "", []BranchRole{
			{BranchID: b1, Role: RoleWarehouse},
			{BranchID: b2, Role: RoleBranchManager},
		}, testNow)
		require.NoError(t, err)

		actor, ok := u.Actor()
		require.True(t, ok)
		assert.Equal(t, u.ID, actor.ID)
		assert.Equal(t, RoleBranchManager, actor.Role)
		assert.ElementsMatch(t, []uuid.UUID{b1, b2}, actor.BranchIDs)
		assert.False(t, actor.IsAdmin)

		role, found := u.RoleFor(b1)
		assert.True(t, found)
		assert.Equal(t, RoleWarehouse, role)
	})

	t.Run("admin flag", func(t *testing.T) {
		u := &User{PortalUserID: "p", BranchRoles: []BranchRole{{BranchID: b1, Role: RoleAdmin}}}
		actor, ok := u.Actor()
		require.True(t, ok)
		assert.True(t, actor.IsAdmin)
	})

	t.Run("no roles means unprovisioned", func(t *testing.T) {
		u := &User{PortalUserID: "p"}
		_, ok := u.Actor()
		assert.False(t, ok)
		_, found := u.RoleFor(b1)
		assert.False(t, found)
	})
}

func TestActor_Visibility(t *testing.T) {
	own, other := uuid.New(), uuid.New()
	agent := Actor{Role: RoleReturnsAgent, BranchIDs: []uuid.UUID{own}}
	admin := Actor{Role: RoleAdmin, IsAdmin: true}

	assert.True(t, agent.CanSeeBranch(own))
	assert.False(t, agent.CanSeeBranch(other))
	assert.True(t, admin.CanSeeBranch(other))

	assert.True(t, agent.HasAnyRole(RoleReturnsAgent, RoleFinance))
	assert.False(t, agent.HasAnyRole(RoleFinance))
	assert.True(t, admin.HasAnyRole(RoleFinance))
}

func TestBranchScope(t *testing.T) {
	own, other := uuid.New(), uuid.New()

	t.Run("non-admin sees assigned branches", func(t *testing.T) {
		scope := BranchScopeFor(Actor{BranchIDs: []uuid.UUID{own}})
		assert.True(t, scope.Allows(own))
		assert.False(t, scope.Allows(other))
		assert.False(t, scope.IsEmpty())
	})

	t.Run("admin is unrestricted", func(t *testing.T) {
		scope := BranchScopeFor(Actor{IsAdmin: true})
		assert.True(t, scope.Allows(other))
		assert.False(t, scope.IsEmpty())
	})

	t.Run("no branches is empty", func(t *testing.T) {
		assert.True(t, BranchScopeFor(Actor{}).IsEmpty())
	})

	t.Run("narrow never widens", func(t *testing.T) {
		scope := BranchScopeFor(Actor{BranchIDs: []uuid.UUID{own}})

		assert.Equal(t, scope, scope.Narrow(nil))
		nilID := uuid.Nil
		assert.Equal(t, scope, scope.Narrow(&nilID))

		narrowed := scope.Narrow(&own)
		assert.Equal(t, []uuid.UUID{own}, narrowed.BranchIDs)

		assert.True(t, scope.Narrow(&other).IsEmpty())

		adminNarrowed := BranchScopeFor(Actor{IsAdmin: true}).Narrow(&other)
		assert.False(t, adminNarrowed.Unrestricted)
		assert.True(t, adminNarrowed.Allows(other))
	})

	t.Run("scope does not alias the actor", func(t *testing.T) {
		actor := Actor{BranchIDs: []uuid.UUID{own}}
		scope := BranchScopeFor(actor)
		actor.BranchIDs[0] = other
		assert.True(t, scope.Allows(own))
	})
}

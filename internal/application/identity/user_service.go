package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rms/backend/internal/domain/audit"
	"github.com/rms/backend/internal/domain/identity"
	"github.com/rms/backend/internal/domain/shared"
	"github.com/rms/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	defaultUserListTake = 50
	maxUserListTake     = 200

	// systemActorRole marks audit events written by operator tooling
	systemActorRole = "SYSTEM"
)

var (
	ErrUserNotFound       = shared.NewDomainError(shared.CodeNotFound, "User not found")
	ErrBranchRoleNotFound = shared.NewDomainError(shared.CodeNotFound, "Branch role not found")
	ErrUserExists         = shared.NewDomainError(shared.CodeConflict, "A user with this portal identity is already provisioned")
)

// UserService resolves request actors and provisions RMS users
type UserService struct {
	reader identity.UserReader
	scope  TransactionScope
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(reader identity.UserReader, scope TransactionScope, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{
		reader: reader,
		scope:  scope,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ResolveActor maps a verified portal identity to the RMS actor.
// It returns nil when the user is unknown or holds no branch role.
func (s *UserService) ResolveActor(ctx context.Context, portalUserID string) (*identity.Actor, error) {
	user, err := s.reader.FindByPortalUserID(ctx, portalUserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	actor, ok := user.Actor()
	if !ok {
		return nil, nil
	}
	return &actor, nil
}

// ProvisionUser creates an RMS user with its initial branch roles
func (s *UserService) ProvisionUser(ctx context.Context, actor identity.Actor, input ProvisionUserInput) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "provision_user")
	defer span.End()

	user, err := identity.NewUser(input.PortalUserID, input.Email, input.DisplayName, input.BranchRoles, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.Users().FindByPortalUserID(ctx, user.PortalUserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrUserExists
		}
		if err := repos.Users().Create(ctx, user); err != nil {
			return err
		}
		return recordUserEvent(ctx, repos, actor.ID, actor.Role.String(), audit.ActionUserProvisioned, nil, provisionedValue(user), nil)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("User provisioned",
		zap.String("user_id", user.ID.String()),
		zap.String("portal_user_id", user.PortalUserID),
		zap.Int("branch_roles", len(user.BranchRoles)),
		zap.String("actor_id", actor.ID.String()),
	)
	telemetry.SetOK(span)
	return ToUserResponse(user), nil
}

// BootstrapAdmin makes the given portal identity an ADMIN on branchID,
// creating the user when needed. It is used by operator tooling before any
// administrator exists, so the user itself is recorded as the actor.
func (s *UserService) BootstrapAdmin(ctx context.Context, input BootstrapAdminInput) (*UserResponse, error) {
	adminRole := identity.RoleAdmin
	roles := []identity.BranchRole{{BranchID: input.BranchID, Role: adminRole}}

	var userID uuid.UUID
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.Users().FindByPortalUserID(ctx, input.PortalUserID)
		if err != nil {
			return err
		}
		metadata := map[string]any{"source": "bootstrap"}

		if existing == nil {
			user, err := identity.NewUser(input.PortalUserID, input.Email, input.DisplayName, roles, s.now())
			if err != nil {
				return err
			}
			if err := repos.Users().Create(ctx, user); err != nil {
				return err
			}
			userID = user.ID
			return recordUserEvent(ctx, repos, user.ID, systemActorRole, audit.ActionUserProvisioned, nil, provisionedValue(user), metadata)
		}

		userID = existing.ID
		var oldRole *identity.Role
		if role, ok := existing.RoleFor(input.BranchID); ok {
			if role == adminRole {
				return nil
			}
			oldRole = &role
		}
		if err := repos.Users().UpsertBranchRole(ctx, existing.ID, roles[0]); err != nil {
			return err
		}
		return recordUserEvent(ctx, repos, existing.ID, systemActorRole, audit.ActionRoleChanged,
			branchRoleValue(input.BranchID, oldRole), branchRoleValue(input.BranchID, &adminRole), metadata)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Administrator bootstrapped",
		zap.String("user_id", userID.String()),
		zap.String("portal_user_id", input.PortalUserID),
		zap.String("branch_id", input.BranchID.String()),
	)
	return s.Get(ctx, userID)
}

// AssignBranchRole grants role on branchID, replacing any role the user held there
func (s *UserService) AssignBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID, role identity.Role) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "assign_branch_role")
	defer span.End()

	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid role: "+role.String())
	}
	if branchID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Branch ID cannot be empty")
	}

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		var oldRole *identity.Role
		if current, ok := user.RoleFor(branchID); ok {
			if current == role {
				return nil
			}
			oldRole = &current
		}
		if err := repos.Users().UpsertBranchRole(ctx, userID, identity.BranchRole{BranchID: branchID, Role: role}); err != nil {
			return err
		}
		return recordUserEvent(ctx, repos, actor.ID, actor.Role.String(), audit.ActionRoleChanged,
			branchRoleValue(branchID, oldRole), branchRoleValue(branchID, &role), map[string]any{"userId": userID.String()})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Branch role assigned",
		zap.String("user_id", userID.String()),
		zap.String("branch_id", branchID.String()),
		zap.String("role", role.String()),
	)
	return s.Get(ctx, userID)
}

// RevokeBranchRole removes the user's role on branchID. A user left without
// any branch role can no longer use the RMS.
func (s *UserService) RevokeBranchRole(ctx context.Context, actor identity.Actor, userID, branchID uuid.UUID) (*UserResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "identity", "revoke_branch_role")
	defer span.End()

	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.Users().FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		current, ok := user.RoleFor(branchID)
		if !ok {
			return ErrBranchRoleNotFound
		}
		if err := repos.Users().DeleteBranchRole(ctx, userID, branchID); err != nil {
			return err
		}
		return recordUserEvent(ctx, repos, actor.ID, actor.Role.String(), audit.ActionRoleChanged,
			branchRoleValue(branchID, &current), branchRoleValue(branchID, nil), map[string]any{"userId": userID.String()})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Branch role revoked",
		zap.String("user_id", userID.String()),
		zap.String("branch_id", branchID.String()),
	)
	return s.Get(ctx, userID)
}

// Get returns a user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*UserResponse, error) {
	user, err := s.reader.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return ToUserResponse(user), nil
}

// List returns users ordered by email
func (s *UserService) List(ctx context.Context, page shared.Page) (shared.Paginated[UserResponse], error) {
	page = page.Normalize(defaultUserListTake, maxUserListTake)
	users, total, err := s.reader.List(ctx, page)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = *ToUserResponse(&users[i])
	}
	return shared.NewPaginated(items, total, page), nil
}

func recordUserEvent(
	ctx context.Context,
	repos TransactionalRepositories,
	actorID uuid.UUID,
	actorRole, action string,
	oldValue, newValue, metadata map[string]any,
) error {
	_, err := repos.Audit().Record(ctx, audit.Entry{
		ActorID:   actorID,
		ActorRole: actorRole,
		Action:    action,
		OldValue:  oldValue,
		NewValue:  newValue,
		Metadata:  metadata,
		IPAddress: audit.IPAddressFrom(ctx),
	})
	return err
}

func provisionedValue(u *identity.User) map[string]any {
	roles := make([]map[string]any, len(u.BranchRoles))
	for i, br := range u.BranchRoles {
		role := br.Role
		roles[i] = branchRoleValue(br.BranchID, &role)
	}
	return map[string]any{
		"userId":       u.ID.String(),
		"portalUserId": u.PortalUserID,
		"email":        u.Email,
		"branchRoles":  roles,
	}
}

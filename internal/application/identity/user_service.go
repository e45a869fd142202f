package identity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrCannotBlockSelf is returned when an admin tries to block their own account
var ErrCannotBlockSelf = shared.NewDomainError("FORBIDDEN", "you cannot block your own account")

// UserService handles user administration
type UserService struct {
	userRepo  identity.UserRepository
	blacklist auth.TokenBlacklist
	revokeTTL time.Duration
	logger    *zap.Logger
}

// NewUserService creates a new user service. revokeTTL should cover the
// refresh token lifetime so every token issued before a block is rejected.
func NewUserService(
	userRepo identity.UserRepository,
	blacklist auth.TokenBlacklist,
	revokeTTL time.Duration,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blacklist: blacklist,
		revokeTTL: revokeTTL,
		logger:    logger,
	}
}

// Me returns the caller's own profile
func (s *UserService) Me(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToUserResponse(user)
	return &resp, nil
}

// List returns one page of users, newest first
func (s *UserService) List(ctx context.Context, filter UserListFilter) (shared.Paginated[UserResponse], error) {
	f := shared.DefaultFilter()
	f.Page = filter.Page
	f.PageSize = filter.PageSize
	f.Search = strings.TrimSpace(filter.Search)
	f.Normalize()

	users, total, err := s.userRepo.FindAll(ctx, f)
	if err != nil {
		return shared.Paginated[UserResponse]{}, err
	}
	items := make([]UserResponse, len(users))
	for i := range users {
		items[i] = ToUserResponse(&users[i])
	}
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// SetBlocked blocks or unblocks a user. Blocking also revokes every token
// the user already holds.
func (s *UserService) SetBlocked(ctx context.Context, actorID, userID uuid.UUID, blocked bool) (*UserResponse, error) {
	if blocked && actorID == userID {
		return nil, ErrCannotBlockSelf
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.IsBlocked != blocked {
		user.SetBlocked(blocked)
		if err := s.userRepo.Save(ctx, user); err != nil {
			return nil, err
		}
		if blocked && s.blacklist != nil {
			if err := s.blacklist.RevokeUser(ctx, userID.String(), s.revokeTTL); err != nil {
				s.logger.Error("Failed to revoke tokens of blocked user", zap.String("user_id", userID.String()), zap.Error(err))
			}
		}
		s.logger.Info("User block status changed",
			zap.String("user_id", userID.String()),
			zap.String("actor_id", actorID.String()),
			zap.Bool("blocked", blocked),
		)
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// EnsureAdmin creates the configured administrator if it does not exist yet
func (s *UserService) EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	exists, err := s.userRepo.ExistsByUsername(ctx, cfg.Username)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	admin, err := identity.NewUser(cfg.Username, cfg.Email, cfg.Password, identity.RoleAdmin)
	if err != nil {
		return err
	}
	if err := s.userRepo.Save(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("Bootstrap administrator created", zap.String("username", admin.Username))
	return nil
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]identity.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

func newJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-that-is-long-enough-123",
		Issuer:                 "shopline-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
}

func newUser(t *testing.T, username string, role identity.Role) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, "", "correct-horse", role)
	require.NoError(t, err)
	return u
}

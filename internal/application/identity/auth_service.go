// Package identity implements login, token refresh and user administration.
package identity

import (
	"context"
	"errors"

	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// Token errors surfaced to clients
var (
	ErrTokenExpired = shared.NewDomainError("TOKEN_EXPIRED", "token has expired")
	ErrTokenInvalid = shared.NewDomainError("TOKEN_INVALID", "invalid token")
	ErrTokenRevoked = shared.NewDomainError("TOKEN_REVOKED", "token has been revoked")
)

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service; blacklist may be nil
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login checks the credentials and returns a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown user", zap.String("username", req.Username))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := user.Authenticate(req.Password); err != nil {
		s.logger.Warn("Login rejected",
			zap.String("username", req.Username),
			zap.String("reason", err.Error()),
		)
		return nil, err
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		// Recording the login time is not worth failing the login over.
		s.logger.Error("Failed to record login", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	userResp := ToUserResponse(user)
	resp.User = &userResp

	s.logger.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return resp, nil
}

// Refresh exchanges a refresh token for a new pair. The role is re-read so a
// demoted or blocked user cannot keep their old privileges.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, mapTokenError(err)
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}

	userID, err := claims.UserUUID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if user.IsBlocked {
		return nil, identity.ErrUserBlocked
	}

	// Refresh tokens are single use.
	s.revoke(ctx, claims)

	return s.issue(user)
}

// Logout revokes the caller's access token and, when given, their refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}
	if input.AccessJTI != "" {
		if err := s.blacklist.Revoke(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return err
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == input.UserID.String() {
			s.revoke(ctx, claims)
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", input.UserID.String()))
	return nil
}

func (s *AuthService) issue(user *identity.User) (*TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	})
	if err != nil {
		s.logger.Error("Failed to sign tokens", zap.Error(err))
		return nil, err
	}
	return &TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, claims *auth.Claims) error {
	if s.blacklist == nil {
		return nil
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if !revoked {
		revoked, err = s.blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
		if err != nil {
			return err
		}
	}
	if revoked {
		return ErrTokenRevoked
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, claims *auth.Claims) {
	if s.blacklist == nil {
		return
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.RemainingTTL()); err != nil {
		s.logger.Warn("Failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
	}
}

func mapTokenError(err error) error {
	if errors.Is(err, auth.ErrExpiredToken) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/infrastructure/auth"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"github.com/shopline/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "jwt_user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// JWTConfig holds configuration for JWT middleware
type JWTConfig struct {
	JWTService *auth.JWTService
	// Blacklist is optional; without it revoked tokens stay valid until expiry
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
}

// JWTAuth rejects requests without a valid access token and stores the
// claims for the handlers. Blacklist lookups fail open.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			authFailed(c, log, auth.ErrInvalidToken, "missing authorization header")
			return
		}
		token, ok := strings.CutPrefix(header, BearerPrefix)
		if !ok || token == "" {
			authFailed(c, log, auth.ErrInvalidToken, "invalid authorization header format")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			authFailed(c, log, err, "token validation failed")
			return
		}

		ctx := c.Request.Context()
		if cfg.Blacklist != nil {
			if claims.ID != "" {
				revoked, err := cfg.Blacklist.IsRevoked(ctx, claims.ID)
				if err != nil {
					log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
				} else if revoked {
					authFailed(c, log, auth.ErrTokenRevoked, "token revoked")
					return
				}
			}
			revoked, err := cfg.Blacklist.IsUserRevoked(ctx, claims.UserID, claims.IssuedAtTime())
			if err != nil {
				log.Error("Failed to check user revocation", zap.String("user_id", claims.UserID), zap.Error(err))
			} else if revoked {
				authFailed(c, log, auth.ErrTokenRevoked, "user sessions revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, claims.UserID))
		c.Next()
	}
}

// RequireAdmin must run after JWTAuth
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		if claims == nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "authentication required")
			return
		}
		if !claims.IsAdmin() {
			abortWithError(c, http.StatusForbidden, dto.ErrCodeForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

func authFailed(c *gin.Context, log *zap.Logger, err error, reason string) {
	log.Warn("JWT authentication failed",
		zap.String("reason", reason),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	code, message := dto.ErrCodeUnauthorized, "authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = "TOKEN_EXPIRED", "token has expired"
	case errors.Is(err, auth.ErrTokenRevoked):
		code, message = "TOKEN_REVOKED", "token has been revoked"
	case errors.Is(err, auth.ErrInvalidTokenType), errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidClaims):
		code, message = "TOKEN_INVALID", "invalid token"
	}
	abortWithError(c, http.StatusUnauthorized, code, message)
}

// GetJWTClaims returns the claims stored by JWTAuth, or nil
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// GetJWTUserID returns the authenticated user id, or uuid.Nil
func GetJWTUserID(c *gin.Context) uuid.UUID {
	id, err := uuid.Parse(c.GetString(JWTUserIDKey))
	if err != nil {
		return uuid.Nil
	}
	return id
}

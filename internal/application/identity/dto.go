package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/identity"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=150"`
	Password string `json:"password" binding:"required,max=128"`
}

// RefreshRequest is the body of POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the tokens to revoke on logout
type LogoutInput struct {
	UserID       uuid.UUID
	AccessJTI    string
	AccessTTL    time.Duration
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse carries a freshly minted token pair
type TokenResponse struct {
	AccessToken           string        `json:"access_token"`
	RefreshToken          string        `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time     `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time     `json:"refresh_token_expires_at"`
	TokenType             string        `json:"token_type"`
	User                  *UserResponse `json:"user,omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email,omitempty"`
	Role        string     `json:"role"`
	IsBlocked   bool       `json:"is_blocked"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// UserListFilter is the query of GET /admin/users
type UserListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search" binding:"max=150"`
}

// SetBlockedRequest is the body of PUT /admin/users/:id/block
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" binding:"required"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        string(u.Role),
		IsBlocked:   u.IsBlocked,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

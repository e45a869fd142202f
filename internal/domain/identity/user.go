// Package identity holds storefront users and their roles.
package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopline/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization role of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Password cost for bcrypt
const bcryptCost = 12

const (
	minPasswordLength = 8
	maxUsernameLength = 150
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Identity errors
var (
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "invalid username or password")
	ErrUserBlocked        = shared.NewDomainError("USER_BLOCKED", "user is blocked")
)

// User is an account that can shop or administer the store
type User struct {
	shared.BaseAggregateRoot
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsBlocked    bool
	LastLoginAt  *time.Time
}

// NewUser creates a user with a hashed password
func NewUser(username, email, password string, role Role) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || len(username) > maxUsernameLength || !usernamePattern.MatchString(username) {
		return nil, shared.NewDomainError("INVALID_USERNAME", "username must be 1-150 letters, digits or @.+-_")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !emailPattern.MatchString(email) {
		return nil, shared.NewDomainError("INVALID_EMAIL", "email address is not valid")
	}
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "role must be user or admin")
	}

	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          username,
		Email:             email,
		Role:              role,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	return u, nil
}

// SetPassword hashes and stores a new password
func (u *User) SetPassword(password string) error {
	if len(password) < minPasswordLength {
		return shared.NewDomainError("INVALID_PASSWORD", "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	u.Touch()
	return nil
}

// CheckPassword reports whether password matches the stored hash
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// Authenticate checks the password and whether the account may log in
func (u *User) Authenticate(password string) error {
	if !u.CheckPassword(password) {
		return ErrInvalidCredentials
	}
	if u.IsBlocked {
		return ErrUserBlocked
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

// SetBlocked blocks or unblocks the account
func (u *User) SetBlocked(blocked bool) {
	u.IsBlocked = blocked
	u.Touch()
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

package models

import (
	"time"

	"github.com/shopline/backend/internal/domain/identity"
)

// UserModel is the persistence model for identity.User
type UserModel struct {
	AggregateModel
	Username     string        `gorm:"type:varchar(150);not null;uniqueIndex"`
	Email        string        `gorm:"type:varchar(254)"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null;default:'user'"`
	IsBlocked    bool          `gorm:"not null"`
	LastLoginAt  *time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		Username:          m.Username,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		IsBlocked:         m.IsBlocked,
		LastLoginAt:       m.LastLoginAt,
	}
}

func UserModelFromDomain(u *identity.User) *UserModel {
	return &UserModel{
		AggregateModel: aggregateFromDomain(u.BaseAggregateRoot),
		Username:       u.Username,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Role:           u.Role,
		IsBlocked:      u.IsBlocked,
		LastLoginAt:    u.LastLoginAt,
	}
}

// AllModels lists every model in dependency order, for AutoMigrate in tests
func AllModels() []interface{} {
	return []interface{}{
		&UserModel{},
		&ProductModel{},
		&CartItemModel{},
		&WishlistItemModel{},
		&OrderModel{},
		&OrderItemModel{},
		&CancelledOrderModel{},
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
)

// CartItemModel is the persistence model for cart.Item
type CartItemModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:1"`
	ProductID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_product,priority:2"`
	Quantity  int           `gorm:"not null;check:quantity >= 1"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"not null"`
	UpdatedAt time.Time     `gorm:"not null"`
}

func (CartItemModel) TableName() string {
	return "cart_items"
}

// ToDomain converts the row, including the product when it was preloaded
func (m *CartItemModel) ToDomain() *cart.Item {
	item := &cart.Item{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Product != nil {
		item.Product = m.Product.ToDomain()
	}
	return item
}

// CartItemModelFromDomain builds the row for a cart line
func CartItemModelFromDomain(i *cart.Item) *CartItemModel {
	return &CartItemModel{
		ID:        i.ID,
		UserID:    i.UserID,
		ProductID: i.ProductID,
		Quantity:  i.Quantity,
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for catalog.Product
type ProductModel struct {
	AggregateModel
	Name        string          `gorm:"type:varchar(255);not null"`
	Description string          `gorm:"type:text"`
	Category    string          `gorm:"type:varchar(100);not null;index"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Count       int             `gorm:"not null;default:0;check:count >= 0"`
	Images      StringList      `gorm:"type:jsonb"`
	IsActive    bool            `gorm:"not null;index"`
}

func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row into a catalog.Product
func (m *ProductModel) ToDomain() *catalog.Product {
	images := []string(m.Images)
	if images == nil {
		images = []string{}
	}
	return &catalog.Product{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		Name:              m.Name,
		Description:       m.Description,
		Category:          m.Category,
		Price:             m.Price,
		Count:             m.Count,
		Images:            images,
		IsActive:          m.IsActive,
	}
}

// ProductModelFromDomain builds the row for a catalog.Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	return &ProductModel{
		AggregateModel: aggregateFromDomain(p.BaseAggregateRoot),
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Price:          p.Price,
		Count:          p.Count,
		Images:         StringList(p.Images),
		IsActive:       p.IsActive,
	}
}

// WishlistItemModel is the persistence model for catalog.WishlistItem
type WishlistItemModel struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:1"`
	ProductID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_wishlist_user_product,priority:2"`
	Product   *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"not null"`
}

func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}

// ToDomain converts the row, including the product when it was preloaded
func (m *WishlistItemModel) ToDomain() *catalog.WishlistItem {
	item := &catalog.WishlistItem{
		ID:        m.ID,
		UserID:    m.UserID,
		ProductID: m.ProductID,
		CreatedAt: m.CreatedAt,
	}
	if m.Product != nil {
		item.Product = m.Product.ToDomain()
	}
	return item
}

// WishlistItemModelFromDomain builds the row for a wishlist entry
func WishlistItemModelFromDomain(i *catalog.WishlistItem) *WishlistItemModel {
	return &WishlistItemModel{
		ID:        i.ID,
		UserID:    i.UserID,
		ProductID: i.ProductID,
		CreatedAt: i.CreatedAt,
	}
}

package catalog

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem marks a product a user wants to keep an eye on
type WishlistItem struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Product   *Product
	CreatedAt time.Time
}

// NewWishlistItem creates a wishlist entry
func NewWishlistItem(userID, productID uuid.UUID) *WishlistItem {
	return &WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}
}

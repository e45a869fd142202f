package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/shared"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	Category   string
	ActiveOnly bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds products by their IDs, keyed by ID
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)

	// FindAll returns one page of products matching the filter and the total count
	FindAll(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// Save creates or updates a product. Count is only written on insert;
	// later stock changes go through StockLedger.
	Save(ctx context.Context, product *Product) error
}

// StockLedger adjusts product stock counts atomically.
// Implementations must be bound to the caller's transaction.
type StockLedger interface {
	// Decrement subtracts quantity only if the current count is at least quantity.
	// Returns false, without error, when stock is insufficient.
	Decrement(ctx context.Context, productID uuid.UUID, quantity int) (bool, error)

	// Increment adds quantity back to the product's count
	Increment(ctx context.Context, productID uuid.UUID, quantity int) error
}

// WishlistRepository defines the interface for wishlist persistence
type WishlistRepository interface {
	// FindByUser lists a user's wishlist with products loaded
	FindByUser(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error)

	// FindByUserAndProduct returns shared.ErrNotFound when the pair does not exist
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*WishlistItem, error)

	// Save inserts a wishlist entry
	Save(ctx context.Context, item *WishlistItem) error

	// DeleteForUser removes an entry owned by the user
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

package cart

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for cart persistence
type Repository interface {
	// FindByUser lists a user's cart lines with their products loaded
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Item, error)

	// FindByUserAndProduct returns shared.ErrNotFound when the user has no line for the product
	FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*Item, error)

	// FindByIDForUser returns shared.ErrNotFound when the line does not belong to the user
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Item, error)

	// Save inserts or updates a line
	Save(ctx context.Context, item *Item) error

	// DeleteForUser removes one line owned by the user
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error

	// ClearForUser removes every line of the user's cart
	ClearForUser(ctx context.Context, userID uuid.UUID) error
}

package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/shared"
)

// Filter narrows order listings
type Filter struct {
	shared.Filter
	UserID *uuid.UUID
	Status Status
}

// Repository defines the interface for order persistence
type Repository interface {
	// FindByID finds an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUser finds an order owned by userID; other users' orders are shared.ErrNotFound
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads the order and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByGatewayOrderID finds the order a gateway order id was last attached to
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)

	// FindAll returns one page of orders, newest first, and the total count
	FindAll(ctx context.Context, filter Filter) ([]Order, int64, error)

	// Create inserts the order and its items
	Create(ctx context.Context, o *Order) error

	// SaveWithLock persists status and gateway fields if the stored version still
	// matches, then bumps the version. A mismatch is shared.ErrConcurrencyConflict.
	SaveWithLock(ctx context.Context, o *Order) error
}

// CancellationRepository persists CancelledOrder records
type CancellationRepository interface {
	// Create inserts the record; a second record for the same order is rejected
	Create(ctx context.Context, record *CancelledOrder) error

	// FindByOrderID returns shared.ErrNotFound when the order was never cancelled
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*CancelledOrder, error)

	// FindByOrderIDForUpdate is FindByOrderID with the row locked until the
	// surrounding transaction ends
	FindByOrderIDForUpdate(ctx context.Context, orderID uuid.UUID) (*CancelledOrder, error)

	// FindAll lists cancellations, newest first, optionally by refund status
	FindAll(ctx context.Context, filter shared.Filter, refund RefundStatus) ([]CancelledOrder, int64, error)

	// Save updates the refund status
	Save(ctx context.Context, record *CancelledOrder) error
}

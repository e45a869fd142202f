// Package cart holds the per-user cart snapshot that checkout turns into an order.
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
)

// MaxQuantityPerItem caps the quantity of a single cart line
const MaxQuantityPerItem = 5

// ErrQuantityLimit is returned when a line would exceed MaxQuantityPerItem
var ErrQuantityLimit = shared.NewDomainError(
	"QUANTITY_LIMIT",
	fmt.Sprintf("quantity cannot exceed %d per item", MaxQuantityPerItem),
)

// Item is one (user, product) line of a cart
type Item struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	Product   *catalog.Product
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewItem creates a cart line
func NewItem(userID, productID uuid.UUID, quantity int) (*Item, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Item{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Add increments the quantity of an existing line
func (i *Item) Add(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "quantity must be at least 1")
	}
	return i.SetQuantity(i.Quantity + quantity)
}

// SetQuantity replaces the line quantity
func (i *Item) SetQuantity(quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	i.Quantity = quantity
	i.UpdatedAt = time.Now()
	return nil
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "quantity must be at least 1")
	}
	if quantity > MaxQuantityPerItem {
		return ErrQuantityLimit
	}
	return nil
}

package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddItemRequest is the body of POST /cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"omitempty,min=1,max=5"`
}

// UpdateItemRequest is the body of PUT /cart/:id
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=5"`
}

// ItemProduct is the product summary embedded in a cart line
type ItemProduct struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Count    int             `json:"count"`
	IsActive bool            `json:"is_active"`
}

// ItemResponse represents a cart line in API responses
type ItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Product   *ItemProduct    `json:"product,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartResponse is the whole cart with its running total
type CartResponse struct {
	Items     []ItemResponse  `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
}

// ToItemResponse converts a cart line
func ToItemResponse(item *cart.Item) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Subtotal:  decimal.Zero,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
	if p := item.Product; p != nil {
		resp.Product = &ItemProduct{ID: p.ID, Name: p.Name, Price: p.Price, Count: p.Count, IsActive: p.IsActive}
		resp.Subtotal = p.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
	}
	return resp
}

// ToCartResponse converts the user's cart lines and sums their subtotals
func ToCartResponse(items []cart.Item) CartResponse {
	resp := CartResponse{Items: make([]ItemResponse, len(items)), Total: decimal.Zero}
	for i := range items {
		line := ToItemResponse(&items[i])
		resp.Items[i] = line
		resp.ItemCount += line.Quantity
		resp.Total = resp.Total.Add(line.Subtotal)
	}
	return resp
}

package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// CheckoutRequest is the body of POST /orders
type CheckoutRequest struct {
	ShippingDetails map[string]interface{} `json:"shipping_details"`
	TotalAmount     *decimal.Decimal       `json:"total_amount" swaggertype:"string" example:"20.00"`
	PaymentMethod   string                 `json:"payment_method" binding:"omitempty,max=50"`
}

// CheckoutResult is returned with 201 after the order commits
type CheckoutResult struct {
	Message      string      `json:"message"`
	OrderID      uuid.UUID   `json:"order_id"`
	Status       string      `json:"status"`
	SkippedItems []uuid.UUID `json:"skipped_items,omitempty"`
}

// CancelOrderRequest is the optional body of a cancel call
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// CancelResult is returned after a successful cancellation
type CancelResult struct {
	Message      string    `json:"message"`
	OrderID      uuid.UUID `json:"order_id"`
	RefundStatus string    `json:"refund_status"`
}

// UpdateStatusRequest moves an order along the fulfilment path
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=processing shipped delivered"`
}

// ListOrdersFilter is the query of GET /orders
type ListOrdersFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AdminOrderListFilter is the query of GET /admin/orders
type AdminOrderListFilter struct {
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string     `form:"status" binding:"omitempty,oneof=pending_payment processing shipped delivered cancelled"`
	UserID   *uuid.UUID `form:"-"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CancellationListFilter is the query of GET /admin/cancellations
type CancellationListFilter struct {
	Page         int    `form:"page" binding:"omitempty,min=1"`
	PageSize     int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	RefundStatus string `form:"refund_status" binding:"omitempty,oneof=not_required pending refunded"`
}

// OrderItemResponse is an order line in API responses
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse is an order in API responses
type OrderResponse struct {
	ID               uuid.UUID              `json:"id"`
	UserID           uuid.UUID              `json:"user_id"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	Status           string                 `json:"status"`
	ShippingDetails  map[string]interface{} `json:"shipping_details"`
	PaymentMethod    string                 `json:"payment_method"`
	GatewayOrderID   string                 `json:"razorpay_order_id,omitempty"`
	GatewayPaymentID string                 `json:"razorpay_payment_id,omitempty"`
	Items            []OrderItemResponse    `json:"items"`
	ItemCount        int                    `json:"item_count"`
	Version          int                    `json:"version"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

// CancelledOrderResponse is a cancellation record in API responses
type CancelledOrderResponse struct {
	ID           uuid.UUID `json:"id"`
	OrderID      uuid.UUID `json:"order_id"`
	Reason       string    `json:"reason"`
	CancelledBy  uuid.UUID `json:"cancelled_by"`
	ActorRole    string    `json:"actor_role"`
	RefundStatus string    `json:"refund_status"`
	CancelledAt  time.Time `json:"cancelled_at"`
}

// ToOrderResponse converts the domain order to its response form
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Price:       item.Price,
			Subtotal:    item.Subtotal(),
		}
	}
	return OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		TotalAmount:      o.TotalAmount,
		Status:           o.Status.String(),
		ShippingDetails:  o.ShippingDetails,
		PaymentMethod:    o.PaymentMethod,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
		Items:            items,
		ItemCount:        o.ItemCount(),
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToOrderResponses converts a page of orders
func ToOrderResponses(orders []order.Order) []OrderResponse {
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = ToOrderResponse(&orders[i])
	}
	return out
}

// ToCancelledOrderResponse converts a cancellation record
func ToCancelledOrderResponse(c *order.CancelledOrder) CancelledOrderResponse {
	return CancelledOrderResponse{
		ID:           c.ID,
		OrderID:      c.OrderID,
		Reason:       c.Reason,
		CancelledBy:  c.CancelledBy,
		ActorRole:    c.ActorRole,
		RefundStatus: string(c.RefundStatus),
		CancelledAt:  c.CancelledAt,
	}
}

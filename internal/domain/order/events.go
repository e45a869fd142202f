package order

import (
	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeOrder names the order aggregate in event envelopes
const AggregateTypeOrder = "Order"

// Event type constants
const (
	EventTypeOrderPlaced        = "OrderPlaced"
	EventTypePaymentCaptured    = "PaymentCaptured"
	EventTypeOrderCancelled     = "OrderCancelled"
	EventTypeOrderStatusChanged = "OrderStatusChanged"
)

// EventItem is the line information carried by order events
type EventItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

func eventItems(o *Order) []EventItem {
	items := make([]EventItem, len(o.Items))
	for i, item := range o.Items {
		items[i] = EventItem{ProductID: item.ProductID, Quantity: item.Quantity, Price: item.Price}
	}
	return items
}

// OrderPlacedEvent is raised when checkout commits an order
type OrderPlacedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID       `json:"order_id"`
	UserID        uuid.UUID       `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Items         []EventItem     `json:"items"`
}

// NewOrderPlacedEvent creates an OrderPlacedEvent
func NewOrderPlacedEvent(o *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderPlaced, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		Items:           eventItems(o),
	}
}

// PaymentCapturedEvent is raised when a gateway payment is verified
type PaymentCapturedEvent struct {
	shared.BaseDomainEvent
	OrderID          uuid.UUID       `json:"order_id"`
	UserID           uuid.UUID       `json:"user_id"`
	Amount           decimal.Decimal `json:"amount"`
	GatewayOrderID   string          `json:"gateway_order_id"`
	GatewayPaymentID string          `json:"gateway_payment_id"`
}

// NewPaymentCapturedEvent creates a PaymentCapturedEvent
func NewPaymentCapturedEvent(o *Order) *PaymentCapturedEvent {
	return &PaymentCapturedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentCaptured, AggregateTypeOrder, o.ID),
		OrderID:          o.ID,
		UserID:           o.UserID,
		Amount:           o.TotalAmount,
		GatewayOrderID:   o.GatewayOrderID,
		GatewayPaymentID: o.GatewayPaymentID,
	}
}

// OrderCancelledEvent is raised when an order is cancelled and restocked
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID    `json:"order_id"`
	UserID         uuid.UUID    `json:"user_id"`
	PreviousStatus Status       `json:"previous_status"`
	Reason         string       `json:"reason"`
	CancelledBy    uuid.UUID    `json:"cancelled_by"`
	RefundStatus   RefundStatus `json:"refund_status"`
	Items          []EventItem  `json:"items"`
}

// NewOrderCancelledEvent creates an OrderCancelledEvent
func NewOrderCancelledEvent(o *Order, previous Status, record *CancelledOrder) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		PreviousStatus:  previous,
		Reason:          record.Reason,
		CancelledBy:     record.CancelledBy,
		RefundStatus:    record.RefundStatus,
		Items:           eventItems(o),
	}
}

// OrderStatusChangedEvent is raised on fulfilment transitions
type OrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	UserID         uuid.UUID `json:"user_id"`
	PreviousStatus Status    `json:"previous_status"`
	Status         Status    `json:"status"`
}

// NewOrderStatusChangedEvent creates an OrderStatusChangedEvent
func NewOrderStatusChangedEvent(o *Order, previous Status) *OrderStatusChangedEvent {
	return &OrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		UserID:          o.UserID,
		PreviousStatus:  previous,
		Status:          o.Status,
	}
}

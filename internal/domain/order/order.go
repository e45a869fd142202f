// Package order contains the Order aggregate created at checkout and its lifecycle.
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of an order
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// PaymentMethodCOD is cash on delivery; such orders skip gateway verification
const PaymentMethodCOD = "cod"

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can move to target
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingPayment:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipped || target == StatusCancelled
	case StatusShipped:
		return target == StatusDelivered || target == StatusCancelled
	case StatusDelivered, StatusCancelled:
		return false
	}
	return false
}

// IsCancellable reports whether an order in this status may still be cancelled
func (s Status) IsCancellable() bool {
	return s.CanTransitionTo(StatusCancelled)
}

// ShippingDetails is the address blob copied onto the order at checkout.
// It is decoupled from any live address record.
type ShippingDetails map[string]interface{}

// Item is an immutable order line with the price captured at purchase time
type Item struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// Subtotal returns price times quantity
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is the aggregate root for a placed order
type Order struct {
	shared.BaseAggregateRoot
	UserID           uuid.UUID
	TotalAmount      decimal.Decimal
	Status           Status
	ShippingDetails  ShippingDetails
	PaymentMethod    string
	GatewayOrderID   string
	GatewayPaymentID string
	Items            []Item
}

// NewOrder creates an order in its initial status.
// Cash on delivery starts in processing, every other method awaits payment.
func NewOrder(userID uuid.UUID, total decimal.Decimal, shipping ShippingDetails, paymentMethod string) (*Order, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "user is required")
	}
	if len(shipping) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "shipping details are required")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_INPUT", "total amount must be positive")
	}

	method := NormalizePaymentMethod(paymentMethod)
	status := StatusPendingPayment
	if method == PaymentMethodCOD {
		status = StatusProcessing
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		TotalAmount:       total.Round(2),
		Status:            status,
		ShippingDetails:   shipping,
		PaymentMethod:     method,
		Items:             make([]Item, 0),
	}, nil
}

// NormalizePaymentMethod lower-cases the method; an empty method means cash on delivery
func NormalizePaymentMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		return PaymentMethodCOD
	}
	return method
}

// AddItem appends a line, copying the product price as given
func (o *Order) AddItem(productID uuid.UUID, productName string, quantity int, price decimal.Decimal) (*Item, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "product ID cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "quantity must be at least 1")
	}
	if !price.IsPositive() {
		return nil, shared.NewDomainError("INVALID_PRICE", "price must be positive")
	}

	item := Item{
		ID:          uuid.New(),
		OrderID:     o.ID,
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		Price:       price,
		CreatedAt:   time.Now(),
	}
	o.Items = append(o.Items, item)
	return &o.Items[len(o.Items)-1], nil
}

// Place records the OrderPlaced event once all lines are attached
func (o *Order) Place() {
	o.AddDomainEvent(NewOrderPlacedEvent(o))
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// IsAwaitingPayment reports whether the order is waiting on gateway verification
func (o *Order) IsAwaitingPayment() bool {
	return o.Status == StatusPendingPayment
}

// AttachGatewayOrder records the gateway order created for this order's payment.
// A retry replaces the previous gateway order id.
func (o *Order) AttachGatewayOrder(gatewayOrderID string) error {
	if !o.IsAwaitingPayment() {
		return ErrNotAwaitingPayment
	}
	if strings.TrimSpace(gatewayOrderID) == "" {
		return shared.NewDomainError("INVALID_INPUT", "gateway order id is required")
	}
	o.GatewayOrderID = gatewayOrderID
	o.Touch()
	return nil
}

// CapturePayment moves a pending order to processing and records the gateway ids.
// Capturing the same payment twice is a no-op and reports changed=false.
func (o *Order) CapturePayment(gatewayOrderID, paymentID string) (changed bool, err error) {
	if paymentID == "" {
		return false, shared.NewDomainError("INVALID_INPUT", "payment id is required")
	}
	if o.GatewayPaymentID != "" {
		if o.GatewayPaymentID == paymentID {
			return false, nil
		}
		return false, ErrAlreadyPaid
	}
	if o.Status == StatusCancelled {
		return false, ErrOrderCancelled
	}
	if !o.IsAwaitingPayment() {
		return false, ErrNotAwaitingPayment
	}

	o.Status = StatusProcessing
	if gatewayOrderID != "" {
		o.GatewayOrderID = gatewayOrderID
	}
	o.GatewayPaymentID = paymentID
	o.Touch()

	o.AddDomainEvent(NewPaymentCapturedEvent(o))
	return true, nil
}

// Cancel moves the order to cancelled and returns the cancellation record.
// The caller restocks the items in the same transaction.
func (o *Order) Cancel(reason string, cancelledBy uuid.UUID, role string) (*CancelledOrder, error) {
	if !o.Status.IsCancellable() {
		return nil, shared.NewDomainError("CANNOT_CANCEL", fmt.Sprintf("cannot cancel order in %s status", o.Status))
	}

	previous := o.Status
	record := NewCancelledOrder(o, reason, cancelledBy, role)

	o.Status = StatusCancelled
	o.UpdatedAt = record.CancelledAt

	o.AddDomainEvent(NewOrderCancelledEvent(o, previous, record))
	return record, nil
}

// AdvanceTo moves the order forward along the fulfilment path.
// Cancellation is not accepted here because it must restock through Cancel.
func (o *Order) AdvanceTo(target Status) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("unknown order status %q", target))
	}
	if target == StatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "use cancel to cancel an order")
	}
	if !o.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("cannot move order from %s to %s", o.Status, target))
	}

	previous := o.Status
	o.Status = target
	o.Touch()

	o.AddDomainEvent(NewOrderStatusChangedEvent(o, previous))
	return nil
}

// ItemCount returns the total number of units across lines
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

// Order errors
var (
	ErrNotAwaitingPayment = shared.NewDomainError("INVALID_STATE", "order is not awaiting payment")
	ErrOrderCancelled     = shared.NewDomainError("INVALID_STATE", "order is cancelled")
	ErrAlreadyPaid        = shared.NewDomainError("ALREADY_PAID", "order was already paid with a different payment")
	ErrNoRefundPending    = shared.NewDomainError("INVALID_STATE", "no refund is pending for this order")
)

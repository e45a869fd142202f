package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the order.Order aggregate
type OrderModel struct {
	AggregateModel
	UserID           uuid.UUID        `gorm:"type:uuid;not null;index"`
	TotalAmount      decimal.Decimal  `gorm:"type:decimal(10,2);not null"`
	Status           order.Status     `gorm:"type:varchar(20);not null;index"`
	ShippingDetails  JSONMap          `gorm:"type:jsonb;not null"`
	PaymentMethod    string           `gorm:"type:varchar(50);not null;default:'cod'"`
	GatewayOrderID   *string          `gorm:"type:varchar(100);index"`
	GatewayPaymentID *string          `gorm:"type:varchar(100)"`
	Items            []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the row and any preloaded items into an order.Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.AggregateModel.toDomain(),
		UserID:            m.UserID,
		TotalAmount:       m.TotalAmount,
		Status:            m.Status,
		ShippingDetails:   order.ShippingDetails(m.ShippingDetails),
		PaymentMethod:     m.PaymentMethod,
		GatewayOrderID:    deref(m.GatewayOrderID),
		GatewayPaymentID:  deref(m.GatewayPaymentID),
		Items:             make([]order.Item, 0, len(m.Items)),
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain builds the row and its item rows
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		AggregateModel:   aggregateFromDomain(o.BaseAggregateRoot),
		UserID:           o.UserID,
		TotalAmount:      o.TotalAmount,
		Status:           o.Status,
		ShippingDetails:  JSONMap(o.ShippingDetails),
		PaymentMethod:    o.PaymentMethod,
		GatewayOrderID:   optional(o.GatewayOrderID),
		GatewayPaymentID: optional(o.GatewayPaymentID),
		Items:            make([]OrderItemModel, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		m.Items = append(m.Items, OrderItemModelFromDomain(item))
	}
	return m
}

// OrderItemModel is an order line with the price captured at purchase time
type OrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName string          `gorm:"type:varchar(255);not null"`
	Quantity    int             `gorm:"not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:          m.ID,
		OrderID:     m.OrderID,
		ProductID:   m.ProductID,
		ProductName: m.ProductName,
		Quantity:    m.Quantity,
		Price:       m.Price,
		CreatedAt:   m.CreatedAt,
	}
}

func OrderItemModelFromDomain(i order.Item) OrderItemModel {
	return OrderItemModel{
		ID:          i.ID,
		OrderID:     i.OrderID,
		ProductID:   i.ProductID,
		ProductName: i.ProductName,
		Quantity:    i.Quantity,
		Price:       i.Price,
		CreatedAt:   i.CreatedAt,
	}
}

// CancelledOrderModel is the one-per-order cancellation record
type CancelledOrderModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex"`
	Order        *OrderModel        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Reason       string             `gorm:"type:text;not null"`
	CancelledBy  uuid.UUID          `gorm:"type:uuid;not null"`
	ActorRole    string             `gorm:"type:varchar(20);not null"`
	RefundStatus order.RefundStatus `gorm:"type:varchar(20);not null;index"`
	CancelledAt  time.Time          `gorm:"not null;index"`
	UpdatedAt    time.Time          `gorm:"not null"`
}

func (CancelledOrderModel) TableName() string {
	return "cancelled_orders"
}

func (m *CancelledOrderModel) ToDomain() *order.CancelledOrder {
	return &order.CancelledOrder{
		ID:           m.ID,
		OrderID:      m.OrderID,
		Reason:       m.Reason,
		CancelledBy:  m.CancelledBy,
		ActorRole:    m.ActorRole,
		RefundStatus: m.RefundStatus,
		CancelledAt:  m.CancelledAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func CancelledOrderModelFromDomain(c *order.CancelledOrder) *CancelledOrderModel {
	return &CancelledOrderModel{
		ID:           c.ID,
		OrderID:      c.OrderID,
		Reason:       c.Reason,
		CancelledBy:  c.CancelledBy,
		ActorRole:    c.ActorRole,
		RefundStatus: c.RefundStatus,
		CancelledAt:  c.CancelledAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

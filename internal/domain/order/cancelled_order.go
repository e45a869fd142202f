package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RefundStatus tracks whether money has to go back to the customer
type RefundStatus string

const (
	RefundStatusNotRequired RefundStatus = "not_required"
	RefundStatusPending     RefundStatus = "pending"
	RefundStatusRefunded    RefundStatus = "refunded"
)

// IsValid checks if the refund status is known
func (s RefundStatus) IsValid() bool {
	switch s {
	case RefundStatusNotRequired, RefundStatusPending, RefundStatusRefunded:
		return true
	}
	return false
}

// Actor roles recorded on a cancellation
const (
	CancelledByUser  = "user"
	CancelledByAdmin = "admin"
)

// CancelledOrder is the one-per-order record written when an order is cancelled
type CancelledOrder struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	Reason       string
	CancelledBy  uuid.UUID
	ActorRole    string
	RefundStatus RefundStatus
	CancelledAt  time.Time
	UpdatedAt    time.Time
}

// NewCancelledOrder builds the record for o. A captured gateway payment leaves a
// refund pending; cash on delivery or unpaid orders need none.
func NewCancelledOrder(o *Order, reason string, cancelledBy uuid.UUID, role string) *CancelledOrder {
	refund := RefundStatusNotRequired
	if o.GatewayPaymentID != "" {
		refund = RefundStatusPending
	}
	if role == "" {
		role = CancelledByUser
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided"
	}
	now := time.Now()
	return &CancelledOrder{
		ID:           uuid.New(),
		OrderID:      o.ID,
		Reason:       reason,
		CancelledBy:  cancelledBy,
		ActorRole:    role,
		RefundStatus: refund,
		CancelledAt:  now,
		UpdatedAt:    now,
	}
}

// MarkRefunded settles a pending refund
func (c *CancelledOrder) MarkRefunded() error {
	if c.RefundStatus != RefundStatusPending {
		return ErrNoRefundPending
	}
	c.RefundStatus = RefundStatusRefunded
	c.UpdatedAt = time.Now()
	return nil
}

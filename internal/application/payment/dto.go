package payment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest is the body of POST /payments/create
type CreatePaymentRequest struct {
	TotalAmount *decimal.Decimal `json:"total_amount" swaggertype:"string" example:"499.00"`
	Currency    string           `json:"currency" binding:"omitempty,len=3"`
	OrderID     *uuid.UUID       `json:"order_id"`
}

// IntentResponse is what the client needs to open the gateway checkout
type IntentResponse struct {
	GatewayOrderID string     `json:"razorpay_order_id"`
	Amount         int64      `json:"amount"`
	Currency       string     `json:"currency"`
	KeyID          string     `json:"key_id"`
	OrderID        *uuid.UUID `json:"order_id,omitempty"`
}

// VerifyPaymentRequest is the triple returned by the gateway checkout, plus our order id
type VerifyPaymentRequest struct {
	RazorpayOrderID   string     `json:"razorpay_order_id" binding:"required"`
	RazorpayPaymentID string     `json:"razorpay_payment_id" binding:"required"`
	RazorpaySignature string     `json:"razorpay_signature" binding:"required"`
	OrderID           *uuid.UUID `json:"order_id"`
}

// VerifyResult is returned after a verified payment
type VerifyResult struct {
	Message string     `json:"message"`
	OrderID *uuid.UUID `json:"order_id,omitempty"`
	Status  string     `json:"status,omitempty"`
}

// Package payment defines the port for external payment gateways.
// Concrete adapters live in the infrastructure layer.
package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Payment gateway errors
var (
	ErrInvalidAmount        = errors.New("payment: amount must be positive")
	ErrInvalidCurrency      = errors.New("payment: invalid currency")
	ErrSignatureMismatch    = errors.New("payment: signature verification failed")
	ErrMissingVerifyFields  = errors.New("payment: order id, payment id and signature are required")
	ErrGatewayNotConfigured = errors.New("payment: gateway is not configured")
	ErrGatewayUnavailable   = errors.New("payment: gateway unavailable")
	ErrGatewayRequestFailed = errors.New("payment: gateway request failed")
	ErrIntentMismatch       = errors.New("payment: gateway order does not belong to this order")
)

// DefaultCurrency is used when a request does not name one
const DefaultCurrency = "INR"

// minorUnitsPerMajor is the factor between rupees and paise (or dollars and cents)
var minorUnitsPerMajor = decimal.NewFromInt(100)

// ToMinorUnits converts a major-unit amount into the integer minor units the gateway expects
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// CreateIntentRequest asks the gateway to reserve a payment
type CreateIntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	// Receipt is our own reference, usually the order id
	Receipt string
	Notes   map[string]string
}

// Validate checks the request before it is sent
func (r *CreateIntentRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if ToMinorUnits(r.Amount) < 1 {
		return ErrInvalidAmount
	}
	if r.Currency == "" {
		r.Currency = DefaultCurrency
	}
	r.Currency = strings.ToUpper(r.Currency)
	if len(r.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

// Intent is the gateway's reservation for a payment
type Intent struct {
	ID       string
	Amount   int64 // minor units
	Currency string
	KeyID    string // public key the client uses to open checkout
	Receipt  string
	Status   string
}

// Verification is the triple the client submits after completing a payment
type Verification struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// Validate checks all fields are present
func (v Verification) Validate() error {
	if strings.TrimSpace(v.GatewayOrderID) == "" ||
		strings.TrimSpace(v.GatewayPaymentID) == "" ||
		strings.TrimSpace(v.Signature) == "" {
		return ErrMissingVerifyFields
	}
	return nil
}

// Gateway is the port to a payment provider
type Gateway interface {
	// Name returns the gateway identifier, e.g. "razorpay"
	Name() string

	// CreateIntent creates a remote order for the amount
	CreateIntent(ctx context.Context, req *CreateIntentRequest) (*Intent, error)

	// FetchIntent reads back a remote order by its gateway id
	FetchIntent(ctx context.Context, gatewayOrderID string) (*Intent, error)

	// VerifySignature checks the client-submitted triple.
	// Returns ErrSignatureMismatch when the signature does not match.
	VerifySignature(v Verification) error
}

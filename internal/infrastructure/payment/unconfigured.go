package payment

import (
	"context"

	"github.com/shopline/backend/internal/domain/payment"
)

// UnconfiguredGateway stands in when no gateway credentials are set.
// Cash on delivery keeps working; every online payment call fails.
type UnconfiguredGateway struct{}

var _ payment.Gateway = UnconfiguredGateway{}

// Name returns the gateway identifier
func (UnconfiguredGateway) Name() string { return razorpayGatewayName }

// CreateIntent always fails with ErrGatewayNotConfigured
func (UnconfiguredGateway) CreateIntent(context.Context, *payment.CreateIntentRequest) (*payment.Intent, error) {
	return nil, payment.ErrGatewayNotConfigured
}

// FetchIntent always fails with ErrGatewayNotConfigured
func (UnconfiguredGateway) FetchIntent(context.Context, string) (*payment.Intent, error) {
	return nil, payment.ErrGatewayNotConfigured
}

// VerifySignature always fails with ErrGatewayNotConfigured
func (UnconfiguredGateway) VerifySignature(payment.Verification) error {
	return payment.ErrGatewayNotConfigured
}

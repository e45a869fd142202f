package payment

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"10.00", 1000},
		{"20", 2000},
		{"499.99", 49999},
		{"0.015", 2},
		{"1234.5", 123450},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}
}

func TestCreateIntentRequest_Validate(t *testing.T) {
	t.Run("defaults currency", func(t *testing.T) {
		req := &CreateIntentRequest{Amount: decimal.NewFromInt(5)}
		require.NoError(t, req.Validate())
		assert.Equal(t, DefaultCurrency, req.Currency)
	})

	t.Run("upper-cases currency", func(t *testing.T) {
		req := &CreateIntentRequest{Amount: decimal.NewFromInt(5), Currency: "usd"}
		require.NoError(t, req.Validate())
		assert.Equal(t, "USD", req.Currency)
	})

	t.Run("rejects zero and sub-minor amounts", func(t *testing.T) {
		assert.ErrorIs(t, (&CreateIntentRequest{Amount: decimal.Zero}).Validate(), ErrInvalidAmount)
		assert.ErrorIs(t, (&CreateIntentRequest{Amount: decimal.RequireFromString("0.001")}).Validate(), ErrInvalidAmount)
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		req := &CreateIntentRequest{Amount: decimal.NewFromInt(5), Currency: "RUPEE"}
		assert.ErrorIs(t, req.Validate(), ErrInvalidCurrency)
	})
}

func TestVerification_Validate(t *testing.T) {
	assert.NoError(t, Verification{"order_1", "pay_1", "sig"}.Validate())
	assert.ErrorIs(t, Verification{"order_1", "", "sig"}.Validate(), ErrMissingVerifyFields)
	assert.ErrorIs(t, Verification{" ", "pay_1", "sig"}.Validate(), ErrMissingVerifyFields)
}

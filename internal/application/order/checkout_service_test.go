package order

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newTestProduct(t *testing.T, name, price string, count int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, "", "misc", decimal.RequireFromString(price), count)
	require.NoError(t, err)
	return p
}

func cartLine(userID uuid.UUID, p *catalog.Product, quantity int) cart.Item {
	return cart.Item{ID: uuid.New(), UserID: userID, ProductID: p.ID, Quantity: quantity, Product: p}
}

func checkoutRequest(total, method string) CheckoutRequest {
	amount := decimal.RequireFromString(total)
	return CheckoutRequest{
		ShippingDetails: map[string]interface{}{"address": "1 Main St", "city": "Pune"},
		TotalAmount:     &amount,
		PaymentMethod:   method,
	}
}

func TestCheckout_CashOnDeliveryScenario(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	product := newTestProduct(t, "Product A", "10.00", 5)

	repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{cartLine(userID, product, 2)}, nil)
	repos.ledger.On("Decrement", ctx, product.ID, 2).Return(true, nil)
	repos.orders.On("Create", ctx, mock.AnythingOfType("*order.Order")).Return(nil)
	repos.carts.On("ClearForUser", ctx, userID).Return(nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", ctx, mock.Anything).Return(nil)

	svc := NewCheckoutService(repos.scope(), zap.NewNop())
	svc.SetEventPublisher(publisher)

	result, err := svc.Checkout(ctx, userID, "", checkoutRequest("20.00", "cod"))
	require.NoError(t, err)
	assert.Equal(t, "Order placed successfully", result.Message)
	assert.Equal(t, "processing", result.Status)
	assert.Empty(t, result.SkippedItems)

	created := repos.orders.Calls[0].Arguments.Get(1).(*order.Order)
	assert.Equal(t, result.OrderID, created.ID)
	require.Len(t, created.Items, 1)
	assert.Equal(t, 2, created.Items[0].Quantity)
	assert.True(t, created.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, "Product A", created.Items[0].ProductName)
	assert.Empty(t, created.GetDomainEvents(), "events are cleared once published")

	repos.ledger.AssertExpectations(t)
	repos.carts.AssertExpectations(t)
	publisher.AssertNumberOfCalls(t, "Publish", 1)
}

func TestCheckout_StatusByPaymentMethod(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{method: "cod", want: "processing"},
		{method: "COD", want: "processing"},
		{method: "", want: "processing"},
		{method: "razorpay", want: "pending_payment"},
		{method: "card", want: "pending_payment"},
	}
	for _, tt := range tests {
		t.Run("method "+tt.method, func(t *testing.T) {
			ctx := context.Background()
			repos := newTestRepos()
			userID := uuid.New()
			product := newTestProduct(t, "Mug", "7.50", 3)

			repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{cartLine(userID, product, 1)}, nil)
			repos.ledger.On("Decrement", ctx, product.ID, 1).Return(true, nil)
			repos.orders.On("Create", ctx, mock.Anything).Return(nil)
			repos.carts.On("ClearForUser", ctx, userID).Return(nil)

			result, err := NewCheckoutService(repos.scope(), zap.NewNop()).
				Checkout(ctx, userID, "", checkoutRequest("7.50", tt.method))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
		})
	}
}

func TestCheckout_EmptyCartCreatesNoOrder(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{}, nil)

	_, err := NewCheckoutService(repos.scope(), zap.NewNop()).
		Checkout(ctx, userID, "", checkoutRequest("10.00", "cod"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCartEmpty)
	assert.Equal(t, "cart is empty", err.Error())

	repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repos.carts.AssertNotCalled(t, "ClearForUser", mock.Anything, mock.Anything)
}

func TestCheckout_RejectsInvalidInputBeforeTouchingStore(t *testing.T) {
	zero := decimal.Zero
	tests := []struct {
		name string
		req  CheckoutRequest
		want string
	}{
		{name: "missing shipping details", req: CheckoutRequest{TotalAmount: &zero}, want: "shipping details are required"},
		{
			name: "missing total",
			req:  CheckoutRequest{ShippingDetails: map[string]interface{}{"a": "b"}},
			want: "total amount is required",
		},
		{
			name: "zero total",
			req:  CheckoutRequest{ShippingDetails: map[string]interface{}{"a": "b"}, TotalAmount: &zero},
			want: "total amount must be positive",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := newTestRepos()
			_, err := NewCheckoutService(repos.scope(), zap.NewNop()).
				Checkout(context.Background(), uuid.New(), "", tt.req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			repos.carts.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_InsufficientStockLineIsSkippedNotFailed(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	inStock := newTestProduct(t, "Pen", "2.00", 10)
	soldOut := newTestProduct(t, "Lamp", "30.00", 1)

	repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{
		cartLine(userID, inStock, 3),
		cartLine(userID, soldOut, 2),
	}, nil)
	repos.ledger.On("Decrement", ctx, inStock.ID, 3).Return(true, nil)
	repos.ledger.On("Decrement", ctx, soldOut.ID, 2).Return(false, nil)
	repos.orders.On("Create", ctx, mock.Anything).Return(nil)
	repos.carts.On("ClearForUser", ctx, userID).Return(nil)

	core, logs := observer.New(zap.WarnLevel)
	result, err := NewCheckoutService(repos.scope(), zap.New(core)).
		Checkout(ctx, userID, "", checkoutRequest("66.00", "razorpay"))
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{soldOut.ID}, result.SkippedItems)
	created := repos.orders.Calls[0].Arguments.Get(1).(*order.Order)
	require.Len(t, created.Items, 1)
	assert.Equal(t, inStock.ID, created.Items[0].ProductID)
	repos.carts.AssertCalled(t, "ClearForUser", ctx, userID)
	assert.Equal(t, 1, logs.FilterMessage("Skipping cart line with insufficient stock").Len())
}

func TestCheckout_StoreFailureRollsBackAndSurfaces(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	product := newTestProduct(t, "Pen", "2.00", 10)
	boom := errors.New("connection reset")

	repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{cartLine(userID, product, 1)}, nil)
	repos.ledger.On("Decrement", ctx, product.ID, 1).Return(false, boom)

	_, err := NewCheckoutService(repos.scope(), zap.NewNop()).
		Checkout(ctx, userID, "", checkoutRequest("2.00", "cod"))
	assert.ErrorIs(t, err, boom)
	repos.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	scopedKey := "checkout:" + userID.String() + ":key-1"

	t.Run("replay is rejected", func(t *testing.T) {
		repos := newTestRepos()
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", ctx, scopedKey, mock.Anything).Return(false, nil)

		svc := NewCheckoutService(repos.scope(), zap.NewNop())
		svc.SetIdempotencyStore(store, 0)

		_, err := svc.Checkout(ctx, userID, "key-1", checkoutRequest("1.00", "cod"))
		assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
		repos.carts.AssertNotCalled(t, "FindByUser", mock.Anything, mock.Anything)
	})

	t.Run("failed checkout releases the key", func(t *testing.T) {
		repos := newTestRepos()
		repos.carts.On("FindByUser", ctx, userID).Return([]cart.Item{}, nil)
		store := new(MockIdempotencyStore)
		store.On("MarkProcessed", ctx, scopedKey, mock.Anything).Return(true, nil)
		store.On("Release", ctx, scopedKey).Return(nil)

		svc := NewCheckoutService(repos.scope(), zap.NewNop())
		svc.SetIdempotencyStore(store, 0)

		_, err := svc.Checkout(ctx, userID, "key-1", checkoutRequest("1.00", "cod"))
		assert.ErrorIs(t, err, ErrCartEmpty)
		store.AssertExpectations(t)
	})
}

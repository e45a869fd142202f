package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPlacedOrder(t *testing.T, userID uuid.UUID, method string) *order.Order {
	t.Helper()
	o, err := order.NewOrder(userID, decimal.RequireFromString("25.00"), order.ShippingDetails{"city": "Pune"}, method)
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Pen", 2, decimal.RequireFromString("5.00"))
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Book", 1, decimal.RequireFromString("15.00"))
	require.NoError(t, err)
	return o
}

func TestOrderService_CancelRestocksEveryLine(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "cod")

	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.cancellations.On("Create", ctx, mock.AnythingOfType("*order.CancelledOrder")).Return(nil)
	for _, item := range o.Items {
		repos.ledger.On("Increment", ctx, item.ProductID, item.Quantity).Return(nil).Once()
	}
	repos.orders.On("SaveWithLock", ctx, o).Return(nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	result, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, CancelOrderRequest{Reason: "changed my mind"})
	require.NoError(t, err)

	assert.Equal(t, "Order cancelled successfully", result.Message)
	assert.Equal(t, string(order.RefundStatusNotRequired), result.RefundStatus)
	assert.Equal(t, order.StatusCancelled, o.Status)

	record := repos.cancellations.Calls[0].Arguments.Get(1).(*order.CancelledOrder)
	assert.Equal(t, "changed my mind", record.Reason)
	assert.Equal(t, userID, record.CancelledBy)
	assert.Equal(t, order.CancelledByUser, record.ActorRole)

	repos.ledger.AssertExpectations(t)
	repos.cancellations.AssertNumberOfCalls(t, "Create", 1)
}

func TestOrderService_CancelPaidOrderLeavesRefundPending(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "razorpay")
	_, err := o.CapturePayment("order_1", "pay_1")
	require.NoError(t, err)

	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.cancellations.On("Create", ctx, mock.Anything).Return(nil)
	repos.ledger.On("Increment", ctx, mock.Anything, mock.Anything).Return(nil)
	repos.orders.On("SaveWithLock", ctx, o).Return(nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	result, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, CancelOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(order.RefundStatusPending), result.RefundStatus)
}

func TestOrderService_CancelOtherUsersOrderIsNotFound(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	o := newPlacedOrder(t, uuid.New(), "cod")
	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	_, err := svc.Cancel(ctx, Actor{UserID: uuid.New()}, o.ID, CancelOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, order.StatusProcessing, o.Status)
	repos.ledger.AssertNotCalled(t, "Increment", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_AdminMayCancelAnyOrder(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	adminID := uuid.New()
	o := newPlacedOrder(t, uuid.New(), "cod")

	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.cancellations.On("Create", ctx, mock.Anything).Return(nil)
	repos.ledger.On("Increment", ctx, mock.Anything, mock.Anything).Return(nil)
	repos.orders.On("SaveWithLock", ctx, o).Return(nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	_, err := svc.Cancel(ctx, Actor{UserID: adminID, IsAdmin: true}, o.ID, CancelOrderRequest{Reason: "fraud"})
	require.NoError(t, err)

	record := repos.cancellations.Calls[0].Arguments.Get(1).(*order.CancelledOrder)
	assert.Equal(t, adminID, record.CancelledBy)
	assert.Equal(t, order.CancelledByAdmin, record.ActorRole)
}

func TestOrderService_CancelRejectedStatuses(t *testing.T) {
	for _, status := range []order.Status{order.StatusDelivered, order.StatusCancelled} {
		t.Run(string(status), func(t *testing.T) {
			ctx := context.Background()
			repos := newTestRepos()
			userID := uuid.New()
			o := newPlacedOrder(t, userID, "cod")
			o.Status = status
			repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)

			svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
			_, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, CancelOrderRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "cannot cancel order in "+string(status)+" status")
			repos.cancellations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			repos.orders.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderService_CancelSkipsMissingProducts(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "cod")

	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.cancellations.On("Create", ctx, mock.Anything).Return(nil)
	repos.ledger.On("Increment", ctx, o.Items[0].ProductID, 2).Return(shared.ErrNotFound)
	repos.ledger.On("Increment", ctx, o.Items[1].ProductID, 1).Return(nil)
	repos.orders.On("SaveWithLock", ctx, o).Return(nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	_, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, CancelOrderRequest{})
	require.NoError(t, err)
	repos.ledger.AssertExpectations(t)
}

func TestOrderService_CancelVersionConflict(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "cod")

	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.cancellations.On("Create", ctx, mock.Anything).Return(nil)
	repos.ledger.On("Increment", ctx, mock.Anything, mock.Anything).Return(nil)
	repos.orders.On("SaveWithLock", ctx, o).Return(shared.ErrConcurrencyConflict)

	publisher := new(MockEventPublisher)
	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	svc.SetEventPublisher(publisher)

	_, err := svc.Cancel(ctx, Actor{UserID: userID}, o.ID, CancelOrderRequest{})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	o := newPlacedOrder(t, uuid.New(), "cod")
	repos.orders.On("FindByIDForUpdate", ctx, o.ID).Return(o, nil)
	repos.orders.On("SaveWithLock", ctx, o).Return(nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	resp, err := svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, "shipped", resp.Status)

	_, err = svc.UpdateStatus(ctx, o.ID, UpdateStatusRequest{Status: "processing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestOrderService_ListUsesCallerAndDefaults(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "cod")

	repos.orders.On("FindAll", ctx, mock.MatchedBy(func(f order.Filter) bool {
		return f.UserID != nil && *f.UserID == userID &&
			f.Page == 1 && f.PageSize == shared.DefaultPageSize && f.OrderDir == "desc"
	})).Return([]order.Order{*o}, int64(9), nil)

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	page, err := svc.List(ctx, userID, ListOrdersFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(9), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.Items[0].ItemCount)
}

func TestOrderService_MarkRefunded(t *testing.T) {
	ctx := context.Background()
	repos := newTestRepos()
	o := newPlacedOrder(t, uuid.New(), "razorpay")
	_, err := o.CapturePayment("order_1", "pay_1")
	require.NoError(t, err)
	record := order.NewCancelledOrder(o, "", o.UserID, order.CancelledByUser)

	repos.cancellations.On("FindByOrderIDForUpdate", ctx, o.ID).Return(record, nil)
	repos.cancellations.On("Save", ctx, record).Return(nil).Once()

	svc := NewOrderService(repos.orders, repos.cancellations, repos.scope(), zap.NewNop())
	resp, err := svc.MarkRefunded(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "refunded", resp.RefundStatus)

	_, err = svc.MarkRefunded(ctx, o.ID)
	assert.ErrorIs(t, err, order.ErrNoRefundPending)
	repos.cancellations.AssertNumberOfCalls(t, "Save", 1)
	repos.cancellations.AssertNotCalled(t, "FindByOrderID", mock.Anything, mock.Anything)
}

type stubRenderer struct {
	rendered *order.Order
}

func (r *stubRenderer) Render(_ context.Context, o *order.Order) ([]byte, error) {
	r.rendered = o
	return []byte("%PDF-1.4"), nil
}

func TestInvoiceService(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	o := newPlacedOrder(t, userID, "cod")

	t.Run("unavailable without renderer", func(t *testing.T) {
		_, _, err := NewInvoiceService(new(MockOrderRepository), nil).Invoice(ctx, Actor{UserID: userID}, o.ID)
		assert.ErrorIs(t, err, ErrInvoiceUnavailable)
	})

	t.Run("owner receives pdf", func(t *testing.T) {
		orders := new(MockOrderRepository)
		orders.On("FindByIDForUser", ctx, userID, o.ID).Return(o, nil)
		renderer := &stubRenderer{}

		pdf, name, err := NewInvoiceService(orders, renderer).Invoice(ctx, Actor{UserID: userID}, o.ID)
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4"), pdf)
		assert.Equal(t, "invoice-"+o.ID.String()[:8]+".pdf", name)
		assert.Same(t, o, renderer.rendered)
	})
}

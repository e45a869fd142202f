package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	args := m.Called(ctx, gatewayOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

// MockCancellationRepository is a mock implementation of order.CancellationRepository
type MockCancellationRepository struct {
	mock.Mock
}

func (m *MockCancellationRepository) Create(ctx context.Context, record *order.CancelledOrder) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockCancellationRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*order.CancelledOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CancelledOrder), args.Error(1)
}

func (m *MockCancellationRepository) FindByOrderIDForUpdate(ctx context.Context, orderID uuid.UUID) (*order.CancelledOrder, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CancelledOrder), args.Error(1)
}

func (m *MockCancellationRepository) FindAll(ctx context.Context, filter shared.Filter, refund order.RefundStatus) ([]order.CancelledOrder, int64, error) {
	args := m.Called(ctx, filter, refund)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.CancelledOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockCancellationRepository) Save(ctx context.Context, record *order.CancelledOrder) error {
	return m.Called(ctx, record).Error(0)
}

// MockCartRepository is a mock implementation of cart.Repository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Item), args.Error(1)
}

func (m *MockCartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*cart.Item, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*cart.Item, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Item), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, item *cart.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockCartRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockCartRepository) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

// MockStockLedger is a mock implementation of catalog.StockLedger
type MockStockLedger struct {
	mock.Mock
}

func (m *MockStockLedger) Decrement(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockLedger) Increment(ctx context.Context, productID uuid.UUID, quantity int) error {
	return m.Called(ctx, productID, quantity).Error(0)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return nil
}

type testRepos struct {
	orders        *MockOrderRepository
	cancellations *MockCancellationRepository
	carts         *MockCartRepository
	ledger        *MockStockLedger
}

func newTestRepos() *testRepos {
	return &testRepos{
		orders:        new(MockOrderRepository),
		cancellations: new(MockCancellationRepository),
		carts:         new(MockCartRepository),
		ledger:        new(MockStockLedger),
	}
}

func (r *testRepos) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.orders, r.cancellations, r.carts, r.ledger)
}

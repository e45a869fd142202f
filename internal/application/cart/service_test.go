package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

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

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func newProduct(t *testing.T, price string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct("Mug", "", "kitchen", decimal.RequireFromString(price), 20)
	require.NoError(t, err)
	return p
}

func TestService_AddCreatesLineWithDefaultQuantity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	p := newProduct(t, "4.50")

	products := new(MockProductRepository)
	products.On("FindByID", ctx, p.ID).Return(p, nil)
	carts := new(MockCartRepository)
	carts.On("FindByUserAndProduct", ctx, userID, p.ID).Return(nil, shared.ErrNotFound)
	carts.On("Save", ctx, mock.MatchedBy(func(item *cart.Item) bool { return item.Quantity == 1 })).Return(nil)

	resp, created, err := NewService(carts, products, zap.NewNop()).Add(ctx, userID, AddItemRequest{ProductID: p.ID})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, resp.Quantity)
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("4.50")))
	carts.AssertExpectations(t)
}

func TestService_AddIncrementsExistingLine(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	p := newProduct(t, "2.00")
	existing, err := cart.NewItem(userID, p.ID, 3)
	require.NoError(t, err)

	products := new(MockProductRepository)
	products.On("FindByID", ctx, p.ID).Return(p, nil)
	carts := new(MockCartRepository)
	carts.On("FindByUserAndProduct", ctx, userID, p.ID).Return(existing, nil)
	carts.On("Save", ctx, existing).Return(nil).Once()

	svc := NewService(carts, products, zap.NewNop())
	resp, created, err := svc.Add(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 5, resp.Quantity)

	_, _, err = svc.Add(ctx, userID, AddItemRequest{ProductID: p.ID, Quantity: 1})
	assert.ErrorIs(t, err, cart.ErrQuantityLimit)
	assert.Equal(t, 5, existing.Quantity)
	carts.AssertNumberOfCalls(t, "Save", 1)
}

func TestService_AddInactiveProduct(t *testing.T) {
	ctx := context.Background()
	p := newProduct(t, "2.00")
	p.Deactivate()
	products := new(MockProductRepository)
	products.On("FindByID", ctx, p.ID).Return(p, nil)

	_, _, err := NewService(new(MockCartRepository), products, zap.NewNop()).
		Add(ctx, uuid.New(), AddItemRequest{ProductID: p.ID})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	item, err := cart.NewItem(userID, uuid.New(), 1)
	require.NoError(t, err)

	carts := new(MockCartRepository)
	carts.On("FindByIDForUser", ctx, userID, item.ID).Return(item, nil)
	carts.On("Save", ctx, item).Return(nil)
	svc := NewService(carts, new(MockProductRepository), zap.NewNop())

	resp, err := svc.UpdateQuantity(ctx, userID, item.ID, UpdateItemRequest{Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Quantity)

	_, err = svc.UpdateQuantity(ctx, userID, item.ID, UpdateItemRequest{Quantity: 6})
	assert.ErrorIs(t, err, cart.ErrQuantityLimit)

	other := uuid.New()
	carts.On("FindByIDForUser", ctx, other, item.ID).Return(nil, shared.ErrNotFound)
	_, err = svc.UpdateQuantity(ctx, other, item.ID, UpdateItemRequest{Quantity: 2})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestService_ListSumsTotal(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	a := newProduct(t, "10.00")
	b := newProduct(t, "0.99")
	items := []cart.Item{
		{ID: uuid.New(), UserID: userID, ProductID: a.ID, Quantity: 2, Product: a},
		{ID: uuid.New(), UserID: userID, ProductID: b.ID, Quantity: 3, Product: b},
	}
	carts := new(MockCartRepository)
	carts.On("FindByUser", ctx, userID).Return(items, nil)

	resp, err := NewService(carts, new(MockProductRepository), zap.NewNop()).List(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 5, resp.ItemCount)
	assert.True(t, resp.Total.Equal(decimal.RequireFromString("22.97")))
}

func TestService_Remove(t *testing.T) {
	ctx := context.Background()
	userID, itemID := uuid.New(), uuid.New()
	carts := new(MockCartRepository)
	carts.On("DeleteForUser", ctx, userID, itemID).Return(shared.ErrNotFound)

	err := NewService(carts, new(MockProductRepository), zap.NewNop()).Remove(ctx, userID, itemID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

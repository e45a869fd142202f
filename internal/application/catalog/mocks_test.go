package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
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
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
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

// MockWishlistRepository is a mock implementation of catalog.WishlistRepository
type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]catalog.WishlistItem, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.WishlistItem), args.Error(1)
}

func (m *MockWishlistRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*catalog.WishlistItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.WishlistItem), args.Error(1)
}

func (m *MockWishlistRepository) Save(ctx context.Context, item *catalog.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockWishlistRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

// MockObjectStorage is a mock implementation of ObjectStorageService
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	return m.Called(ctx, storageKey).Error(0)
}

func (m *MockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

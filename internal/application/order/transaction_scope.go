package order

import (
	"context"

	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/order"
)

// TransactionScope runs checkout, cancellation and payment capture atomically.
// Every repository handed to fn shares one database transaction.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the current transaction
type TransactionalRepositories interface {
	OrderRepo() order.Repository
	CancellationRepo() order.CancellationRepository
	CartRepo() cart.Repository
	StockLedger() catalog.StockLedger
}

// NoOpTransactionScope calls fn directly with fixed repositories.
// Used by unit tests where the repositories are mocks.
type NoOpTransactionScope struct {
	orderRepo        order.Repository
	cancellationRepo order.CancellationRepository
	cartRepo         cart.Repository
	stockLedger      catalog.StockLedger
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	orderRepo order.Repository,
	cancellationRepo order.CancellationRepository,
	cartRepo cart.Repository,
	stockLedger catalog.StockLedger,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orderRepo:        orderRepo,
		cancellationRepo: cancellationRepo,
		cartRepo:         cartRepo,
		stockLedger:      stockLedger,
	}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// OrderRepo returns the order repository
func (s *NoOpTransactionScope) OrderRepo() order.Repository {
	return s.orderRepo
}

// CancellationRepo returns the cancellation repository
func (s *NoOpTransactionScope) CancellationRepo() order.CancellationRepository {
	return s.cancellationRepo
}

// CartRepo returns the cart repository
func (s *NoOpTransactionScope) CartRepo() cart.Repository {
	return s.cartRepo
}

// StockLedger returns the stock ledger
func (s *NoOpTransactionScope) StockLedger() catalog.StockLedger {
	return s.stockLedger
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)

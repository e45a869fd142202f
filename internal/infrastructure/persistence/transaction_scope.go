package persistence

import (
	"context"

	apporder "github.com/shopline/backend/internal/application/order"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements apporder.TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) OrderRepo() order.Repository {
	return NewGormOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) CancellationRepo() order.CancellationRepository {
	return NewGormCancellationRepository(r.tx)
}

func (r *gormTransactionalRepositories) CartRepo() cart.Repository {
	return NewGormCartRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockLedger() catalog.StockLedger {
	return NewGormStockLedger(r.tx)
}

var _ apporder.TransactionScope = (*GormTransactionScope)(nil)
var _ apporder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

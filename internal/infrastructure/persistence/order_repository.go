package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC").Order("id")
	})
}

func (r *GormOrderRepository) first(query *gorm.DB, where string, args ...interface{}) (*order.Order, error) {
	var m models.OrderModel
	if err := query.Where(where, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.first(r.withItems(ctx), "id = ?", id)
}

// FindByIDForUser finds an order only if userID placed it
func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	return r.first(r.withItems(ctx), "id = ? AND user_id = ?", id, userID)
}

// FindByIDForUpdate locks the order row with SELECT ... FOR UPDATE.
// Must be called inside a transaction for the lock to be held.
func (r *GormOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	return r.first(r.withItems(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByGatewayOrderID finds the order a gateway order id is attached to
func (r *GormOrderRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	if gatewayOrderID == "" {
		return nil, shared.ErrNotFound
	}
	return r.first(r.withItems(ctx), "gateway_order_id = ?", gatewayOrderID)
}

// FindAll returns one page of orders and the total number of matches
func (r *GormOrderRepository) FindAll(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "created_at")
	var rows []models.OrderModel
	err := query.
		Preload("Items").
		Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// Create inserts the order together with its items
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Create(models.OrderModelFromDomain(o)).Error
}

// SaveWithLock writes the mutable order columns guarded by the version the
// order was loaded with, then advances the in-memory version.
func (r *GormOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now()
	}
	m := models.OrderModelFromDomain(o)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"status":             m.Status,
			"gateway_order_id":   m.GatewayOrderID,
			"gateway_payment_id": m.GatewayPaymentID,
			"version":            o.Version + 1,
			"updated_at":         o.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	o.IncrementVersion()
	return nil
}

var _ order.Repository = (*GormOrderRepository)(nil)

// GormCancellationRepository implements order.CancellationRepository using GORM
type GormCancellationRepository struct {
	db *gorm.DB
}

// NewGormCancellationRepository creates a new GormCancellationRepository
func NewGormCancellationRepository(db *gorm.DB) *GormCancellationRepository {
	return &GormCancellationRepository{db: db}
}

// Create inserts the record. The unique order_id index rejects a second record.
func (r *GormCancellationRepository) Create(ctx context.Context, record *order.CancelledOrder) error {
	err := r.db.WithContext(ctx).Create(models.CancelledOrderModelFromDomain(record)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError("ALREADY_CANCELLED", "order was already cancelled")
	}
	return err
}

func (r *GormCancellationRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*order.CancelledOrder, error) {
	return r.firstByOrderID(r.db.WithContext(ctx), orderID)
}

// FindByOrderIDForUpdate locks the cancellation row (SELECT ... FOR UPDATE)
func (r *GormCancellationRepository) FindByOrderIDForUpdate(ctx context.Context, orderID uuid.UUID) (*order.CancelledOrder, error) {
	return r.firstByOrderID(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), orderID)
}

func (r *GormCancellationRepository) firstByOrderID(db *gorm.DB, orderID uuid.UUID) (*order.CancelledOrder, error) {
	var m models.CancelledOrderModel
	if err := db.Where("order_id = ?", orderID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormCancellationRepository) FindAll(ctx context.Context, filter shared.Filter, refund order.RefundStatus) ([]order.CancelledOrder, int64, error) {
	filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.CancelledOrderModel{})
	if refund != "" {
		query = query.Where("refund_status = ?", refund)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, CancellationSortFields, "cancelled_at")
	var rows []models.CancelledOrderModel
	err := query.
		Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	records := make([]order.CancelledOrder, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, total, nil
}

// Save updates the refund status of an existing record
func (r *GormCancellationRepository) Save(ctx context.Context, record *order.CancelledOrder) error {
	result := r.db.WithContext(ctx).
		Model(&models.CancelledOrderModel{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"refund_status": record.RefundStatus,
			"updated_at":    record.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ order.CancellationRepository = (*GormCancellationRepository)(nil)

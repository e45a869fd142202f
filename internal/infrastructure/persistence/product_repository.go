package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindByIDs loads several products in one query; missing ids are absent from the map
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

// FindAll returns one page of products and the total number of matches
func (r *GormProductRepository) FindAll(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})

	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if c := strings.TrimSpace(filter.Category); c != "" && !strings.EqualFold(c, "all") {
		query = query.Where("LOWER(category) = ?", strings.ToLower(c))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, ProductSortFields, "created_at")
	var rows []models.ProductModel
	err := query.
		Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).
		Order("id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	products := make([]catalog.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, total, nil
}

// Save inserts the product or updates its descriptive columns.
// The stock count is written only on insert; later changes go through the stock ledger.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "category", "price", "images", "is_active", "updated_at",
		}),
	}).Create(m).Error
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// GormStockLedger adjusts product counts with single conditional UPDATE statements
type GormStockLedger struct {
	db *gorm.DB
}

// NewGormStockLedger creates a ledger bound to db, normally a transaction handle
func NewGormStockLedger(db *gorm.DB) *GormStockLedger {
	return &GormStockLedger{db: db}
}

// Decrement subtracts quantity only while enough stock remains.
// Zero rows affected means the stock was insufficient or the product is gone.
func (l *GormStockLedger) Decrement(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	if quantity < 1 {
		return false, shared.NewDomainError("INVALID_QUANTITY", "quantity must be at least 1")
	}
	result := l.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ? AND count >= ?", productID, quantity).
		UpdateColumn("count", gorm.Expr("count - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Increment returns quantity to stock
func (l *GormStockLedger) Increment(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return shared.NewDomainError("INVALID_QUANTITY", "quantity must be at least 1")
	}
	result := l.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		UpdateColumn("count", gorm.Expr("count + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.StockLedger = (*GormStockLedger)(nil)

package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/cart"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser lists the user's cart lines, oldest first, with products preloaded
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]cart.Item, error) {
	var rows []models.CartItemModel
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]cart.Item, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

func (r *GormCartRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*cart.Item, error) {
	return r.findOne(ctx, "user_id = ? AND product_id = ?", userID, productID)
}

func (r *GormCartRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*cart.Item, error) {
	return r.findOne(ctx, "user_id = ? AND id = ?", userID, id)
}

func (r *GormCartRepository) findOne(ctx context.Context, query string, args ...interface{}) (*cart.Item, error) {
	var m models.CartItemModel
	if err := r.db.WithContext(ctx).Preload("Product").Where(query, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save inserts a new line or updates the quantity of an existing one
func (r *GormCartRepository) Save(ctx context.Context, item *cart.Item) error {
	m := models.CartItemModelFromDomain(item)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(m).Error
}

func (r *GormCartRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.CartItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearForUser deletes every line in the user's cart
func (r *GormCartRepository) ClearForUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItemModel{}).Error
}

var _ cart.Repository = (*GormCartRepository)(nil)

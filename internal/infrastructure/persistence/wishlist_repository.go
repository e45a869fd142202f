package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/catalog"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWishlistRepository implements catalog.WishlistRepository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]catalog.WishlistItem, error) {
	var rows []models.WishlistItemModel
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]catalog.WishlistItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

func (r *GormWishlistRepository) FindByUserAndProduct(ctx context.Context, userID, productID uuid.UUID) (*catalog.WishlistItem, error) {
	var m models.WishlistItemModel
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ? AND product_id = ?", userID, productID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormWishlistRepository) Save(ctx context.Context, item *catalog.WishlistItem) error {
	return r.db.WithContext(ctx).Create(models.WishlistItemModelFromDomain(item)).Error
}

func (r *GormWishlistRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.WishlistItemModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ catalog.WishlistRepository = (*GormWishlistRepository)(nil)

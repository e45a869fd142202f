package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/identity"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormUserRepository implements identity.UserRepository using GORM
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GormUserRepository
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByUsername matches the username exactly
func (r *GormUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.first(ctx, "username = ?", strings.TrimSpace(username))
}

func (r *GormUserRepository) first(ctx context.Context, where string, args ...interface{}) (*identity.User, error) {
	var m models.UserModel
	if err := r.db.WithContext(ctx).Where(where, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

func (r *GormUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, int64, error) {
	filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.UserModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}
	if blocked, ok := filter.Filters["is_blocked"].(bool); ok {
		query = query.Where("is_blocked = ?", blocked)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	sortField := ValidateSortField(filter.OrderBy, UserSortFields, "created_at")
	var rows []models.UserModel
	err := query.
		Order(sortField + " " + ValidateSortOrder(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]identity.User, len(rows))
	for i := range rows {
		users[i] = *rows[i].ToDomain()
	}
	return users, total, nil
}

func (r *GormUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserModel{}).
		Where("username = ?", strings.TrimSpace(username)).
		Count(&count).Error
	return count > 0, err
}

// Save inserts the user or updates its mutable columns
func (r *GormUserRepository) Save(ctx context.Context, user *identity.User) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email", "password_hash", "role", "is_blocked", "last_login_at", "updated_at",
		}),
	}).Create(models.UserModelFromDomain(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError("ALREADY_EXISTS", "username is already taken")
	}
	return err
}

var _ identity.UserRepository = (*GormUserRepository)(nil)

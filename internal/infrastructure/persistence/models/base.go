package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopline/backend/internal/domain/shared"
)

// BaseModel holds the columns shared by every table
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// AggregateModel adds the optimistic-lock version used by aggregate roots
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

func aggregateFromDomain(a shared.BaseAggregateRoot) AggregateModel {
	return AggregateModel{
		BaseModel: BaseModel{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt},
		Version:   a.Version,
	}
}

func (m AggregateModel) toDomain() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
}

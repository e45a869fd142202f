package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseAggregateRoot(t *testing.T) {
	a := NewBaseAggregateRoot()
	assert.NotEqual(t, uuid.Nil, a.GetID())
	assert.Equal(t, 1, a.GetVersion())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)

	a.IncrementVersion()
	assert.Equal(t, 2, a.GetVersion())
}

func TestBaseEntity_Touch(t *testing.T) {
	e := NewBaseEntity()
	e.UpdatedAt = e.UpdatedAt.Add(-time.Hour)
	before := e.UpdatedAt

	e.Touch()

	assert.True(t, e.UpdatedAt.After(before))
	assert.False(t, e.UpdatedAt.Before(e.CreatedAt))
}

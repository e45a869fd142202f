package cart

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  string
	}{
		{name: "single unit", quantity: 1},
		{name: "at the cap", quantity: MaxQuantityPerItem},
		{name: "zero", quantity: 0, wantErr: "at least 1"},
		{name: "negative", quantity: -2, wantErr: "at least 1"},
		{name: "over the cap", quantity: MaxQuantityPerItem + 1, wantErr: "cannot exceed 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewItem(uuid.New(), uuid.New(), tt.quantity)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.quantity, item.Quantity)
			assert.NotEqual(t, uuid.Nil, item.ID)
		})
	}
}

func TestItem_Add(t *testing.T) {
	item, err := NewItem(uuid.New(), uuid.New(), 2)
	require.NoError(t, err)

	require.NoError(t, item.Add(3))
	assert.Equal(t, 5, item.Quantity)

	err = item.Add(1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQuantityLimit))
	assert.Equal(t, 5, item.Quantity, "rejected increment leaves quantity unchanged")

	assert.Error(t, item.Add(0))
}

func TestItem_SetQuantity(t *testing.T) {
	item, err := NewItem(uuid.New(), uuid.New(), 4)
	require.NoError(t, err)

	require.NoError(t, item.SetQuantity(1))
	assert.Equal(t, 1, item.Quantity)
	assert.ErrorIs(t, item.SetQuantity(6), ErrQuantityLimit)
}

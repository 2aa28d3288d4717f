package kvstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetGet(t *testing.T) {
	store := New(nil)

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("count", 3)
	value, ok := store.Get("count")
	require.True(t, ok)
	assert.Equal(t, 3, value)

	store.Set("count", 4)
	value, _ = store.Get("count")
	assert.Equal(t, 4, value)
}

func TestStore_SeededFromInitial(t *testing.T) {
	store := New(map[string]any{"mode": "fast", "limit": 10})

	assert.Equal(t, 2, store.Len())
	value, ok := store.Get("mode")
	require.True(t, ok)
	assert.Equal(t, "fast", value)
}

func TestStore_Delete(t *testing.T) {
	store := New(map[string]any{"mode": "fast"})

	require.NoError(t, store.Delete("mode"))
	assert.Equal(t, 0, store.Len())

	err := store.Delete("mode")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestStore_Clear(t *testing.T) {
	store := New(map[string]any{"a": 1, "b": 2})

	store.Clear()
	assert.Equal(t, 0, store.Len())

	store.Set("c", 3)
	assert.Equal(t, 1, store.Len())
}

func TestStore_UpdateKeepsRuntimeType(t *testing.T) {
	store := New(map[string]any{"count": 3, "rate": 1.5})

	require.NoError(t, store.Update("count", 7))
	value, _ := store.Get("count")
	assert.Equal(t, 7, value)

	// Numeric widening is rejected: an int entry stays an int.
	err := store.Update("count", 7.0)
	assert.ErrorIs(t, err, ErrTypeMismatch)

	err = store.Update("rate", "fast")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestStore_UpdateMissingKey(t *testing.T) {
	store := New(nil)

	err := store.Update("ghost", 1)
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

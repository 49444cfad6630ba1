package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func TestMapSetGetDelete(t *testing.T) {
	m := object.NewMap()
	key := value.FromObj(object.NewString("a"))
	m.Set(key, value.Number(1))

	got, ok := m.Get(key)
	require.True(t, ok)
	require.Equal(t, 1.0, got.AsNumber())

	require.True(t, m.Delete(key))
	_, ok = m.Get(key)
	require.False(t, ok)
	require.Equal(t, 0, m.Len())
}

func TestMapStringKeysCompareByContent(t *testing.T) {
	m := object.NewMap()
	m.Set(value.FromObj(object.NewString("hello")), value.Number(1))

	// A distinct *String object with the same bytes must still find the
	// same slot: map keys compare strings structurally, not by identity.
	got, ok := m.Get(value.FromObj(object.NewString("hello")))
	require.True(t, ok)
	require.Equal(t, 1.0, got.AsNumber())
}

func TestMapGrowsAndRetainsEntries(t *testing.T) {
	m := object.NewMap()
	const n = 200
	for i := 0; i < n; i++ {
		m.Set(value.Number(float64(i)), value.Number(float64(i*i)))
	}
	require.Equal(t, n, m.Len())
	for i := 0; i < n; i++ {
		got, ok := m.Get(value.Number(float64(i)))
		require.True(t, ok)
		require.Equal(t, float64(i*i), got.AsNumber())
	}
}

func TestMapTombstoneReuse(t *testing.T) {
	m := object.NewMap()
	a := value.Number(1)
	b := value.Number(9) // collides with `a` in an 8-slot table if hashed poorly; exercises probing either way
	m.Set(a, value.True())
	m.Set(b, value.False())
	require.True(t, m.Delete(a))

	// Re-inserting after a delete must not lose the still-live key.
	m.Set(value.Number(2), value.Null())
	got, ok := m.Get(b)
	require.True(t, ok)
	require.False(t, got.AsBool())
}

package gc_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/gc"
)

func TestTrackRoutesThroughReallocate(t *testing.T) {
	var sizes []int
	alloc := gc.NewAllocator(func(ptr []byte, newSize int) ([]byte, error) {
		sizes = append(sizes, newSize)
		return gc.DefaultReallocate(ptr, newSize)
	})

	f := &fakeObj{}
	f.Kind = fakeObjKind
	alloc.Track(f, 32)

	require.Equal(t, []int{32}, sizes)
	require.Equal(t, int64(32), alloc.BytesAllocated)
	require.False(t, alloc.OOM())
}

func TestTrackRefusalMarksOOMAndSkipsAccounting(t *testing.T) {
	refused := errors.New("budget exhausted")
	alloc := gc.NewAllocator(func(ptr []byte, newSize int) ([]byte, error) {
		return nil, refused
	})

	f := &fakeObj{}
	f.Kind = fakeObjKind
	alloc.Track(f, 32)

	require.True(t, alloc.OOM())
	require.Equal(t, int64(0), alloc.BytesAllocated)
	require.Nil(t, alloc.Head())

	alloc.ClearOOM()
	require.False(t, alloc.OOM())
}

package api_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/api"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// newSlots pushes args onto a freshly allocated fiber and wraps the
// whole stack as a Slots window, standing in for what dispatch's
// MethodForeign branch does before invoking a bound ForeignFn.
func newSlots(t *testing.T, rt *vm.Runtime, args ...value.Value) (*api.Slots, *object.Fiber) {
	t.Helper()
	fiber := rt.NewFiberObj(nil)
	fiber.EnsureCapacity(len(args))
	for _, a := range args {
		fiber.Push(a)
	}
	return api.New(rt, fiber, fiber.Stack[:fiber.StackTop]), fiber
}

func TestDoubleRoundTrip(t *testing.T) {
	rt := vm.New(vm.Config{})
	s, _ := newSlots(t, rt, value.Null())

	for _, n := range []float64{0, 1, -1, 3.5, math.Inf(1), math.Inf(-1)} {
		s.SetDouble(0, n)
		require.Equal(t, n, s.GetDouble(0))
	}

	s.SetDouble(0, math.NaN())
	require.True(t, math.IsNaN(s.GetDouble(0)))
}

func TestBoolAndNull(t *testing.T) {
	rt := vm.New(vm.Config{})
	s, _ := newSlots(t, rt, value.Null())

	s.SetBool(0, true)
	require.Equal(t, api.TypeBool, s.Type(0))
	require.True(t, s.GetBool(0))

	s.SetBool(0, false)
	require.False(t, s.GetBool(0))

	s.SetNull(0)
	require.Equal(t, api.TypeNull, s.Type(0))
}

func TestStringAndBytesRoundTrip(t *testing.T) {
	rt := vm.New(vm.Config{})
	s, _ := newSlots(t, rt, value.Null())

	s.SetString(0, "hello")
	require.Equal(t, api.TypeString, s.Type(0))
	got, ok := s.GetString(0)
	require.True(t, ok)
	require.Equal(t, "hello", got)

	raw := []byte{0x00, 0xff, 0x10}
	s.SetBytes(0, raw)
	gotBytes, ok := s.GetBytes(0)
	require.True(t, ok)
	require.Equal(t, raw, gotBytes)
}

func TestFrameSizeGrows(t *testing.T) {
	rt := vm.New(vm.Config{})
	s, fiber := newSlots(t, rt, value.Number(1))

	require.Equal(t, 1, s.Count())
	base := fiber.StackTop

	s.SetCount(4)
	require.Equal(t, 4, s.Count())
	require.Equal(t, base+3, fiber.StackTop)
	for i := 1; i < 4; i++ {
		require.Equal(t, api.TypeNull, s.Type(i))
	}
}

func TestListBoundaries(t *testing.T) {
	rt := vm.New(vm.Config{})
	list := rt.NewList([]value.Value{value.Number(10), value.Number(20)})
	s, _ := newSlots(t, rt, value.FromObj(list), value.Null())

	count, ok := s.ListCount(0)
	require.True(t, ok)
	require.Equal(t, 2, count)

	// index -1 reads position n-1 (the last element).
	require.True(t, s.ListGet(0, -1, 1))
	require.Equal(t, float64(20), s.GetDouble(1))

	// index n (== count) is an error for a read.
	require.False(t, s.ListGet(0, 2, 1))

	// insert: index n appends, index n+1 is an error.
	s.SetDouble(1, 30)
	require.True(t, s.ListInsert(0, 2, 1))
	count, _ = s.ListCount(0)
	require.Equal(t, 3, count)
	require.False(t, s.ListInsert(0, 4, 1))
}

func TestMapGetHasSet(t *testing.T) {
	rt := vm.New(vm.Config{})
	m := rt.NewMap()
	s, _ := newSlots(t, rt, value.FromObj(m), value.Null(), value.Null())

	s.SetString(1, "k")
	require.False(t, s.MapHas(0, 1))

	s.SetDouble(2, 42)
	require.True(t, s.MapSet(0, 1, 2))
	require.True(t, s.MapHas(0, 1))

	require.True(t, s.MapGet(0, 1, 2))
	require.Equal(t, float64(42), s.GetDouble(2))
}

package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func TestFiberStackGrowsWithoutLosingIndices(t *testing.T) {
	f := object.NewFiber(2)
	for i := 0; i < 100; i++ {
		f.Push(value.Number(float64(i)))
	}
	require.Equal(t, 100, f.StackTop)
	for i := 0; i < 100; i++ {
		require.Equal(t, float64(i), f.Stack[i].AsNumber())
	}
}

func TestFiberUpvalueSurvivesStackGrowth(t *testing.T) {
	f := object.NewFiber(2)
	f.Push(value.Number(42))
	up := f.CaptureUpvalue(0)

	for i := 0; i < 50; i++ {
		f.Push(value.Number(float64(i)))
	}
	require.Equal(t, 42.0, up.Get().AsNumber())

	up.Set(value.Number(99))
	require.Equal(t, 99.0, f.Stack[0].AsNumber())
}

func TestFiberCaptureUpvalueIsIdempotent(t *testing.T) {
	f := object.NewFiber(4)
	f.Push(value.Number(1))
	f.Push(value.Number(2))

	a := f.CaptureUpvalue(1)
	b := f.CaptureUpvalue(1)
	require.Same(t, a, b)
}

func TestFiberCloseUpvaluesFrom(t *testing.T) {
	f := object.NewFiber(4)
	f.Push(value.Number(10))
	f.Push(value.Number(20))
	u0 := f.CaptureUpvalue(0)
	u1 := f.CaptureUpvalue(1)

	f.CloseUpvaluesFrom(1)
	require.False(t, u0.IsClosed())
	require.True(t, u1.IsClosed())
	require.Equal(t, 20.0, u1.Get().AsNumber())

	require.Nil(t, f.OpenUpvalues.NextOpen)
}

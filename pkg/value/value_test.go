package value_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/value"
)

func TestSingletonRoundTrip(t *testing.T) {
	require.True(t, value.Null().IsNull())
	require.True(t, value.True().IsTrue())
	require.True(t, value.False().IsFalse())
	require.True(t, value.Undefined().IsUndefined())
	require.True(t, value.Null().IsFalsy())
	require.True(t, value.False().IsFalsy())
	require.False(t, value.True().IsFalsy())
}

func TestNumberRoundTrip(t *testing.T) {
	cases := []float64{0, 1, -1, 3.14159, math.Inf(1), math.Inf(-1), -0.0}
	for _, c := range cases {
		v := value.Number(c)
		require.True(t, v.IsNumber())
		got := v.AsNumber()
		if math.IsInf(c, 0) {
			require.Equal(t, c, got)
		} else {
			require.Equal(t, math.Float64bits(c), math.Float64bits(got))
		}
	}
}

func TestIsBitIdentity(t *testing.T) {
	nan := value.Number(math.NaN())
	other := value.Number(math.NaN())
	require.True(t, nan.Is(other), "identical-pattern NaNs must be `is`-identical")

	require.False(t, value.Number(0).Is(value.Number(-0.0)) && math.Signbit(0) != math.Signbit(-0.0),
		"sanity: this assertion only holds if signbit differs")

	require.True(t, value.True().Is(value.True()))
	require.False(t, value.True().Is(value.False()))
	require.False(t, value.Null().Is(value.Undefined()))
}

func TestKindAndTypeName(t *testing.T) {
	require.Equal(t, value.KindNumber, value.Number(1).Kind())
	require.Equal(t, "Num", value.Number(1).TypeName())
	require.Equal(t, "Bool", value.True().TypeName())
	require.Equal(t, "Null", value.Null().TypeName())
}

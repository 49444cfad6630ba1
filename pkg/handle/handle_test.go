package handle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/handle"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/symbol"
	"github.com/kristofer/ember/pkg/value"
)

func TestParseArgCount(t *testing.T) {
	cases := map[string]int{
		"toString":  0,
		"call()":    0,
		"call(_)":   1,
		"call(_,_)": 2,
		"[_]":       1,
		"[_]=(_)":   2,
		"+(_)":      1,
	}
	for sig, want := range cases {
		require.Equal(t, want, handle.ParseArgCount(sig), sig)
	}
}

func TestRegistryMakeReleaseRoots(t *testing.T) {
	var r handle.Registry
	a := object.NewString("a")
	b := object.NewString("b")

	ha := r.Make(value.FromObj(a))
	hb := r.Make(value.FromObj(b))
	hnum := r.Make(value.Number(7)) // non-object values contribute no root

	roots := r.Roots()
	require.Len(t, roots, 2)
	require.Contains(t, roots, value.Obj(a))
	require.Contains(t, roots, value.Obj(b))

	// Releasing the tail, head, and remaining nodes in arbitrary order
	// must keep the list consistent.
	r.Release(ha)
	require.Len(t, r.Roots(), 1)
	r.Release(hnum)
	r.Release(hb)
	require.Empty(t, r.Roots())
}

func TestNewCallHandleShape(t *testing.T) {
	symbols := symbol.NewTable()
	closure := handle.NewCallHandle(symbols, "call(_,_)")

	fn := closure.Function
	require.Equal(t, 2, fn.Arity)
	require.Equal(t, 3, fn.MaxSlots) // receiver plus two arguments
	require.Len(t, fn.Code, 3)
	require.Equal(t, bytecode.Call, fn.Code[0].Op)
	require.Equal(t, bytecode.Return, fn.Code[1].Op)
	require.Equal(t, bytecode.End, fn.Code[2].Op)

	sym, argCount := bytecode.UnpackCall(fn.Code[0].Operand)
	require.Equal(t, 3, argCount)
	name, ok := symbols.Lookup("call(_,_)")
	require.True(t, ok)
	require.Equal(t, name, sym)
}

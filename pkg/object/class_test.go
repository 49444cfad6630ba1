package object_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

type fixedSymbols int

func (f fixedSymbols) SymbolCount() int { return int(f) }

func TestClassMethodLookupWalksSuperchain(t *testing.T) {
	objClass := object.NewClass(fixedSymbols(4), object.NewString("Object"), nil, 0)
	base := object.NewClass(fixedSymbols(4), object.NewString("Base"), objClass, 1)
	base.BindMethod(2, object.Method{Kind: object.MethodPrimitive, Primitive: func(object.Runtime, *object.Fiber, []value.Value) object.Signal {
		return object.SignalDone
	}})

	derived := object.NewClass(fixedSymbols(4), object.NewString("Derived"), base, 1)

	m, ok := derived.Lookup(2)
	require.True(t, ok)
	require.Equal(t, object.MethodPrimitive, m.Kind)

	_, ok = derived.Lookup(3)
	require.False(t, ok)
}

func TestClassFieldOffsetAccumulates(t *testing.T) {
	objClass := object.NewClass(fixedSymbols(1), object.NewString("Object"), nil, 0)
	base := object.NewClass(fixedSymbols(1), object.NewString("Base"), objClass, 2)
	derived := object.NewClass(fixedSymbols(1), object.NewString("Derived"), base, 3)

	require.Equal(t, 0, base.FieldOffset())
	require.Equal(t, 2, derived.FieldOffset())
	require.Equal(t, 5, derived.TotalFields())
}

func TestInstanceFieldsStartNull(t *testing.T) {
	class := object.NewClass(fixedSymbols(1), object.NewString("Point"), nil, 2)
	inst := object.NewInstance(class)
	require.Len(t, inst.Fields, 2)
	require.True(t, inst.Fields[0].IsNull())
}

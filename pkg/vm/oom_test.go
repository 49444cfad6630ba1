package vm_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/asm"
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// TestOutOfMemoryAbortsFiber configures a host Reallocate that serves the
// fiber's own bootstrap allocation and then refuses everything after,
// so 42.toString's rt.NewString call (pkg/vm/primitives_num.go) is the
// one that actually trips gc.Allocator.Track's Reallocate call. The
// refusal must surface as an ordinary uncaught runtime error rather than
// a Go-level panic or a silently wrong result.
func TestOutOfMemoryAbortsFiber(t *testing.T) {
	calls := 0
	rt := vm.New(vm.Config{Reallocate: func(ptr []byte, newSize int) ([]byte, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("host budget exhausted")
		}
		return gc.DefaultReallocate(ptr, newSize)
	}})

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(2)
	numConst := b.Const(value.Number(42))
	b.Op(bytecode.Constant, numConst)
	b.Call("toString", 1)
	b.Op(bytecode.Return, 0)
	b.End()
	closure := object.NewClosure(b.Build(), nil)

	result := rt.Interpret(closure)
	require.Equal(t, vm.ResultRuntimeError, result)

	require.Error(t, rt.LastError())
	rerr, ok := pkgerrors.Cause(rt.LastError()).(*vm.RuntimeError)
	require.True(t, ok)
	require.Contains(t, rerr.Message, "out of memory")
}

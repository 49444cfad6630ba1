package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// TestCallHandleInvokesMethodBySignature drives the host-side "call this
// method on whatever sits in slot 0" path end to end: a call handle for
// +(_) applied to (1, 2) must dispatch through Num's primitive table and
// hand back 3.
func TestCallHandleInvokesMethodBySignature(t *testing.T) {
	rt := vm.New(vm.Config{})

	h := rt.MakeCallHandle("+(_)")
	closure, ok := h.Value.AsObj().(*object.Closure)
	require.True(t, ok)

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, closure, []value.Value{value.Number(1), value.Number(2)})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, float64(3), fiber.Pop().AsNumber())

	rt.Handles.Release(h)
}

// TestHandleKeepsValueAliveAcrossCollection covers spec's handle
// round-trip property: a handle is a root for exactly as long as it is
// held, and releasing it restores the object's ordinary collectability
// without disturbing anything else.
func TestHandleKeepsValueAliveAcrossCollection(t *testing.T) {
	rt := vm.New(vm.Config{})

	str := rt.NewString("pinned")
	h := rt.Handles.Make(value.FromObj(str))

	rt.Coll.Collect(rt.Alloc)
	require.True(t, tracked(rt, str), "held handle must keep the string off the sweep list")

	rt.Handles.Release(h)
	rt.Coll.Collect(rt.Alloc)
	require.False(t, tracked(rt, str), "released handle must leave the string collectable")
}

// tracked walks the allocator's intrusive live-object list for obj.
func tracked(rt *vm.Runtime, obj value.Obj) bool {
	for o := rt.Alloc.Head(); o != nil; o = o.Header().Next {
		if o == obj {
			return true
		}
	}
	return false
}

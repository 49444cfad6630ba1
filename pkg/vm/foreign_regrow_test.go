package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/api"
	"github.com/kristofer/ember/pkg/asm"
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// TestForeignCallResultSurvivesStackRegrow guards against dispatch's
// MethodForeign branch reading its result out of the args slice captured
// before the call: a foreign method that grows its fiber's stack via
// Slots.SetCount (here far past the fiber's 8-slot floor, forcing a real
// Fiber.growStack reallocation) detaches args from the stack's new
// backing array. If dispatch pushed args[0] instead of re-reading
// cur.Stack by index, the printed value would be the stale receiver
// (0, since Probe is not a Num) rather than the 99 the foreign method
// actually wrote.
func TestForeignCallResultSurvivesStackRegrow(t *testing.T) {
	var written string
	rt := vm.New(vm.Config{Write: func(s string) { written += s }})
	system, _ := newSystemClass(rt)

	class := object.NewClass(rt.Symbols, rt.NewString("Probe"), rt.BuiltinClass("Object"), 0)
	class.Class = rt.BuiltinClass("Class")
	rt.Alloc.Track(class, 64)

	growFn := func(rtIface object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		s := api.New(rtIface, fiber, args)
		s.SetCount(64)
		s.SetDouble(0, 99)
		return object.SignalDone
	}
	class.BindMethod(rt.Symbols.Intern("grow(_)"), object.Method{Kind: object.MethodForeign, Foreign: growFn})
	inst := rt.NewInstance(class)

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(5)
	sysConst := b.Const(value.FromObj(system))
	instConst := b.Const(value.FromObj(inst))
	argConst := b.Const(value.Number(1))
	b.Op(bytecode.Constant, sysConst)
	b.Op(bytecode.Constant, instConst)
	b.Op(bytecode.Constant, argConst)
	b.Call("grow(_)", 2)
	b.Call("print(_)", 2)
	b.Op(bytecode.Return, 0)
	b.End()

	closure := object.NewClosure(b.Build(), nil)

	result := rt.Interpret(closure)
	require.Equal(t, vm.ResultSuccess, result)
	require.Equal(t, "99\n", written)
}

package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/asm"
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// TestFiberYieldRoundTrip runs a child fiber that yields 1 and 2 before
// returning 3, with the caller summing the three values it observes:
// every suspension must deliver its value into exactly the one stack
// slot the caller's call expression reserved.
func TestFiberYieldRoundTrip(t *testing.T) {
	rt := vm.New(vm.Config{})

	child := asm.New(rt.Symbols, nil).Name("child").Arity(0).MaxSlots(3)
	fiberClsConst := child.Const(value.FromObj(rt.BuiltinClass("Fiber")))
	oneConst := child.Const(value.Number(1))
	twoConst := child.Const(value.Number(2))
	threeConst := child.Const(value.Number(3))
	child.Op(bytecode.Constant, fiberClsConst)
	child.Op(bytecode.Constant, oneConst)
	child.Call("yield(_)", 2)
	child.Op(bytecode.Pop, 0)
	child.Op(bytecode.Constant, fiberClsConst)
	child.Op(bytecode.Constant, twoConst)
	child.Call("yield(_)", 2)
	child.Op(bytecode.Pop, 0)
	child.Op(bytecode.Constant, threeConst)
	child.Op(bytecode.Return, 0)
	child.End()
	childFiber := rt.NewFiberObj(object.NewClosure(child.Build(), nil))

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(4)
	childConst := b.Const(value.FromObj(childFiber))
	b.Op(bytecode.Constant, childConst)
	b.Call("call()", 1)
	b.Op(bytecode.Constant, childConst)
	b.Call("call()", 1)
	b.Call("+(_)", 2)
	b.Op(bytecode.Constant, childConst)
	b.Call("call()", 1)
	b.Call("+(_)", 2)
	b.Op(bytecode.Return, 0)
	b.End()

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, object.NewClosure(b.Build(), nil), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, float64(6), fiber.Pop().AsNumber())
	require.True(t, childFiber.IsDone())
}

// TestFiberTransferErrorAbortsTarget covers Fiber.transferError: control
// moves to the target fiber with the error already pending, so the
// target aborts at its resumption point and, having no caller of its
// own, surfaces the error to the host.
func TestFiberTransferErrorAbortsTarget(t *testing.T) {
	var message string
	rt := vm.New(vm.Config{ReportError: func(kind vm.ErrorKind, module string, line int, msg string) {
		message = msg
	}})

	target := asm.New(rt.Symbols, nil).Name("target").Arity(0).MaxSlots(2)
	target.Op(bytecode.PushNull, 0)
	target.Op(bytecode.Return, 0)
	target.End()
	targetFiber := rt.NewFiberObj(object.NewClosure(target.Build(), nil))

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(3)
	targetConst := b.Const(value.FromObj(targetFiber))
	errConst := b.ConstString("kaput")
	b.Op(bytecode.Constant, targetConst)
	b.Op(bytecode.Constant, errConst)
	b.Call("transferError(_)", 2)
	b.Op(bytecode.Return, 0)
	b.End()

	result := rt.Interpret(object.NewClosure(b.Build(), nil))
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, message, "kaput")
	require.True(t, targetFiber.HasError())
}

// TestCallingFinishedFiberIsError pins down the call-side state checks:
// a fiber that already ran to completion cannot be called again.
func TestCallingFinishedFiberIsError(t *testing.T) {
	var message string
	rt := vm.New(vm.Config{ReportError: func(kind vm.ErrorKind, module string, line int, msg string) {
		message = msg
	}})

	done := asm.New(rt.Symbols, nil).Name("done").Arity(0).MaxSlots(2)
	done.Op(bytecode.PushNull, 0)
	done.Op(bytecode.Return, 0)
	done.End()
	doneFiber := rt.NewFiberObj(object.NewClosure(done.Build(), nil))

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(3)
	doneConst := b.Const(value.FromObj(doneFiber))
	b.Op(bytecode.Constant, doneConst)
	b.Call("call()", 1)
	b.Op(bytecode.Pop, 0)
	b.Op(bytecode.Constant, doneConst)
	b.Call("call()", 1)
	b.Op(bytecode.Return, 0)
	b.End()

	result := rt.Interpret(object.NewClosure(b.Build(), nil))
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, message, "Cannot call a finished fiber")
}

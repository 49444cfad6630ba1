package vm

import (
	"fmt"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// bindFnPrimitives wires Fn.call/0../16, each pushing a fresh bytecode
// frame directly onto the calling fiber - unlike Fiber.call, this never
// changes which fiber is current, only which frame is on top of it, so
// the signal it returns (SignalSwitch) only asks the interpreter to
// reload its cached frame pointer, not swap fibers.
func (rt *Runtime) bindFnPrimitives(class *object.Class) {
	for n := 0; n <= 16; n++ {
		rt.bindPrimitive(class, callSignature(n), primFnCall)
	}
	rt.bindPrimitive(class, "arity", primFnArity)
	rt.bindPrimitive(class, "toString", primFnToString)
}

func callSignature(argCount int) string {
	if argCount == 0 {
		return "call()"
	}
	sig := "call("
	for i := 0; i < argCount; i++ {
		if i > 0 {
			sig += ","
		}
		sig += "_"
	}
	return sig + ")"
}

func primFnCall(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	closure, ok := args[0].AsObj().(*object.Closure)
	if !ok {
		return wrongArgType(rt, fiber, 0, "a function")
	}
	want := closure.Function.Arity
	got := len(args) - 1
	if got != want {
		r := rt.(*Runtime)
		r.runtimeErrorf(fiber, "Function expects %d argument(s), got %d.", want, got)
		return object.SignalError
	}
	fiber.EnsureCapacity(closure.Function.MaxSlots)
	fiber.PushFrame(closure, fiber.StackTop-len(args))
	return object.SignalSwitch
}

func primFnArity(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	closure, ok := args[0].AsObj().(*object.Closure)
	if !ok {
		return wrongArgType(rt, fiber, 0, "a function")
	}
	args[0] = value.Number(float64(closure.Function.Arity))
	return object.SignalDone
}

func primFnToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	closure, _ := args[0].AsObj().(*object.Closure)
	r := rt.(*Runtime)
	name := "anonymous"
	if closure != nil && closure.Function.Name != "" {
		name = closure.Function.Name
	}
	args[0] = value.FromObj(r.NewString(fmt.Sprintf("<fn %s>", name)))
	return object.SignalDone
}

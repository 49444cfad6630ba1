package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// bindNullPrimitives binds Null's small, fixed surface: the singleton
// reports itself falsy (handled by the interpreter's IsFalsy, not a
// method) and prints as "null".
func (rt *Runtime) bindNullPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "toString", primNullToString)
	rt.bindPrimitive(class, "!", primNullNot)
}

func primNullToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString("null"))
	return object.SignalDone
}

func primNullNot(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.True()
	return object.SignalDone
}

package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// bindClassPrimitives wires the handful of messages sendable to a class
// object itself through Object's ordinary (non-static) method table -
// name/toString/supertype - as opposed to the Statics table every class
// also carries for its own constructors (Fiber.new, List.filled, ...).
func (rt *Runtime) bindClassPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "name", primClassName)
	rt.bindPrimitive(class, "toString", primClassToString)
	rt.bindPrimitive(class, "supertype", primClassSupertype)
	rt.bindPrimitive(class, "==(_)", primIdentityEqual)
	rt.bindPrimitive(class, "!=(_)", primIdentityNotEqual)
}

func primClassName(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	class, ok := args[0].AsObj().(*object.Class)
	if !ok {
		return wrongArgType(rt, fiber, 0, "a class")
	}
	args[0] = value.FromObj(class.Name)
	return object.SignalDone
}

func primClassToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	class, ok := args[0].AsObj().(*object.Class)
	if !ok {
		return wrongArgType(rt, fiber, 0, "a class")
	}
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString(class.Name.String()))
	return object.SignalDone
}

func primClassSupertype(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	class, ok := args[0].AsObj().(*object.Class)
	if !ok {
		return wrongArgType(rt, fiber, 0, "a class")
	}
	if class.Super == nil {
		args[0] = value.Null()
		return object.SignalDone
	}
	args[0] = value.FromObj(class.Super)
	return object.SignalDone
}

package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindBoolPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "toString", primBoolToString)
	rt.bindPrimitive(class, "!", primBoolNot)
	rt.bindPrimitive(class, "==(_)", primBoolEqual)
	rt.bindPrimitive(class, "!=(_)", primBoolNotEqual)
}

func primBoolToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	text := "false"
	if args[0].AsBool() {
		text = "true"
	}
	args[0] = value.FromObj(r.NewString(text))
	return object.SignalDone
}

func primBoolNot(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(!args[0].AsBool())
	return object.SignalDone
}

func primBoolEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(args[1].IsBool() && args[0].AsBool() == args[1].AsBool())
	return object.SignalDone
}

func primBoolNotEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(!args[1].IsBool() || args[0].AsBool() != args[1].AsBool())
	return object.SignalDone
}

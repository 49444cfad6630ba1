package vm

import (
	"fmt"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindObjectPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "==(_)", primIdentityEqual)
	rt.bindPrimitive(class, "!=(_)", primIdentityNotEqual)
	rt.bindPrimitive(class, "!", primObjectNot)
	rt.bindPrimitive(class, "toString", primObjectToString)
	rt.bindPrimitive(class, "type", primObjectType)
}

func primIdentityEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(args[0].Is(args[1]))
	return object.SignalDone
}

func primIdentityNotEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(!args[0].Is(args[1]))
	return object.SignalDone
}

func primObjectNot(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.False()
	return object.SignalDone
}

func primObjectToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString(toStringValue(r, args[0])))
	return object.SignalDone
}

func primObjectType(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	class := r.ClassOf(args[0])
	args[0] = value.FromObj(class)
	return object.SignalDone
}

// toStringValue is the fallback default String representation for a
// value whose class does not override toString: "instance of <Class>".
// Concrete classes (Num, String, Bool, Null, Class, Fn) override
// toString with a more specific rendering.
func toStringValue(rt *Runtime, v value.Value) string {
	class := rt.ClassOf(v)
	name := "Object"
	if class != nil && class.Name != nil {
		name = class.Name.String()
	}
	return fmt.Sprintf("instance of %s", name)
}

package vm

import (
	"strings"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindStringPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "+(_)", primStringPlus)
	rt.bindPrimitive(class, "==(_)", primStringEqual)
	rt.bindPrimitive(class, "!=(_)", primStringNotEqual)
	rt.bindPrimitive(class, "<(_)", primStringLess)
	rt.bindPrimitive(class, ">(_)", primStringGreater)
	rt.bindPrimitive(class, "toString", primStringToString)
	rt.bindPrimitive(class, "count", primStringCount)
	rt.bindPrimitive(class, "[_]", primStringSubscript)
	rt.bindPrimitive(class, "contains(_)", primStringContains)
	rt.bindPrimitive(class, "startsWith(_)", primStringStartsWith)
	rt.bindPrimitive(class, "endsWith(_)", primStringEndsWith)
	rt.bindPrimitive(class, "indexOf(_)", primStringIndexOf)
}

func asString(v value.Value) (*object.String, bool) {
	s, ok := v.AsObj().(*object.String)
	return s, ok
}

func primStringPlus(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString(self.String() + other.String()))
	return object.SignalDone
}

func primStringEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	self, _ := asString(args[0])
	args[0] = value.Bool(ok && self.String() == other.String())
	return object.SignalDone
}

func primStringNotEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	self, _ := asString(args[0])
	args[0] = value.Bool(!ok || self.String() != other.String())
	return object.SignalDone
}

func primStringLess(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Bool(self.String() < other.String())
	return object.SignalDone
}

func primStringGreater(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Bool(self.String() > other.String())
	return object.SignalDone
}

func primStringToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	return object.SignalDone
}

func primStringCount(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	self, _ := asString(args[0])
	args[0] = value.Number(float64(len([]rune(self.String()))))
	return object.SignalDone
}

// normalizeIndex implements spec's boundary rule for negative/relative
// indexing: -1 means the last element (length-1), length itself means
// "one past the end" (legal for insertion, not for reads), anything
// further out is an error. allowEnd controls whether length itself is
// accepted.
func normalizeIndex(rt object.Runtime, fiber *object.Fiber, idx value.Value, length int, allowEnd bool) (int, bool) {
	if !idx.IsNumber() {
		wrongArgType(rt, fiber, 1, "a number")
		return 0, false
	}
	i := int(idx.AsNumber())
	if i < 0 {
		i += length
	}
	max := length - 1
	if allowEnd {
		max = length
	}
	if i < 0 || i > max {
		r := rt.(*Runtime)
		r.runtimeErrorf(fiber, "Index out of bounds.")
		return 0, false
	}
	return i, true
}

func primStringSubscript(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	self, _ := asString(args[0])
	runes := []rune(self.String())
	idx, ok := normalizeIndex(rt, fiber, args[1], len(runes), false)
	if !ok {
		return object.SignalError
	}
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString(string(runes[idx])))
	return object.SignalDone
}

func primStringContains(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Bool(strings.Contains(self.String(), other.String()))
	return object.SignalDone
}

func primStringStartsWith(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Bool(strings.HasPrefix(self.String(), other.String()))
	return object.SignalDone
}

func primStringEndsWith(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Bool(strings.HasSuffix(self.String(), other.String()))
	return object.SignalDone
}

func primStringIndexOf(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asString(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a string")
	}
	self, _ := asString(args[0])
	args[0] = value.Number(float64(strings.Index(self.String(), other.String())))
	return object.SignalDone
}

package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindRangePrimitives(class *object.Class) {
	rt.bindPrimitive(class, "from", primRangeFrom)
	rt.bindPrimitive(class, "to", primRangeTo)
	rt.bindPrimitive(class, "isInclusive", primRangeIsInclusive)
	rt.bindPrimitive(class, "min", primRangeMin)
	rt.bindPrimitive(class, "max", primRangeMax)
	rt.bindPrimitive(class, "==(_)", primRangeEqual)
	rt.bindPrimitive(class, "!=(_)", primRangeNotEqual)
	rt.bindPrimitive(class, "iterate(_)", primRangeIterate)
	rt.bindPrimitive(class, "iteratorValue(_)", primRangeIteratorValue)
}

func asRange(v value.Value) (*object.Range, bool) {
	r, ok := v.AsObj().(*object.Range)
	return r, ok
}

func primRangeFrom(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	args[0] = value.Number(r.From)
	return object.SignalDone
}

func primRangeTo(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	args[0] = value.Number(r.To)
	return object.SignalDone
}

func primRangeIsInclusive(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	args[0] = value.Bool(r.Inclusive)
	return object.SignalDone
}

func primRangeMin(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	if r.From < r.To {
		args[0] = value.Number(r.From)
	} else {
		args[0] = value.Number(r.To)
	}
	return object.SignalDone
}

func primRangeMax(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	if r.From > r.To {
		args[0] = value.Number(r.From)
	} else {
		args[0] = value.Number(r.To)
	}
	return object.SignalDone
}

func primRangeEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asRange(args[1])
	self, _ := asRange(args[0])
	args[0] = value.Bool(ok && self.Equal(other))
	return object.SignalDone
}

func primRangeNotEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asRange(args[1])
	self, _ := asRange(args[0])
	args[0] = value.Bool(!ok || !self.Equal(other))
	return object.SignalDone
}

// rangeLength is the number of integral steps a range of this shape
// iterates. The degenerate exclusive range (from == to, as in `0...0`)
// is legal and iterates zero times.
func rangeLength(r *object.Range) int {
	if r.From == r.To && !r.Inclusive {
		return 0
	}
	if r.To >= r.From {
		n := int(r.To-r.From) + 1
		if !r.Inclusive {
			n--
		}
		return n
	}
	n := int(r.From-r.To) + 1
	if !r.Inclusive {
		n--
	}
	return n
}

func primRangeIterate(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	length := rangeLength(r)
	if args[1].IsNull() {
		if length == 0 {
			args[0] = value.False()
			return object.SignalDone
		}
		args[0] = value.Number(0)
		return object.SignalDone
	}
	if !args[1].IsNumber() {
		return wrongArgType(rt, fiber, 1, "a number or null")
	}
	next := args[1].AsNumber() + 1
	if int(next) >= length {
		args[0] = value.False()
		return object.SignalDone
	}
	args[0] = value.Number(next)
	return object.SignalDone
}

func primRangeIteratorValue(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r, _ := asRange(args[0])
	step := args[1].AsNumber()
	if r.To >= r.From {
		args[0] = value.Number(r.From + step)
	} else {
		args[0] = value.Number(r.From - step)
	}
	return object.SignalDone
}

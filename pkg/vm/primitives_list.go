package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindListPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "count", primListCount)
	rt.bindPrimitive(class, "[_]", primListSubscriptGet)
	rt.bindPrimitive(class, "[_]=(_)", primListSubscriptSet)
	rt.bindPrimitive(class, "add(_)", primListAdd)
	rt.bindPrimitive(class, "insert(_,_)", primListInsert)
	rt.bindPrimitive(class, "removeAt(_)", primListRemoveAt)
	rt.bindPrimitive(class, "indexOf(_)", primListIndexOf)
	rt.bindPrimitive(class, "contains(_)", primListContains)
	rt.bindPrimitive(class, "clear()", primListClear)
	rt.bindPrimitive(class, "swap(_,_)", primListSwap)
	rt.bindPrimitive(class, "+(_)", primListPlus)
	rt.bindPrimitive(class, "iterate(_)", primListIterate)
	rt.bindPrimitive(class, "iteratorValue(_)", primListIteratorValue)

	rt.bindStaticPrimitive(class, "new()", primListNew)
}

func asList(v value.Value) (*object.List, bool) {
	l, ok := v.AsObj().(*object.List)
	return l, ok
}

func primListNew(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewList(nil))
	return object.SignalDone
}

func primListCount(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	args[0] = value.Number(float64(l.Len()))
	return object.SignalDone
}

func primListSubscriptGet(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	idx, ok := normalizeIndex(rt, fiber, args[1], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	args[0] = l.Elems[idx]
	return object.SignalDone
}

func primListSubscriptSet(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	idx, ok := normalizeIndex(rt, fiber, args[1], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	l.Elems[idx] = args[2]
	args[0] = args[2]
	return object.SignalDone
}

func primListAdd(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	l.Insert(l.Len(), args[1])
	args[0] = args[1]
	return object.SignalDone
}

func primListInsert(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	idx, ok := normalizeIndex(rt, fiber, args[1], l.Len(), true)
	if !ok {
		return object.SignalError
	}
	l.Insert(idx, args[2])
	args[0] = args[2]
	return object.SignalDone
}

func primListRemoveAt(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	idx, ok := normalizeIndex(rt, fiber, args[1], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	args[0] = l.RemoveAt(idx)
	return object.SignalDone
}

func primListIndexOf(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	for i, e := range l.Elems {
		if e.Is(args[1]) {
			args[0] = value.Number(float64(i))
			return object.SignalDone
		}
	}
	args[0] = value.Number(-1)
	return object.SignalDone
}

func primListContains(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	for _, e := range l.Elems {
		if e.Is(args[1]) {
			args[0] = value.True()
			return object.SignalDone
		}
	}
	args[0] = value.False()
	return object.SignalDone
}

func primListClear(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	l.Elems = nil
	args[0] = value.Null()
	return object.SignalDone
}

func primListSwap(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	i, ok := normalizeIndex(rt, fiber, args[1], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	j, ok := normalizeIndex(rt, fiber, args[2], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	l.Swap(i, j)
	args[0] = value.Null()
	return object.SignalDone
}

func primListPlus(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	other, ok := asList(args[1])
	if !ok {
		return wrongArgType(rt, fiber, 1, "a list")
	}
	self, _ := asList(args[0])
	merged := make([]value.Value, 0, self.Len()+other.Len())
	merged = append(merged, self.Elems...)
	merged = append(merged, other.Elems...)
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewList(merged))
	return object.SignalDone
}

// primListIterate and primListIteratorValue implement the two-primitive
// iteration protocol the language's `for` loop desugars to: iterate(_)
// advances (or starts) an opaque cursor and reports whether iteration
// continues, iteratorValue(_) maps that cursor to the element at it.
// Lists use the plain integer index itself as the cursor.
func primListIterate(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	if args[1].IsNull() {
		if l.Len() == 0 {
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
	if int(next) >= l.Len() {
		args[0] = value.False()
		return object.SignalDone
	}
	args[0] = value.Number(next)
	return object.SignalDone
}

func primListIteratorValue(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	l, _ := asList(args[0])
	idx, ok := normalizeIndex(rt, fiber, args[1], l.Len(), false)
	if !ok {
		return object.SignalError
	}
	args[0] = l.Elems[idx]
	return object.SignalDone
}

package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

func (rt *Runtime) bindMapPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "count", primMapCount)
	rt.bindPrimitive(class, "[_]", primMapGet)
	rt.bindPrimitive(class, "[_]=(_)", primMapSet)
	rt.bindPrimitive(class, "containsKey(_)", primMapContainsKey)
	rt.bindPrimitive(class, "remove(_)", primMapRemove)
	rt.bindPrimitive(class, "clear()", primMapClear)

	rt.bindStaticPrimitive(class, "new()", primMapNew)
}

func asMap(v value.Value) (*object.Map, bool) {
	m, ok := v.AsObj().(*object.Map)
	return m, ok
}

func primMapNew(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewMap())
	return object.SignalDone
}

func primMapCount(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	args[0] = value.Number(float64(m.Len()))
	return object.SignalDone
}

func primMapGet(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	v, ok := m.Get(args[1])
	if !ok {
		args[0] = value.Null()
		return object.SignalDone
	}
	args[0] = v
	return object.SignalDone
}

func primMapSet(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	m.Set(args[1], args[2])
	args[0] = args[2]
	return object.SignalDone
}

func primMapContainsKey(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	args[0] = value.Bool(m.Has(args[1]))
	return object.SignalDone
}

func primMapRemove(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	v, had := m.Get(args[1])
	m.Delete(args[1])
	if !had {
		args[0] = value.Null()
		return object.SignalDone
	}
	args[0] = v
	return object.SignalDone
}

func primMapClear(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	m, _ := asMap(args[0])
	m.Clear()
	args[0] = value.Null()
	return object.SignalDone
}

package object

import (
	"unsafe"

	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

// init wires every heap object kind into the two cross-package
// registries it needs: value's NaN-box reconstruction table (only
// exercised under -tags nanbox) and gc's tracer/finalizer/sizer tables
// (exercised by every build). Both registries exist precisely so that
// value and gc never need to import this package.
func init() {
	registerKind(value.ObjClass, traceClass, sizeClass, nil)
	registerKind(value.ObjInstance, traceInstance, sizeInstance, nil)
	registerKind(value.ObjForeign, traceForeign, sizeForeign, finalizeForeign)
	registerKind(value.ObjString, traceString, sizeString, nil)
	registerKind(value.ObjList, traceList, sizeList, nil)
	registerKind(value.ObjMap, traceMap, sizeMap, nil)
	registerKind(value.ObjRange, traceNone, sizeFixed(40), nil)
	registerKind(value.ObjFunction, traceFunction, sizeFunction, nil)
	registerKind(value.ObjClosure, traceClosure, sizeClosure, nil)
	registerKind(value.ObjUpvalue, traceUpvalue, sizeFixed(32), nil)
	registerKind(value.ObjModule, traceModule, sizeModule, nil)
	registerKind(value.ObjFiber, traceFiber, sizeFiber, nil)
}

func registerKind(k value.ObjKind, tr gc.Tracer, sz gc.SizeFn, fin gc.Finalizer) {
	value.RegisterObjKind(k, reconstructorFor(k))
	gc.RegisterTracer(k, tr)
	gc.RegisterSizer(k, sz)
	if fin != nil {
		gc.RegisterFinalizer(k, fin)
	}
}

// reconstructorFor returns the function that turns a bare address back
// into a typed Obj for the given kind, used only by the NaN-boxed Value
// encoding (nanbox.go) to decode FromObj's payload.
func reconstructorFor(k value.ObjKind) func(unsafe.Pointer) value.Obj {
	switch k {
	case value.ObjClass:
		return func(p unsafe.Pointer) value.Obj { return (*Class)(p) }
	case value.ObjInstance:
		return func(p unsafe.Pointer) value.Obj { return (*Instance)(p) }
	case value.ObjForeign:
		return func(p unsafe.Pointer) value.Obj { return (*Foreign)(p) }
	case value.ObjString:
		return func(p unsafe.Pointer) value.Obj { return (*String)(p) }
	case value.ObjList:
		return func(p unsafe.Pointer) value.Obj { return (*List)(p) }
	case value.ObjMap:
		return func(p unsafe.Pointer) value.Obj { return (*Map)(p) }
	case value.ObjRange:
		return func(p unsafe.Pointer) value.Obj { return (*Range)(p) }
	case value.ObjFunction:
		return func(p unsafe.Pointer) value.Obj { return (*Function)(p) }
	case value.ObjClosure:
		return func(p unsafe.Pointer) value.Obj { return (*Closure)(p) }
	case value.ObjUpvalue:
		return func(p unsafe.Pointer) value.Obj { return (*Upvalue)(p) }
	case value.ObjModule:
		return func(p unsafe.Pointer) value.Obj { return (*Module)(p) }
	case value.ObjFiber:
		return func(p unsafe.Pointer) value.Obj { return (*Fiber)(p) }
	default:
		return nil
	}
}

func traceNone(value.Obj, func(value.Obj)) {}

func traceClass(obj value.Obj, gray func(value.Obj)) {
	c := obj.(*Class)
	gray(c.Name)
	if c.Super != nil {
		gray(c.Super)
	}
	for _, m := range c.Methods {
		if m.Kind == MethodBlock && m.Closure != nil {
			gray(m.Closure)
		}
	}
	for _, m := range c.Statics {
		if m.Kind == MethodBlock && m.Closure != nil {
			gray(m.Closure)
		}
	}
}

func traceInstance(obj value.Obj, gray func(value.Obj)) {
	inst := obj.(*Instance)
	for _, f := range inst.Fields {
		gray(f.AsObj())
	}
}

func traceForeign(value.Obj, func(value.Obj)) {}

func finalizeForeign(obj value.Obj) {
	obj.(*Foreign).RunFinalizer()
}

func traceString(value.Obj, func(value.Obj)) {}

func traceList(obj value.Obj, gray func(value.Obj)) {
	l := obj.(*List)
	for _, v := range l.Elems {
		gray(v.AsObj())
	}
}

func traceMap(obj value.Obj, gray func(value.Obj)) {
	m := obj.(*Map)
	m.Each(func(k, v value.Value) {
		gray(k.AsObj())
		gray(v.AsObj())
	})
}

func traceFunction(obj value.Obj, gray func(value.Obj)) {
	fn := obj.(*Function)
	if fn.Module != nil {
		gray(fn.Module)
	}
	for _, c := range fn.Constants {
		gray(c.AsObj())
	}
}

func traceClosure(obj value.Obj, gray func(value.Obj)) {
	cl := obj.(*Closure)
	gray(cl.Function)
	for _, u := range cl.Upvalues {
		gray(u)
	}
}

func traceUpvalue(obj value.Obj, gray func(value.Obj)) {
	u := obj.(*Upvalue)
	gray(u.Get().AsObj())
}

func traceModule(obj value.Obj, gray func(value.Obj)) {
	m := obj.(*Module)
	for _, v := range m.Vars() {
		gray(v.AsObj())
	}
}

func traceFiber(obj value.Obj, gray func(value.Obj)) {
	f := obj.(*Fiber)
	for i := 0; i < f.StackTop; i++ {
		gray(f.Stack[i].AsObj())
	}
	for _, fr := range f.Frames {
		gray(fr.Closure)
	}
	for u := f.OpenUpvalues; u != nil; u = u.NextOpen {
		gray(u)
	}
	if f.Caller != nil {
		gray(f.Caller)
	}
	if f.EntryClosure != nil {
		gray(f.EntryClosure)
	}
	gray(f.Error.AsObj())
}

func sizeFixed(n int) gc.SizeFn { return func(value.Obj) int { return n } }

func sizeClass(obj value.Obj) int {
	c := obj.(*Class)
	return 48 + len(c.Methods)*32 + len(c.Statics)*32
}
func sizeInstance(obj value.Obj) int {
	return 16 + len(obj.(*Instance).Fields)*16
}
func sizeForeign(obj value.Obj) int {
	return 24 + len(obj.(*Foreign).Data)
}
func sizeString(obj value.Obj) int {
	return 24 + len(obj.(*String).Bytes)
}
func sizeList(obj value.Obj) int {
	return 24 + len(obj.(*List).Elems)*16
}
func sizeMap(obj value.Obj) int {
	m := obj.(*Map)
	return 24 + len(m.entries)*32
}
func sizeFunction(obj value.Obj) int {
	fn := obj.(*Function)
	return 64 + len(fn.Code)*24 + len(fn.Constants)*16
}
func sizeClosure(obj value.Obj) int {
	return 24 + len(obj.(*Closure).Upvalues)*8
}
func sizeModule(obj value.Obj) int {
	m := obj.(*Module)
	return 32 + len(m.vars)*24
}
func sizeFiber(obj value.Obj) int {
	f := obj.(*Fiber)
	return 64 + len(f.Stack)*16 + len(f.Frames)*32
}

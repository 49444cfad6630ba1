package value

import "unsafe"

// Kind discriminates the cases a Value can hold, regardless of which of
// the two encodings (tagged union in value.go, NaN-boxed in nanbox.go) is
// compiled in.
type Kind uint8

const (
	KindNumber Kind = iota
	KindNull
	KindTrue
	KindFalse
	KindUndefined
	KindObject
)

// Obj is implemented by every heap-allocated object kind (class, instance,
// string, list, map, range, function, closure, upvalue, module, fiber,
// foreign). It is defined here, rather than in package object, so that
// Value can refer to it without an import cycle.
type Obj interface {
	Header() *ObjHeader
}

// ObjKind tags the concrete shape of an Obj, the kind discriminant every
// heap object header carries.
type ObjKind uint8

const (
	ObjClass ObjKind = iota
	ObjInstance
	ObjForeign
	ObjString
	ObjList
	ObjMap
	ObjRange
	ObjFunction
	ObjClosure
	ObjUpvalue
	ObjModule
	ObjFiber
)

func (k ObjKind) String() string {
	switch k {
	case ObjClass:
		return "Class"
	case ObjInstance:
		return "Instance"
	case ObjForeign:
		return "Foreign"
	case ObjString:
		return "String"
	case ObjList:
		return "List"
	case ObjMap:
		return "Map"
	case ObjRange:
		return "Range"
	case ObjFunction:
		return "Function"
	case ObjClosure:
		return "Closure"
	case ObjUpvalue:
		return "Upvalue"
	case ObjModule:
		return "Module"
	case ObjFiber:
		return "Fiber"
	default:
		return "Unknown"
	}
}

// ObjHeader is the common prefix every heap object embeds: kind tag, mark
// bit (used only during collection), the object's class, and the intrusive
// "next live object" link the collector sweeps over.
//
// Embed it as the first field of a concrete object type to get Obj for
// free via promoted methods.
type ObjHeader struct {
	Kind  ObjKind
	Mark  bool
	Class Obj // the object's class (nil only for the bootstrap metaclasses)
	Next  Obj // intrusive link maintained by the allocator/collector
}

// Header returns the header itself, satisfying Obj.
func (h *ObjHeader) Header() *ObjHeader { return h }

// objRegistry lets package object (which cannot be imported here without a
// cycle) teach the NaN-boxed encoding how to turn a bare address back into
// a typed Obj, keyed by the kind tag stored in the object's own header.
// Registration happens in each concrete type's package init(). The
// tagged-union encoding never calls this: it stores the Obj interface
// directly and has nothing to reconstruct.
var objRegistry [int(ObjFiber) + 1]func(unsafe.Pointer) Obj

// RegisterObjKind installs the reconstruction function for a kind. Called
// once per kind from package object's init().
func RegisterObjKind(k ObjKind, fn func(unsafe.Pointer) Obj) {
	objRegistry[k] = fn
}

package gc

import "github.com/kristofer/ember/pkg/value"

// Tracer enumerates obj's outgoing references to the collector by
// calling gray for each one (its class, and any object-valued fields).
// Numbers and singletons need no tracing; Value.AsObj already returns
// nil for them, so a tracer can gray unconditionally and let the
// collector's own nil-check absorb it.
type Tracer func(obj value.Obj, gray func(value.Obj))

// Finalizer is invoked once, immediately before a foreign object is
// swept, to run host-supplied cleanup over its opaque byte buffer.
type Finalizer func(obj value.Obj)

// SizeFn reports an object's current heap footprint in bytes, used to
// decrement accounting at sweep time (Track takes its size from the
// caller instead; objects like List and Map grow after construction, so
// a fixed size taken at allocation time would undercount).
type SizeFn func(obj value.Obj) int

var (
	tracers    [int(value.ObjFiber) + 1]Tracer
	finalizers [int(value.ObjFiber) + 1]Finalizer
	sizers     [int(value.ObjFiber) + 1]SizeFn
)

// RegisterTracer installs the child-enumeration function for a kind.
// Called once per kind from package object's init(), mirroring
// value.RegisterObjKind.
func RegisterTracer(k value.ObjKind, fn Tracer) { tracers[k] = fn }

// RegisterFinalizer installs a pre-sweep cleanup hook for a kind. Only
// ObjForeign uses this; every other kind leaves it nil.
func RegisterFinalizer(k value.ObjKind, fn Finalizer) { finalizers[k] = fn }

// RegisterSizer installs the footprint function for a kind.
func RegisterSizer(k value.ObjKind, fn SizeFn) { sizers[k] = fn }

func traceOf(k value.ObjKind) Tracer        { return tracers[k] }
func finalizerOf(k value.ObjKind) Finalizer { return finalizers[k] }
func sizeOf(obj value.Obj) int {
	fn := sizers[obj.Header().Kind]
	if fn == nil {
		return 0
	}
	return fn(obj)
}

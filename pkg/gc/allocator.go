// Package gc implements ember's allocator and tri-color mark-sweep
// collector.
//
// The collector is deliberately generic over the concrete object types
// living in package object: rather than importing object (which would
// create an import cycle, since object allocates through an Allocator),
// each object kind registers a tracer and, for foreign objects, a
// finalizer here via RegisterTracer/RegisterFinalizer, exactly the way
// package value's nanbox encoding learns to reconstruct a typed Obj
// through value.RegisterObjKind. Sweep and accounting only ever touch
// the value.Obj interface and the intrusive ObjHeader.Next chain.
package gc

import (
	"github.com/pkg/errors"

	"github.com/kristofer/ember/pkg/value"
)

// ErrOutOfMemory is returned (and delivered to the running fiber as an
// abort error by the VM) when the host's Reallocate callback fails to
// satisfy a growing allocation.
var ErrOutOfMemory = errors.New("out of memory")

// Reallocate mirrors a C realloc: grow, shrink, or free (newSize == 0)
// a host-owned buffer. The host config wires this to whatever allocation
// strategy it wants (the default uses Go's own allocator, see
// NewAllocator); embedders with custom memory pools can swap in another
// implementation.
type Reallocate func(ptr []byte, newSize int) ([]byte, error)

// DefaultReallocate implements Reallocate on top of Go's own allocator,
// the behavior a host that doesn't care about custom memory management
// wants.
func DefaultReallocate(ptr []byte, newSize int) ([]byte, error) {
	if newSize == 0 {
		return nil, nil
	}
	buf := make([]byte, newSize)
	copy(buf, ptr)
	return buf, nil
}

// Allocator owns ember's heap: byte accounting for GC pacing, and the
// intrusive singly-linked list of every live object (ObjHeader.Next),
// which the collector sweeps without needing to know each object's
// concrete Go type.
type Allocator struct {
	Reallocate Reallocate

	BytesAllocated int64
	NextGC         int64 // collect when BytesAllocated would exceed this
	GrowthFactor   int64 // percent; NextGC grows by this much after a collection
	MinHeap        int64 // NextGC never drops below this after a collection

	// StressMode runs a full collection before every Track call - far
	// too slow for production, invaluable for shaking out missed roots.
	StressMode bool

	// DebugLog, when set, receives one human-readable line per
	// collection (freed/live/next-threshold byte counts). Wired from
	// Config.DebugLog when Config.Runtime.GCLog is set; left nil
	// otherwise, which costs nothing beyond the nil check.
	DebugLog func(string)

	head value.Obj // most recently allocated live object

	// collect is set by the owning Runtime (or left nil in tests); it
	// performs a full mark-sweep pass rooted at whatever the runtime
	// considers live right now.
	collect func()

	// oom is set once Reallocate refuses to grow the heap and stays set
	// until ClearOOM runs. The vm package checks it at the top of the
	// interpreter loop, the next safe point after whatever allocation
	// tripped it, and turns it into a runtime error that aborts the
	// fiber rather than corrupting anything silently.
	oom bool
}

// NewAllocator builds an Allocator with sane pacing defaults: collect
// once 1MiB is live, then grow the threshold by 50% of what survived
// each collection.
func NewAllocator(realloc Reallocate) *Allocator {
	if realloc == nil {
		realloc = DefaultReallocate
	}
	return &Allocator{
		Reallocate:   realloc,
		NextGC:       1 << 20,
		GrowthFactor: 50,
		MinHeap:      1 << 20,
	}
}

// SetCollector wires the function the allocator calls when an
// allocation would cross NextGC. Called once by the owning Runtime at
// construction time.
func (a *Allocator) SetCollector(fn func()) { a.collect = fn }

// Track links a freshly-constructed object into the live list, accounts
// its size toward BytesAllocated, and triggers a collection first if
// doing so would cross NextGC (or always, under StressMode). Every
// object constructor in package object calls this exactly once, right
// after filling in the object's own fields but before returning it.
//
// Track routes size through the configured Reallocate before linking
// the object in, exactly as growStack does for the value stack: Go's
// own allocator already produced obj's backing memory, so Reallocate's
// returned buffer is discarded, but the
// call gives the host the chance to refuse a request that would
// overrun its budget. A refusal marks oom and leaves the object
// untracked rather than panicking or corrupting the collection.
func (a *Allocator) Track(obj value.Obj, size int) {
	if a.collect != nil && (a.StressMode || a.BytesAllocated+int64(size) > a.NextGC) {
		a.collect()
	}
	if _, err := a.Reallocate(nil, size); err != nil {
		a.oom = true
		return
	}
	h := obj.Header()
	h.Next = a.head
	a.head = obj
	a.BytesAllocated += int64(size)
}

// OOM reports whether Reallocate has refused a request since the last
// ClearOOM.
func (a *Allocator) OOM() bool { return a.oom }

// ClearOOM resets the sticky out-of-memory flag after the vm package has
// turned it into a runtime error.
func (a *Allocator) ClearOOM() { a.oom = false }

// MarkOOM records a Reallocate failure observed outside Track (growStack
// is the other caller, in package object).
func (a *Allocator) MarkOOM() { a.oom = true }

// Head returns the most recently allocated live object, the entry point
// for Sweep's walk over the intrusive list.
func (a *Allocator) Head() value.Obj { return a.head }

// SetHead replaces the intrusive list head; Sweep calls this with
// whatever object survived to be first in the post-sweep list.
func (a *Allocator) SetHead(obj value.Obj) { a.head = obj }

// AfterCollect recomputes NextGC from what survived a collection:
// max(bytes_allocated * (1 + growth/100), min_heap).
func (a *Allocator) AfterCollect() {
	next := a.BytesAllocated + (a.BytesAllocated * a.GrowthFactor / 100)
	if next < a.MinHeap {
		next = a.MinHeap
	}
	a.NextGC = next
}

// Free reduces the byte count when an object is reclaimed. Sweep calls
// this for every unmarked object.
func (a *Allocator) Free(size int) { a.BytesAllocated -= int64(size) }

package gc

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/kristofer/ember/pkg/value"
)

// RootProvider returns a set of objects that must survive a collection
// regardless of what else references them: the modules table, the
// handle list, the temporary-root stack, the current fiber chain, and
// the built-in classes. The Runtime registers one RootProvider per root
// category at construction time.
type RootProvider func() []value.Obj

// Collector runs a tri-color mark-sweep pass over an Allocator's
// intrusive object list. It holds no object-kind-specific logic itself;
// all of that lives in the Tracer/Finalizer functions registered by
// package object.
type Collector struct {
	Roots []RootProvider

	gray []value.Obj

	// marked records every object whose mark bit this cycle set, tracked
	// or not. Sweep only visits the allocator's intrusive list, but roots
	// can reach permanent objects that were never tracked (built-in
	// classes, host-assembled functions and their constants); their bits
	// must still be cleared after the cycle or they would be skipped as
	// already-marked next time and their children never re-traced.
	marked []value.Obj
}

// AddRoot registers another root provider, e.g. vm.New wiring up the
// current-fiber-chain root.
func (c *Collector) AddRoot(r RootProvider) { c.Roots = append(c.Roots, r) }

// Gray pushes obj onto the gray worklist unless it is nil or already
// marked, flipping its mark bit immediately (so a cycle can't requeue
// it). Tracer callbacks call this once per outgoing reference.
func (c *Collector) Gray(obj value.Obj) {
	if obj == nil {
		return
	}
	h := obj.Header()
	if h.Mark {
		return
	}
	h.Mark = true
	c.gray = append(c.gray, obj)
	c.marked = append(c.marked, obj)
}

// Collect runs one full mark-sweep cycle against alloc and returns the
// number of bytes reclaimed.
func (c *Collector) Collect(alloc *Allocator) int64 {
	c.mark()
	freed := c.sweep(alloc)
	for _, obj := range c.marked {
		obj.Header().Mark = false
	}
	c.marked = c.marked[:0]
	if alloc.DebugLog != nil {
		alloc.DebugLog(fmt.Sprintf("gc: freed %s, %s live, next collection at %s",
			humanize.Bytes(uint64(freed)), humanize.Bytes(uint64(alloc.BytesAllocated)), humanize.Bytes(uint64(alloc.NextGC))))
	}
	return freed
}

func (c *Collector) mark() {
	for _, root := range c.Roots {
		for _, obj := range root() {
			c.Gray(obj)
		}
	}
	for len(c.gray) > 0 {
		n := len(c.gray) - 1
		obj := c.gray[n]
		c.gray = c.gray[:n]

		h := obj.Header()
		c.Gray(h.Class)
		if tr := traceOf(h.Kind); tr != nil {
			tr(obj, c.Gray)
		}
	}
}

func (c *Collector) sweep(alloc *Allocator) int64 {
	var freed int64
	var survivorsHead, survivorsTail value.Obj

	for obj := alloc.Head(); obj != nil; {
		h := obj.Header()
		next := h.Next

		if h.Mark {
			h.Next = nil
			if survivorsHead == nil {
				survivorsHead = obj
			} else {
				survivorsTail.Header().Next = obj
			}
			survivorsTail = obj
		} else {
			if fin := finalizerOf(h.Kind); fin != nil {
				fin(obj)
			}
			size := sizeOf(obj)
			alloc.Free(size)
			freed += int64(size)
		}
		obj = next
	}

	alloc.SetHead(survivorsHead)
	alloc.AfterCollect()
	return freed
}

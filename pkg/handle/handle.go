// Package handle implements host-owned GC roots ("handles") and the call
// handles built on top of them: a handle wrapping a tiny synthesized
// bytecode closure that lets host code invoke a method by signature
// string without the compiler collaborator ever being involved.
package handle

import "github.com/kristofer/ember/pkg/value"

// Handle is a host-owned reference to a Value that must survive garbage
// collection for as long as the host holds it, even though nothing in
// the running program points at it any more. Embedders get one back
// from Registry.Make (Runtime.Handles.Make, Slots.GetHandle) or
// Runtime.MakeCallHandle and must call Release when done with it.
type Handle struct {
	Value      value.Value
	prev, next *Handle
}

// Registry is the doubly-linked list of outstanding handles; it is
// itself a GC root.
type Registry struct {
	head *Handle
}

// Make wraps v in a new handle and links it into the registry.
func (r *Registry) Make(v value.Value) *Handle {
	h := &Handle{Value: v, next: r.head}
	if r.head != nil {
		r.head.prev = h
	}
	r.head = h
	return h
}

// Release unlinks h. Using h after Release is a host programming error.
func (r *Registry) Release(h *Handle) {
	if h.prev != nil {
		h.prev.next = h.next
	} else if r.head == h {
		r.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	h.prev, h.next = nil, nil
}

// Roots returns every live handle's referenced object, for the
// collector's root set. Satisfies gc.RootProvider's signature without
// this package needing to import gc.
func (r *Registry) Roots() []value.Obj {
	var roots []value.Obj
	for h := r.head; h != nil; h = h.next {
		if o := h.Value.AsObj(); o != nil {
			roots = append(roots, o)
		}
	}
	return roots
}

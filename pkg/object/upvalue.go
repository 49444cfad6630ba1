package object

import "github.com/kristofer/ember/pkg/value"

// Upvalue is either open (still pointing into a live fiber's value
// stack, so writes through a closure are visible to the enclosing frame
// and vice versa) or closed (the frame that owned the slot returned, so
// the upvalue now owns the value itself).
//
// Open upvalues reference their slot by (Fiber, Index) rather than a raw
// pointer: since Fiber.Stack grows by reallocating its backing slice,
// an index is stable across that growth while a pointer would dangle,
// sidestepping the pointer-relocation pass a C implementation needs
// after every stack grow.
type Upvalue struct {
	value.ObjHeader

	Fiber    *Fiber
	Index    int
	closed   value.Value
	isClosed bool

	// NextOpen links this upvalue into its owning fiber's open-upvalue
	// list, kept sorted by descending Index so CLOSE_UPVALUE and fiber
	// return can close a contiguous run in one walk.
	NextOpen *Upvalue
}

// NewOpenUpvalue captures slot index of fiber's stack.
func NewOpenUpvalue(fiber *Fiber, index int) *Upvalue {
	u := &Upvalue{Fiber: fiber, Index: index}
	u.Kind = value.ObjUpvalue
	return u
}

// Get reads the current value, from the stack slot if still open or
// from the closed copy otherwise.
func (u *Upvalue) Get() value.Value {
	if u.isClosed {
		return u.closed
	}
	return u.Fiber.Stack[u.Index]
}

// Set writes through to the stack slot if open, or to the closed copy.
func (u *Upvalue) Set(v value.Value) {
	if u.isClosed {
		u.closed = v
		return
	}
	u.Fiber.Stack[u.Index] = v
}

// Close detaches the upvalue from its fiber's stack, copying out the
// current value. Called when the frame owning Index returns or when an
// explicit CLOSE_UPVALUE instruction runs.
func (u *Upvalue) Close() {
	if u.isClosed {
		return
	}
	u.closed = u.Fiber.Stack[u.Index]
	u.isClosed = true
	u.Fiber = nil
	u.NextOpen = nil
}

func (u *Upvalue) IsClosed() bool { return u.isClosed }

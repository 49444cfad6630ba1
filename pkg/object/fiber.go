package object

import (
	"github.com/google/uuid"

	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

// stackSlotSize is the per-Value byte cost growStack reports to
// Allocator.Reallocate, matching the accounting init.go's sizeFiber uses
// for the same Stack slice.
const stackSlotSize = 16

// FiberState classifies how a fiber was entered, governing what happens
// to an uncaught runtime error while it is running.
type FiberState uint8

const (
	// FiberOther is a fiber resumed via call/transfer from another
	// fiber; an uncaught error propagates to its caller.
	FiberOther FiberState = iota
	// FiberRoot is the outermost fiber a host interpret() call starts;
	// an uncaught error has nowhere further to propagate and is reported
	// to the host's error callback.
	FiberRoot
	// FiberTry marks a fiber that resumed another via Fiber.try; an
	// uncaught error in the resumed fiber is caught here and delivered
	// as the try call's result instead of propagating further.
	FiberTry
)

// CallFrame is one activation record on a fiber's frame stack: which
// closure is running, its instruction pointer, and where its stack
// window begins. StackStart is an index into the owning Fiber's Stack,
// not a pointer, so it stays valid across Fiber.growStack (see
// object/upvalue.go for the same reasoning applied to upvalues).
type CallFrame struct {
	Closure    *Closure
	IP         int
	StackStart int
}

// Fiber is a cooperatively-scheduled execution context: its own value
// stack, its own frame stack, and a chain of open upvalues pointing into
// that value stack. Transferring control to another fiber (call,
// transfer, yield) never touches Go's own goroutine scheduler; it is
// pure bookkeeping over the Caller chain the vm package walks.
type Fiber struct {
	value.ObjHeader

	ID uuid.UUID // stable identity for debugger/stack-trace messages

	Stack    []value.Value
	StackTop int // first free slot; len(active stack) == StackTop

	Frames []CallFrame

	OpenUpvalues *Upvalue // head of the list, sorted by descending Index

	Caller *Fiber
	Error  value.Value // Null() while no error is pending
	State  FiberState

	// EntryClosure is the closure Fiber.new(_) was built with; consumed
	// the first time the fiber is resumed, then left untouched.
	EntryClosure *Closure

	// HasStarted distinguishes a fresh, never-run fiber (whose single
	// waiting frame still needs its initial argument pushed) from one
	// already mid-execution.
	HasStarted bool

	// Alloc is the allocator growStack asks before resizing Stack. Left
	// nil by direct NewFiber construction (as in this package's tests),
	// in which case growStack always succeeds; rt.NewFiberObj wires the
	// runtime's real Allocator in.
	Alloc *gc.Allocator
}

// NewFiber allocates a fiber with an initially empty stack of the given
// capacity hint (typically the entry closure's MaxSlots).
func NewFiber(stackHint int) *Fiber {
	if stackHint < 8 {
		stackHint = 8
	}
	f := &Fiber{
		Stack: make([]value.Value, stackHint),
		Error: value.Null(),
		ID:    uuid.New(),
	}
	f.Kind = value.ObjFiber
	return f
}

// Push appends v to the top of the value stack, growing it first if
// full.
func (f *Fiber) Push(v value.Value) {
	if f.StackTop >= len(f.Stack) {
		f.growStack(len(f.Stack) * 2)
	}
	f.Stack[f.StackTop] = v
	f.StackTop++
}

// Pop removes and returns the top value.
func (f *Fiber) Pop() value.Value {
	f.StackTop--
	return f.Stack[f.StackTop]
}

// Peek returns the value `back` slots from the top without popping;
// Peek(0) is the current top.
func (f *Fiber) Peek(back int) value.Value {
	return f.Stack[f.StackTop-1-back]
}

// EnsureCapacity grows the stack so that at least `needed` additional
// slots beyond StackTop are available, used before pushing a whole
// argument list at once.
func (f *Fiber) EnsureCapacity(needed int) {
	want := f.StackTop + needed
	if want <= len(f.Stack) {
		return
	}
	newCap := len(f.Stack) * 2
	for newCap < want {
		newCap *= 2
	}
	f.growStack(newCap)
}

// growStack reallocates the value stack. Because frames and open
// upvalues reference slots by index rather than pointer, nothing needs
// fixing up after the copy - only the backing array changes.
//
// When Alloc is set, the grow is first offered to Allocator.Reallocate:
// a host that refuses (its budget is exhausted) has that refusal
// recorded via MarkOOM rather than silently ignored. The resize still
// goes ahead through Go's own allocator afterward - growStack has no way
// to fail a Push/EnsureCapacity caller outright without risking an
// out-of-bounds write on the next Push - so the sticky flag is the
// signal; the vm package's interpreter loop checks it at its next safe
// point and aborts the fiber from there (see Runtime.checkOOM).
func (f *Fiber) growStack(newCap int) {
	if f.Alloc != nil {
		delta := (newCap - len(f.Stack)) * stackSlotSize
		if delta > 0 {
			if _, err := f.Alloc.Reallocate(nil, delta); err != nil {
				f.Alloc.MarkOOM()
			}
		}
	}
	grown := make([]value.Value, newCap)
	copy(grown, f.Stack)
	f.Stack = grown
}

// PushFrame begins a new call frame running closure, whose stack window
// starts at stackStart.
func (f *Fiber) PushFrame(closure *Closure, stackStart int) {
	f.Frames = append(f.Frames, CallFrame{Closure: closure, StackStart: stackStart})
}

// PopFrame discards the innermost call frame and returns it.
func (f *Fiber) PopFrame() CallFrame {
	n := len(f.Frames) - 1
	fr := f.Frames[n]
	f.Frames = f.Frames[:n]
	return fr
}

// CurrentFrame returns a pointer to the innermost frame, so the
// interpreter can update its IP in place.
func (f *Fiber) CurrentFrame() *CallFrame {
	return &f.Frames[len(f.Frames)-1]
}

// CaptureUpvalue returns the open upvalue for stack index, creating one
// and inserting it into the sorted OpenUpvalues list if none exists yet.
func (f *Fiber) CaptureUpvalue(index int) *Upvalue {
	var prev *Upvalue
	cur := f.OpenUpvalues
	for cur != nil && cur.Index > index {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.Index == index {
		return cur
	}
	u := NewOpenUpvalue(f, index)
	if f.Alloc != nil {
		f.Alloc.Track(u, 32)
	}
	u.NextOpen = cur
	if prev == nil {
		f.OpenUpvalues = u
	} else {
		prev.NextOpen = u
	}
	return u
}

// CloseUpvaluesFrom closes every open upvalue at or above stack index
// `from`, detaching them from the open list. Called when a frame returns
// or when a CLOSE_UPVALUE instruction runs for a block-scoped local.
func (f *Fiber) CloseUpvaluesFrom(from int) {
	for f.OpenUpvalues != nil && f.OpenUpvalues.Index >= from {
		u := f.OpenUpvalues
		f.OpenUpvalues = u.NextOpen
		u.Close()
	}
}

// IsDone reports whether the fiber has no more frames to run.
func (f *Fiber) IsDone() bool { return len(f.Frames) == 0 }

// HasError reports whether an error is pending.
func (f *Fiber) HasError() bool { return !f.Error.IsNull() }

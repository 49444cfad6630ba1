package object

import "github.com/kristofer/ember/pkg/value"

// Signal reports how a dispatched method left the interpreter.
type Signal uint8

const (
	// SignalDone means the method fully ran and wrote its result to
	// args[0]; the interpreter keeps executing the current frame.
	SignalDone Signal = iota
	// SignalSwitch means the call changed which frame/fiber is running
	// (e.g. Fiber.call, Fn.call); the interpreter must reload its cached
	// frame pointers before continuing.
	SignalSwitch
	// SignalError means the running fiber's Error field was set; the
	// interpreter must unwind to the nearest try boundary.
	SignalError
)

// Runtime is the subset of the interpreter a primitive or foreign method
// body needs: allocating new objects, finding built-in classes, invoking
// a bytecode closure (used by call handles and by primitives like
// List.map that call back into the script), and aborting a fiber. It is
// declared here rather than in package vm so that methods attached to a
// Class (itself declared here) can close over it without package object
// importing package vm - vm.Runtime implements this interface instead.
type Runtime interface {
	NewInstance(class *Class) *Instance
	NewString(s string) *String
	NewList(elems []value.Value) *List
	NewMap() *Map
	NewRange(from, to float64, inclusive bool) *Range
	NewFiberObj(entry *Closure) *Fiber
	NewForeign(class *Class, size int) *Foreign
	BuiltinClass(name string) *Class
	ClassOf(v value.Value) *Class
	CallClosure(fiber *Fiber, closure *Closure, args []value.Value) Signal
	Abort(fiber *Fiber, err value.Value)
	SetCurrentFiber(f *Fiber)
	Write(text string)
}

// PrimitiveFn implements a method body written in Go rather than
// bytecode. args is a window into the caller's value stack: args[0] is
// the receiver, args[1:] are the declared parameters. A primitive
// signals its result by overwriting args[0] before returning SignalDone.
type PrimitiveFn func(rt Runtime, fiber *Fiber, args []value.Value) Signal

// ForeignFn is a foreign method: like PrimitiveFn, but bound through the
// host's bind-foreign-method hook rather than registered on a built-in
// class, and addressed through the slot API (pkg/api) rather than direct
// Value manipulation.
type ForeignFn func(rt Runtime, fiber *Fiber, args []value.Value) Signal

// MethodKind discriminates a Method table entry.
type MethodKind uint8

const (
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodForeign
	MethodBlock
)

// Method is one entry in a Class's method table, a discriminated union
// over the three ways a message send can be satisfied.
type Method struct {
	Kind      MethodKind
	Primitive PrimitiveFn
	Foreign   ForeignFn
	Closure   *Closure
}

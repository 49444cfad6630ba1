package object

import "github.com/kristofer/ember/pkg/value"

// Closure pairs a Function with the upvalues captured at the point it
// was built. This is the object every LOAD_LOCAL/CALL ultimately invokes
// as "the code to run" - bare Functions never appear as Values.
type Closure struct {
	value.ObjHeader
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a closure over fn with upvalues already resolved
// by the CLOSURE opcode handler (each either a freshly opened upvalue
// capturing a local of the enclosing frame, or a shared upvalue lifted
// from the enclosing closure).
func NewClosure(fn *Function, upvalues []*Upvalue) *Closure {
	c := &Closure{Function: fn, Upvalues: upvalues}
	c.Kind = value.ObjClosure
	return c
}

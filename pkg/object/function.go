package object

import (
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/value"
)

// UpvalueDesc tells the CLOSURE opcode where to capture an upvalue from:
// either a local slot of the *enclosing* frame (IsLocal true, Index is a
// stack offset) or an upvalue of the enclosing closure itself (IsLocal
// false, Index is an index into its Upvalues).
type UpvalueDesc struct {
	IsLocal bool
	Index   int
}

// Function is the never-user-visible compiled body of a method or
// block: its code, constant pool, and enough metadata for the
// interpreter to set up a call frame. Functions are always wrapped in a
// Closure before becoming a runtime Value; the CLOSURE opcode builds
// one Closure per Function constant per enclosing activation, so the
// same Function can be captured many times over with different
// upvalues.
type Function struct {
	value.ObjHeader

	Name      string
	Module    *Module
	Code      []bytecode.Instruction
	Constants []value.Value

	Arity        int
	MaxSlots     int
	UpvalueDescs []UpvalueDesc
}

// NewFunction constructs a function body. code/constants are taken by
// reference.
func NewFunction(module *Module, code []bytecode.Instruction, constants []value.Value, arity, maxSlots int, upvalues []UpvalueDesc) *Function {
	f := &Function{
		Module:       module,
		Code:         code,
		Constants:    constants,
		Arity:        arity,
		MaxSlots:     maxSlots,
		UpvalueDescs: upvalues,
	}
	f.Kind = value.ObjFunction
	return f
}

func (f *Function) NumUpvalues() int { return len(f.UpvalueDescs) }

// Package asm is a Go-native fluent bytecode builder standing in for
// the compiler, which is a host collaborator this module does not
// provide. Where a real front end would parse source text and emit
// instructions, asm.Builder lets tests and cmd/ember build
// *object.Function values directly, one instruction at a time.
//
// A fluent Go API was chosen over a text-format assembler: there is no
// textual bytecode format to parse, and builder calls compose better
// with test code that already computes constants and symbols in Go.
package asm

import (
	"fmt"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/symbol"
	"github.com/kristofer/ember/pkg/value"
)

// Builder accumulates instructions and constants for a single function
// body. Use New to start one, chain Op, Call, Jump/Patch and the other
// emitters, and finish with End and Build.
type Builder struct {
	symbols   *symbol.Table
	module    *object.Module
	name      string
	arity     int
	maxSlots  int
	code      []bytecode.Instruction
	constants []value.Value
	upvalues  []object.UpvalueDesc
}

// New starts a builder for a function owned by module, interning method
// symbols against symbols.
func New(symbols *symbol.Table, module *object.Module) *Builder {
	return &Builder{symbols: symbols, module: module, maxSlots: 1}
}

func (b *Builder) Name(n string) *Builder  { b.name = n; return b }
func (b *Builder) Arity(n int) *Builder    { b.arity = n; return b }
func (b *Builder) MaxSlots(n int) *Builder { b.maxSlots = n; return b }

// Const appends v to the constant pool and returns its index.
func (b *Builder) Const(v value.Value) int {
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

// ConstString interns s as a string object constant and returns its
// index, a convenience over Const(value.FromObj(object.NewString(s))).
func (b *Builder) ConstString(s string) int {
	return b.Const(value.FromObj(object.NewString(s)))
}

// CaptureLocal records that this function's next CLOSURE-built closure
// should capture the enclosing frame's local at slot index.
func (b *Builder) CaptureLocal(index int) *Builder {
	b.upvalues = append(b.upvalues, object.UpvalueDesc{IsLocal: true, Index: index})
	return b
}

// CaptureUpvalue records capture of the enclosing closure's own upvalue
// at index.
func (b *Builder) CaptureUpvalue(index int) *Builder {
	b.upvalues = append(b.upvalues, object.UpvalueDesc{IsLocal: false, Index: index})
	return b
}

// emit appends a raw instruction and returns its index, for callers that
// need to patch the operand later (jumps).
func (b *Builder) emit(op bytecode.Opcode, operand int) int {
	b.code = append(b.code, bytecode.Instruction{Op: op, Operand: operand})
	return len(b.code) - 1
}

// Op emits a bare instruction and returns the Builder for chaining.
func (b *Builder) Op(op bytecode.Opcode, operand int) *Builder {
	b.emit(op, operand)
	return b
}

// Here returns the current instruction count, the address a backward
// Loop should target.
func (b *Builder) Here() int { return len(b.code) }

// Jump emits a forward-branching instruction (Jump, JumpIfFalse, And, or
// Or) with a placeholder operand and returns its index for Patch.
func (b *Builder) Jump(op bytecode.Opcode) int {
	return b.emit(op, 0)
}

// Patch fixes up a forward jump emitted by Jump so it lands right after
// the instruction most recently emitted.
func (b *Builder) Patch(at int) *Builder {
	b.code[at].Operand = len(b.code) - at - 1
	return b
}

// Loop emits a backward branch to target (an index returned by Here).
func (b *Builder) Loop(target int) *Builder {
	b.emit(bytecode.Loop, len(b.code)-target+1)
	return b
}

// Call emits a CALL instruction for signature, interning it if
// necessary. argCount includes the receiver.
func (b *Builder) Call(signature string, argCount int) *Builder {
	sym := b.symbols.Intern(signature)
	b.emit(bytecode.Call, bytecode.PackCall(sym, argCount))
	return b
}

// SuperCall emits a SUPER_CALL instruction: superclassConstant is the
// index (returned by Const) of the constant holding the superclass where
// method lookup starts.
func (b *Builder) SuperCall(signature string, argCount int, superclassConstant int) *Builder {
	sym := b.symbols.Intern(signature)
	b.emit(bytecode.SuperCall, bytecode.PackSuperCall(sym, argCount, superclassConstant))
	return b
}

// End terminates the instruction stream with the mandatory End sentinel.
func (b *Builder) End() *Builder {
	b.emit(bytecode.End, 0)
	return b
}

// Build finalizes the function. Panics if the instruction stream was
// never terminated with End, catching a forgotten terminator at build
// time rather than letting the interpreter run off the end of Code.
func (b *Builder) Build() *object.Function {
	if len(b.code) == 0 || b.code[len(b.code)-1].Op != bytecode.End {
		panic(fmt.Sprintf("asm: function %q built without a terminating End instruction", b.name))
	}
	fn := object.NewFunction(b.module, b.code, b.constants, b.arity, b.maxSlots, b.upvalues)
	fn.Name = b.name
	return fn
}

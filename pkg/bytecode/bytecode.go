// Package bytecode defines ember's instruction set: the wire between the
// compiler collaborator (out of scope for this module; it is treated as
// an external producer of *object.Function values) and the interpreter
// in pkg/vm.
//
// Instructions are struct-shaped (Opcode + Operand) rather than a packed
// byte stream with 1-/2-byte immediates. Since nothing in this module
// serializes bytecode to disk or needs a disassembler for a textual
// source language, the struct form is simpler to build (see pkg/asm) and
// keeps the interpreter's decode step branch-free.
package bytecode

// Opcode identifies a single interpreter operation.
type Opcode byte

const (
	// === Stack & constants ===

	// Pop discards the top of the value stack.
	Pop Opcode = iota

	// Dup duplicates the top of the value stack.
	Dup

	// Constant pushes Function.Constants[Operand].
	Constant

	// PushNull, PushTrue, PushFalse push a singleton without touching the
	// constant pool.
	PushNull
	PushTrue
	PushFalse

	// === Locals, fields, upvalues, module vars ===

	// LoadLocal pushes the value of local/parameter slot Operand.
	LoadLocal

	// StoreLocal overwrites local slot Operand with the top of stack,
	// without popping it (assignment is an expression).
	StoreLocal

	// LoadFieldThis and StoreFieldThis access field Operand of the
	// current receiver (frame slot 0) without it ever reaching the stack.
	LoadFieldThis
	StoreFieldThis

	// LoadField and StoreField pop a receiver and access field Operand of
	// it; used only when the receiver is not implicitly `this`.
	LoadField
	StoreField

	// LoadUpvalue and StoreUpvalue access the current closure's upvalue
	// array at index Operand.
	LoadUpvalue
	StoreUpvalue

	// CloseUpvalue closes every open upvalue pointing at or above the top
	// stack slot, then pops it.
	CloseUpvalue

	// LoadModuleVar and StoreModuleVar access the current function's
	// owning module's variable slot Operand.
	LoadModuleVar
	StoreModuleVar

	// === Calls ===

	// Call sends a message. Operand packs the method symbol and argument
	// count (PackCall/UnpackCall); the receiver's class is read from the
	// first argument already on the stack.
	Call

	// SuperCall behaves like Call but method lookup starts at the
	// superclass of the statically-known enclosing class, which is read
	// from Function.Constants[Operand>>ConstantShift] - see PackSuperCall.
	SuperCall

	// === Control flow ===

	// Jump moves the instruction pointer forward by Operand.
	Jump

	// Loop moves the instruction pointer backward by Operand.
	Loop

	// JumpIfFalse pops the stack; if the value is falsy (null or false),
	// jumps forward by Operand.
	JumpIfFalse

	// And peeks the stack: if falsy, jumps forward by Operand leaving the
	// value in place; otherwise pops and falls through to evaluate the
	// right-hand side.
	And

	// Or is the dual of And: if truthy, jumps forward leaving the value;
	// otherwise pops and falls through.
	Or

	// Return ends the current call frame. The value on top of the stack
	// becomes the result delivered to the caller.
	Return

	// === Object / class construction ===

	// Construct replaces the receiver slot (already holding the class) in
	// place with a freshly allocated bytecode Instance of it.
	Construct

	// ForeignConstruct is Construct's counterpart for foreign classes: it
	// invokes the class's registered allocator instead of zeroing fields.
	ForeignConstruct

	// Closure builds a closure over Function.Constants[Operand] (itself a
	// nested *object.Function), capturing upvalues per that function's
	// recorded UpvalueDescs.
	Closure

	// Class pops a superclass and a name string and builds a new class
	// with Operand declared fields (in addition to the superclass's).
	Class

	// ForeignClass is Class's counterpart for foreign classes: Operand is
	// unused (foreign classes never declare bytecode-visible fields).
	ForeignClass

	// MethodInstance and MethodStatic pop a closure and bind it into the
	// class just below it on the stack, at method symbol Operand.
	MethodInstance
	MethodStatic

	// === Modules ===

	// EndModule finalizes the currently-compiling module.
	EndModule

	// ImportModule loads Function.Constants[Operand] (a module name) and
	// runs it if not already loaded.
	ImportModule

	// ImportVariable copies a single variable named by
	// Function.Constants[Operand] from the most recently imported module.
	ImportVariable

	// End is a sentinel that must never execute: its presence right after
	// a function's final Return marks the end of the instruction stream.
	End
)

func (op Opcode) String() string {
	switch op {
	case Pop:
		return "POP"
	case Dup:
		return "DUP"
	case Constant:
		return "CONSTANT"
	case PushNull:
		return "NULL"
	case PushTrue:
		return "TRUE"
	case PushFalse:
		return "FALSE"
	case LoadLocal:
		return "LOAD_LOCAL"
	case StoreLocal:
		return "STORE_LOCAL"
	case LoadFieldThis:
		return "LOAD_FIELD_THIS"
	case StoreFieldThis:
		return "STORE_FIELD_THIS"
	case LoadField:
		return "LOAD_FIELD"
	case StoreField:
		return "STORE_FIELD"
	case LoadUpvalue:
		return "LOAD_UPVALUE"
	case StoreUpvalue:
		return "STORE_UPVALUE"
	case CloseUpvalue:
		return "CLOSE_UPVALUE"
	case LoadModuleVar:
		return "LOAD_MODULE_VAR"
	case StoreModuleVar:
		return "STORE_MODULE_VAR"
	case Call:
		return "CALL"
	case SuperCall:
		return "SUPER_CALL"
	case Jump:
		return "JUMP"
	case Loop:
		return "LOOP"
	case JumpIfFalse:
		return "JUMP_IF_FALSE"
	case And:
		return "AND"
	case Or:
		return "OR"
	case Return:
		return "RETURN"
	case Construct:
		return "CONSTRUCT"
	case ForeignConstruct:
		return "FOREIGN_CONSTRUCT"
	case Closure:
		return "CLOSURE"
	case Class:
		return "CLASS"
	case ForeignClass:
		return "FOREIGN_CLASS"
	case MethodInstance:
		return "METHOD_INSTANCE"
	case MethodStatic:
		return "METHOD_STATIC"
	case EndModule:
		return "END_MODULE"
	case ImportModule:
		return "IMPORT_MODULE"
	case ImportVariable:
		return "IMPORT_VARIABLE"
	case End:
		return "END"
	default:
		return "UNKNOWN"
	}
}

// Instruction is one decoded bytecode instruction.
type Instruction struct {
	Op      Opcode
	Operand int
	Line    int // source line, for stack traces; 0 if unknown
}

// Call/SuperCall operand packing: high bits hold the method symbol, low 8
// bits hold the argument count (receiver included).
const (
	SymbolShift  = 8
	ArgCountMask = 0xFF
)

// PackCall encodes a symbol and argument count into a single operand.
func PackCall(symbol, argCount int) int {
	return (symbol << SymbolShift) | (argCount & ArgCountMask)
}

// UnpackCall decodes an operand built by PackCall.
func UnpackCall(operand int) (symbol, argCount int) {
	return operand >> SymbolShift, operand & ArgCountMask
}

// SuperCall additionally packs a constant-pool index (the statically
// known starting superclass) above the symbol bits.
const ConstantShift = 32

// PackSuperCall encodes a symbol, argument count, and superclass
// constant index into a single operand.
func PackSuperCall(symbol, argCount, superclassConstant int) int {
	return (superclassConstant << ConstantShift) | PackCall(symbol, argCount)
}

// UnpackSuperCall decodes an operand built by PackSuperCall.
func UnpackSuperCall(operand int) (symbol, argCount, superclassConstant int) {
	symbol, argCount = UnpackCall(operand & ((1 << ConstantShift) - 1))
	superclassConstant = operand >> ConstantShift
	return
}

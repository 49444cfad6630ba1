package handle

import (
	"strings"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/symbol"
)

// ParseArgCount counts the underscore placeholders in a method
// signature string, the convention this runtime (and the language it
// was distilled from) uses for both call syntax ("call(_,_)") and
// subscript syntax ("[_]=(_)"): every underscore is one argument,
// regardless of which half of the signature it falls in.
func ParseArgCount(signature string) int {
	return strings.Count(signature, "_")
}

// NewCallHandle builds a tiny synthesized closure - CALL sym; RETURN;
// END - that lets host code invoke a method by signature string without
// the compiler ever being involved. Wrap the result in a Handle via
// Registry.Make to keep it alive across calls.
func NewCallHandle(symbols *symbol.Table, signature string) *object.Closure {
	sym := symbols.Intern(signature)
	argCount := ParseArgCount(signature) + 1 // +1 for the receiver in slot 0

	code := []bytecode.Instruction{
		{Op: bytecode.Call, Operand: bytecode.PackCall(sym, argCount)},
		{Op: bytecode.Return},
		{Op: bytecode.End},
	}
	fn := object.NewFunction(nil, code, nil, argCount-1, argCount, nil)
	fn.Name = signature
	return object.NewClosure(fn, nil)
}

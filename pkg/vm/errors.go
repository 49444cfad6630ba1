// Package vm implements ember's fiber execution engine: the
// switch-dispatched bytecode interpreter, message dispatch, and fiber lifecycle
// management described by the runtime's core specification.
package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/ember/pkg/object"
)

// StackFrame is one line of a printed stack trace: which function was
// running, and where.
type StackFrame struct {
	FunctionName string
	ModuleName   string
	Line         int
}

// RuntimeError is a fiber's uncaught error together with the call stack
// captured at the moment it propagated past the last frame willing to
// catch it.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

// Error implements the error interface: the message first, then one
// trace line per frame, innermost first.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.StackTrace {
		b.WriteString(fmt.Sprintf("\n[%s line %d] in %s", f.ModuleName, f.Line, f.FunctionName))
	}
	return b.String()
}

// captureStackTrace walks a fiber's frame stack from innermost to
// outermost, following the caller chain once the fiber itself runs out
// of frames, so a fiber started via Fiber.call reports its caller's
// frames too.
func captureStackTrace(fiber *object.Fiber) []StackFrame {
	var trace []StackFrame
	for f := fiber; f != nil; f = f.Caller {
		for i := len(f.Frames) - 1; i >= 0; i-- {
			fr := f.Frames[i]
			line := 0
			if fr.IP > 0 && fr.IP-1 < len(fr.Closure.Function.Code) {
				line = fr.Closure.Function.Code[fr.IP-1].Line
			}
			name := fr.Closure.Function.Name
			module := ""
			if fr.Closure.Function.Module != nil {
				module = fr.Closure.Function.Module.Name
			}
			trace = append(trace, StackFrame{FunctionName: name, ModuleName: module, Line: line})
		}
	}
	return trace
}

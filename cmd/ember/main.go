// Command ember is a small demonstration host embedding the runtime in
// pkg/vm. Since the source-to-bytecode compiler is a host collaborator
// ember does not ship, there is no user file to parse and run; instead
// the command hand-assembles a short demo program with pkg/asm and runs
// that - enough to exercise the config loader, the write sink, and
// colorized error reporting end to end.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/kristofer/ember/pkg/asm"
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/config"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		runDemo()
		return
	}

	switch os.Args[1] {
	case "version", "-v", "--version":
		fmt.Printf("ember version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	case "demo", "run":
		runDemo()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ember - an execution runtime for a small object-oriented scripting language")
	fmt.Println("\nUsage:")
	fmt.Println("  ember               Run the built-in demo program")
	fmt.Println("  ember demo          Same as above")
	fmt.Println("  ember version       Show version")
	fmt.Println("  ember help          Show this help")
	fmt.Println("\nThere is no source-to-bytecode compiler in this module (it is a host")
	fmt.Println("collaborator per the runtime's own spec); a real embedding hands the")
	fmt.Println("runtime an *object.Function produced by its own front end.")
}

// colorWriter wraps error/stack-trace text in ANSI red when stderr is a
// real terminal, the way a host embedding's CLI would want its crash
// output to stand out in an interactive shell but stay plain when piped
// to a log file.
func colorWriter(w *os.File) func(string) string {
	color := isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
	if !color {
		return func(s string) string { return s }
	}
	return func(s string) string { return "\x1b[31m" + s + "\x1b[0m" }
}

// runDemo assembles and runs System.print(1 + 2 * 3), using the runtime
// config loader so EMBER_* environment variables (GC pacing, stress
// mode) take effect exactly as they would for a real embedding.
func runDemo() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: EMBER_* environment parse failed, using defaults: %v\n", err)
	}

	colorize := colorWriter(os.Stderr)

	rt := vm.New(vm.Config{
		Runtime: cfg,
		Write:   func(text string) { fmt.Print(text) },
		ReportError: func(kind vm.ErrorKind, module string, line int, message string) {
			fmt.Fprintln(os.Stderr, colorize(fmt.Sprintf("[%s line %d] %s", module, line, message)))
		},
		DebugLog: func(text string) { fmt.Fprintln(os.Stderr, text) },
	})

	fmt.Fprintf(os.Stderr, "builtins: %v\n", rt.BuiltinClassNames())

	system := demoSystemClass(rt)

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(5)
	sysConst := b.Const(value.FromObj(system))
	oneConst := b.Const(value.Number(1))
	twoConst := b.Const(value.Number(2))
	threeConst := b.Const(value.Number(3))
	b.Op(bytecode.Constant, sysConst)
	b.Op(bytecode.Constant, oneConst)
	b.Op(bytecode.Constant, twoConst)
	b.Op(bytecode.Constant, threeConst)
	b.Call("*(_)", 2)
	b.Call("+(_)", 2)
	b.Call("print(_)", 2)
	b.Op(bytecode.Return, 0)
	b.End()

	closure := object.NewClosure(b.Build(), nil)

	if result := rt.Interpret(closure); result != vm.ResultSuccess {
		os.Exit(1)
	}
}

// demoSystemClass stands in for the System class a real host embedding
// binds via Config.BindForeignMethod; print(_) writes through to
// Config.Write.
func demoSystemClass(rt *vm.Runtime) *object.Class {
	class := object.NewClass(rt.Symbols, rt.NewString("System"), rt.BuiltinClass("Object"), 0)
	class.Class = rt.BuiltinClass("Class")
	rt.Alloc.Track(class, 64)

	print := func(rtIface object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		rtIface.Write(fmt.Sprintf("%v\n", args[1].AsNumber()))
		args[0] = args[1]
		return object.SignalDone
	}
	class.BindStaticMethod(rt.Symbols.Intern("print(_)"), object.Method{Kind: object.MethodForeign, Foreign: print})
	return class
}

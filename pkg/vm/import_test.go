package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/asm"
	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// buildUtilModule assembles a module "util" whose top-level body stores
// 42 into its one module variable, answer, standing in for what the
// compiler collaborator would produce for `var answer = 42`.
func buildUtilModule(rt *vm.Runtime) *object.Closure {
	module := object.NewModule("util")
	rt.Alloc.Track(module, 32)
	module.Define("answer", value.Null())

	b := asm.New(rt.Symbols, module).Name("util").Arity(0).MaxSlots(2)
	answerConst := b.Const(value.Number(42))
	b.Op(bytecode.Constant, answerConst)
	b.Op(bytecode.StoreModuleVar, 0)
	b.Op(bytecode.Pop, 0)
	b.Op(bytecode.EndModule, 0)
	b.Op(bytecode.PushNull, 0)
	b.Op(bytecode.Return, 0)
	b.End()
	return object.NewClosure(b.Build(), nil)
}

// mainImportingUtil assembles the importer: run util's body, import it a
// second time (which must hit the cache), then fetch `answer` out of it.
func mainImportingUtil(rt *vm.Runtime) *object.Closure {
	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(3)
	nameConst := b.ConstString("util")
	varConst := b.ConstString("answer")
	b.Op(bytecode.ImportModule, nameConst)
	b.Call("call()", 1)
	b.Op(bytecode.Pop, 0)
	b.Op(bytecode.ImportModule, nameConst) // cached: pushes null, no loader call
	b.Op(bytecode.Pop, 0)
	b.Op(bytecode.ImportVariable, varConst)
	b.Op(bytecode.Return, 0)
	b.End()
	return object.NewClosure(b.Build(), nil)
}

func TestImportModuleLoadsOnceAndExportsVariables(t *testing.T) {
	loads := 0
	var rt *vm.Runtime
	rt = vm.New(vm.Config{
		LoadModule: func(name string) *object.Closure {
			loads++
			require.Equal(t, "util", name)
			return buildUtilModule(rt)
		},
	})

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, mainImportingUtil(rt), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, float64(42), fiber.Pop().AsNumber())
	require.Equal(t, 1, loads, "second import of the same module must come from the cache")

	module := rt.Module("util")
	require.NotNil(t, module)
	answer, ok := module.Lookup("answer")
	require.True(t, ok)
	require.Equal(t, float64(42), answer.AsNumber())
}

func TestImportPreloadedModule(t *testing.T) {
	rt := vm.New(vm.Config{})
	rt.PreloadModule("util", buildUtilModule(rt))

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, mainImportingUtil(rt), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, float64(42), fiber.Pop().AsNumber())
}

func TestImportMissingModuleIsRuntimeError(t *testing.T) {
	var message string
	rt := vm.New(vm.Config{ReportError: func(kind vm.ErrorKind, module string, line int, msg string) {
		message = msg
	}})

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(2)
	nameConst := b.ConstString("nowhere")
	b.Op(bytecode.ImportModule, nameConst)
	b.Op(bytecode.Return, 0)
	b.End()

	result := rt.Interpret(object.NewClosure(b.Build(), nil))
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, message, "Could not load module 'nowhere'")
}

func TestResolveModuleRewritesImportName(t *testing.T) {
	var resolvedFrom, resolvedName string
	rt := vm.New(vm.Config{
		ResolveModule: func(importer, name string) string {
			resolvedFrom, resolvedName = importer, name
			return "util"
		},
	})
	rt.PreloadModule("util", buildUtilModule(rt))

	importerModule := object.NewModule("app")
	rt.Alloc.Track(importerModule, 32)
	b := asm.New(rt.Symbols, importerModule).Name("main").Arity(0).MaxSlots(3)
	nameConst := b.ConstString("./util")
	b.Op(bytecode.ImportModule, nameConst)
	b.Call("call()", 1)
	b.Op(bytecode.Return, 0)
	b.End()

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, object.NewClosure(b.Build(), nil), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, "app", resolvedFrom)
	require.Equal(t, "./util", resolvedName)
	require.NotNil(t, rt.Module("util"))
}

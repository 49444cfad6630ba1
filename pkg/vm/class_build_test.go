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

// TestClassOpcodesBuildAndConstruct drives the full class lifecycle in
// bytecode: CLASS, METHOD_INSTANCE/METHOD_STATIC, CONSTRUCT, and the
// field opcodes, equivalent to
//
//	class Point { init(a, b) { _x = a  _y = b }  sum() { _x + _y } }
//	Point.new(3, 4).sum()
func TestClassOpcodesBuildAndConstruct(t *testing.T) {
	rt := vm.New(vm.Config{})

	sum := asm.New(rt.Symbols, nil).Name("sum()").Arity(0).MaxSlots(3)
	sum.Op(bytecode.LoadFieldThis, 0)
	sum.Op(bytecode.LoadFieldThis, 1)
	sum.Call("+(_)", 2)
	sum.Op(bytecode.Return, 0)
	sum.End()
	sumFn := sum.Build()

	ini := asm.New(rt.Symbols, nil).Name("init(_,_)").Arity(2).MaxSlots(4)
	ini.Op(bytecode.LoadLocal, 1)
	ini.Op(bytecode.StoreFieldThis, 0)
	ini.Op(bytecode.Pop, 0)
	ini.Op(bytecode.LoadLocal, 2)
	ini.Op(bytecode.StoreFieldThis, 1)
	ini.Op(bytecode.Pop, 0)
	ini.Op(bytecode.LoadLocal, 0)
	ini.Op(bytecode.Return, 0)
	ini.End()
	iniFn := ini.Build()

	// new(_,_): the receiver in slot 0 is the class; CONSTRUCT swaps it
	// for a fresh instance, which init then populates and returns.
	ctor := asm.New(rt.Symbols, nil).Name("new(_,_)").Arity(2).MaxSlots(6)
	ctor.Op(bytecode.Construct, 0)
	ctor.Op(bytecode.LoadLocal, 0)
	ctor.Op(bytecode.LoadLocal, 1)
	ctor.Op(bytecode.LoadLocal, 2)
	ctor.Call("init(_,_)", 3)
	ctor.Op(bytecode.Return, 0)
	ctor.End()
	ctorFn := ctor.Build()

	sumSym := rt.Symbols.Intern("sum()")
	iniSym := rt.Symbols.Intern("init(_,_)")
	newSym := rt.Symbols.Intern("new(_,_)")

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(8)
	nameConst := b.ConstString("Point")
	superConst := b.Const(value.FromObj(rt.BuiltinClass("Object")))
	sumConst := b.Const(value.FromObj(sumFn))
	iniConst := b.Const(value.FromObj(iniFn))
	ctorConst := b.Const(value.FromObj(ctorFn))
	threeConst := b.Const(value.Number(3))
	fourConst := b.Const(value.Number(4))
	b.Op(bytecode.Constant, nameConst)
	b.Op(bytecode.Constant, superConst)
	b.Op(bytecode.Class, 2)
	b.Op(bytecode.Closure, sumConst)
	b.Op(bytecode.MethodInstance, sumSym)
	b.Op(bytecode.Closure, iniConst)
	b.Op(bytecode.MethodInstance, iniSym)
	b.Op(bytecode.Closure, ctorConst)
	b.Op(bytecode.MethodStatic, newSym)
	b.Op(bytecode.Constant, threeConst)
	b.Op(bytecode.Constant, fourConst)
	b.Call("new(_,_)", 3)
	b.Call("sum()", 1)
	b.Op(bytecode.Return, 0)
	b.End()

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, object.NewClosure(b.Build(), nil), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	require.Equal(t, float64(7), fiber.Pop().AsNumber())
}

// TestClassReceiverFallsBackToClassMethods checks that a message a class
// object's static table doesn't answer still reaches the Class builtin's
// instance methods (name, supertype), the flattened stand-in for a full
// metaclass chain.
func TestClassReceiverFallsBackToClassMethods(t *testing.T) {
	rt := vm.New(vm.Config{})

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(2)
	classConst := b.Const(value.FromObj(rt.BuiltinClass("String")))
	b.Op(bytecode.Constant, classConst)
	b.Call("name", 1)
	b.Op(bytecode.Return, 0)
	b.End()

	fiber := rt.NewFiberObj(nil)
	sig := rt.CallClosure(fiber, object.NewClosure(b.Build(), nil), []value.Value{value.Null()})
	require.Equal(t, object.SignalDone, sig)
	name, ok := fiber.Pop().AsObj().(*object.String)
	require.True(t, ok)
	require.Equal(t, "String", name.String())
}

func TestClassCannotInheritSealedBuiltin(t *testing.T) {
	var message string
	rt := vm.New(vm.Config{ReportError: func(kind vm.ErrorKind, module string, line int, msg string) {
		message = msg
	}})

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(3)
	nameConst := b.ConstString("Bad")
	superConst := b.Const(value.FromObj(rt.BuiltinClass("Num")))
	b.Op(bytecode.Constant, nameConst)
	b.Op(bytecode.Constant, superConst)
	b.Op(bytecode.Class, 0)
	b.Op(bytecode.Return, 0)
	b.End()

	result := rt.Interpret(object.NewClosure(b.Build(), nil))
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, message, "cannot inherit from built-in class 'Num'")
}

func TestClassFieldCountOverflowRejected(t *testing.T) {
	var message string
	rt := vm.New(vm.Config{ReportError: func(kind vm.ErrorKind, module string, line int, msg string) {
		message = msg
	}})

	b := asm.New(rt.Symbols, nil).Name("main").Arity(0).MaxSlots(3)
	nameConst := b.ConstString("Wide")
	superConst := b.Const(value.FromObj(rt.BuiltinClass("Object")))
	b.Op(bytecode.Constant, nameConst)
	b.Op(bytecode.Constant, superConst)
	b.Op(bytecode.Class, object.MaxFields+1)
	b.Op(bytecode.Return, 0)
	b.End()

	result := rt.Interpret(object.NewClosure(b.Build(), nil))
	require.Equal(t, vm.ResultRuntimeError, result)
	require.Contains(t, message, "may not have more than 255 fields")
}

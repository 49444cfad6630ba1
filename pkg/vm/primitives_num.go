package vm

import (
	"math"
	"strconv"

	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// bindNumPrimitives wires up Num's arithmetic, comparison, and bitwise
// operators plus its small set of conversions. Every binary operator
// checks its argument's kind itself rather than relying on a dispatch
// guard.
func (rt *Runtime) bindNumPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "+(_)", numBinary(func(a, b float64) float64 { return a + b }))
	rt.bindPrimitive(class, "-(_)", numBinary(func(a, b float64) float64 { return a - b }))
	rt.bindPrimitive(class, "*(_)", numBinary(func(a, b float64) float64 { return a * b }))
	rt.bindPrimitive(class, "/(_)", numBinary(func(a, b float64) float64 { return a / b }))
	rt.bindPrimitive(class, "%(_)", numBinary(math.Mod))

	rt.bindPrimitive(class, "<(_)", numCompare(func(a, b float64) bool { return a < b }))
	rt.bindPrimitive(class, "<=(_)", numCompare(func(a, b float64) bool { return a <= b }))
	rt.bindPrimitive(class, ">(_)", numCompare(func(a, b float64) bool { return a > b }))
	rt.bindPrimitive(class, ">=(_)", numCompare(func(a, b float64) bool { return a >= b }))

	rt.bindPrimitive(class, "&(_)", numBitwise(func(a, b int64) int64 { return a & b }))
	rt.bindPrimitive(class, "|(_)", numBitwise(func(a, b int64) int64 { return a | b }))
	rt.bindPrimitive(class, "^(_)", numBitwise(func(a, b int64) int64 { return a ^ b }))
	rt.bindPrimitive(class, "<<(_)", numBitwise(func(a, b int64) int64 { return a << uint(b) }))
	rt.bindPrimitive(class, ">>(_)", numBitwise(func(a, b int64) int64 { return a >> uint(b) }))

	rt.bindPrimitive(class, "-", primNumNegate)
	rt.bindPrimitive(class, "~", primNumBitwiseNot)
	rt.bindPrimitive(class, "abs", numUnary(math.Abs))
	rt.bindPrimitive(class, "sqrt", numUnary(math.Sqrt))
	rt.bindPrimitive(class, "floor", numUnary(math.Floor))
	rt.bindPrimitive(class, "ceil", numUnary(math.Ceil))
	rt.bindPrimitive(class, "round", numUnary(math.Round))
	rt.bindPrimitive(class, "truncate", numUnary(math.Trunc))
	rt.bindPrimitive(class, "isNan", primNumIsNan)
	rt.bindPrimitive(class, "isInfinity", primNumIsInfinity)
	rt.bindPrimitive(class, "toString", primNumToString)
	rt.bindPrimitive(class, "==(_)", primNumEqual)
	rt.bindPrimitive(class, "!=(_)", primNumNotEqual)

	rt.bindPrimitive(class, "..(_)", numRange(true))
	rt.bindPrimitive(class, "...(_)", numRange(false))

	rt.bindStaticPrimitive(class, "pi", primNumPi)
	rt.bindStaticPrimitive(class, "infinity", primNumInfinity)
	rt.bindStaticPrimitive(class, "nan", primNumNan)
}

func numBinary(op func(a, b float64) float64) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		if !args[1].IsNumber() {
			return wrongArgType(rt, fiber, 1, "a number")
		}
		args[0] = value.Number(op(args[0].AsNumber(), args[1].AsNumber()))
		return object.SignalDone
	}
}

func numCompare(op func(a, b float64) bool) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		if !args[1].IsNumber() {
			return wrongArgType(rt, fiber, 1, "a number")
		}
		args[0] = value.Bool(op(args[0].AsNumber(), args[1].AsNumber()))
		return object.SignalDone
	}
}

func numBitwise(op func(a, b int64) int64) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		if !args[1].IsNumber() {
			return wrongArgType(rt, fiber, 1, "a number")
		}
		args[0] = value.Number(float64(op(int64(args[0].AsNumber()), int64(args[1].AsNumber()))))
		return object.SignalDone
	}
}

func numUnary(op func(float64) float64) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		args[0] = value.Number(op(args[0].AsNumber()))
		return object.SignalDone
	}
}

func numRange(inclusive bool) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		if !args[1].IsNumber() {
			return wrongArgType(rt, fiber, 1, "a number")
		}
		r := rt.NewRange(args[0].AsNumber(), args[1].AsNumber(), inclusive)
		args[0] = value.FromObj(r)
		return object.SignalDone
	}
}

func primNumNegate(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Number(-args[0].AsNumber())
	return object.SignalDone
}

func primNumBitwiseNot(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Number(float64(^int64(args[0].AsNumber())))
	return object.SignalDone
}

func primNumIsNan(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(math.IsNaN(args[0].AsNumber()))
	return object.SignalDone
}

func primNumIsInfinity(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(math.IsInf(args[0].AsNumber(), 0))
	return object.SignalDone
}

func primNumToString(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewString(formatNum(args[0].AsNumber())))
	return object.SignalDone
}

// formatNum renders a double the way the language's literals
// round-trip: the shortest representation that reads back to the same
// bits.
func formatNum(n float64) string {
	if math.IsNaN(n) {
		return "nan"
	}
	if math.IsInf(n, 1) {
		return "infinity"
	}
	if math.IsInf(n, -1) {
		return "-infinity"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func primNumEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(args[1].IsNumber() && args[0].AsNumber() == args[1].AsNumber())
	return object.SignalDone
}

func primNumNotEqual(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Bool(!args[1].IsNumber() || args[0].AsNumber() != args[1].AsNumber())
	return object.SignalDone
}

func primNumPi(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Number(math.Pi)
	return object.SignalDone
}

func primNumInfinity(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Number(math.Inf(1))
	return object.SignalDone
}

func primNumNan(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.Number(math.NaN())
	return object.SignalDone
}

// wrongArgType aborts fiber with a runtime error and reports the signal
// that sends the interpreter straight to unwind, the shared tail every
// type-checking primitive in this file needs.
func wrongArgType(rt object.Runtime, fiber *object.Fiber, argIndex int, want string) object.Signal {
	r := rt.(*Runtime)
	r.runtimeErrorf(fiber, "Argument %d must be %s.", argIndex, want)
	return object.SignalError
}

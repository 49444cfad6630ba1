package vm

import (
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// bindFiberPrimitives wires the cooperative-scheduling surface:
// call/transfer/yield/try all hand control to a different fiber by
// reassigning the interpreter's current-fiber pointer (SetCurrentFiber)
// and returning SignalSwitch, never by spawning a goroutine. See
// DESIGN.md for why Fiber.try marks the *calling* fiber's State, not
// the callee's.
func (rt *Runtime) bindFiberPrimitives(class *object.Class) {
	rt.bindPrimitive(class, "call()", fiberResume(false, false))
	rt.bindPrimitive(class, "call(_)", fiberResume(true, false))
	rt.bindPrimitive(class, "transfer()", fiberTransfer(false))
	rt.bindPrimitive(class, "transfer(_)", fiberTransfer(true))
	rt.bindPrimitive(class, "transferError(_)", primFiberTransferError)
	rt.bindPrimitive(class, "try()", fiberResume(false, true))
	rt.bindPrimitive(class, "try(_)", fiberResume(true, true))
	rt.bindPrimitive(class, "isDone", primFiberIsDone)
	rt.bindPrimitive(class, "error", primFiberError)

	rt.bindStaticPrimitive(class, "new(_)", primFiberNew)
	rt.bindStaticPrimitive(class, "yield()", fiberYield(false))
	rt.bindStaticPrimitive(class, "yield(_)", fiberYield(true))
	rt.bindStaticPrimitive(class, "abort(_)", primFiberAbort)
	rt.bindStaticPrimitive(class, "current", primFiberCurrent)
}

func asFiber(v value.Value) (*object.Fiber, bool) {
	f, ok := v.AsObj().(*object.Fiber)
	return f, ok
}

// trimCallStack leaves exactly one reserved slot on fiber's stack for a
// result that will be delivered later by something other than the
// normal primitive-return path (finishCall's SignalDone branch does
// this for an ordinary call; a fiber switch must do it itself since
// FinishCall's Switch branch never touches the stack).
func trimCallStack(fiber *object.Fiber, argCount int) {
	fiber.StackTop -= argCount - 1
}

// startOrResume either begins a never-run fiber at its entry closure or
// writes value into the reserved slot a prior yield/transfer/call left
// waiting, per which state target is in.
func startOrResume(rt object.Runtime, target *object.Fiber, value value.Value) {
	// A fiber can be parked in FiberTry waiting on a callee; being
	// resumed through any other path (a transfer, typically) disarms it.
	if target.State == object.FiberTry {
		target.State = object.FiberOther
	}
	if !target.HasStarted {
		target.HasStarted = true
		target.Push(value)
		if target.EntryClosure != nil {
			target.EnsureCapacity(target.EntryClosure.Function.MaxSlots)
			target.PushFrame(target.EntryClosure, 0)
		}
		return
	}
	target.Stack[target.StackTop-1] = value
}

// fiberResume implements call/try: both hand control to the receiver
// fiber and expect it to eventually hand control back (call via a
// normal Return/Fiber.yield, try additionally catching an error). Only
// the State assigned to the calling fiber differs.
func fiberResume(hasArg, isTry bool) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		target, ok := asFiber(args[0])
		if !ok {
			return wrongArgType(rt, fiber, 0, "a fiber")
		}
		r := rt.(*Runtime)
		if target.IsDone() && target.HasStarted {
			r.runtimeErrorf(fiber, "Cannot call a finished fiber.")
			return object.SignalError
		}
		if target.Caller != nil {
			r.runtimeErrorf(fiber, "Fiber has already been called.")
			return object.SignalError
		}
		val := value.Null()
		if hasArg {
			val = args[1]
		}
		target.Caller = fiber
		if isTry {
			fiber.State = object.FiberTry
		}
		startOrResume(rt, target, val)
		trimCallStack(fiber, len(args))
		r.SetCurrentFiber(target)
		return object.SignalSwitch
	}
}

// fiberTransfer hands control to the receiver fiber permanently: unlike
// call/try, the transferring fiber is never linked as target's caller,
// so a normal Return on target does not resume it.
func fiberTransfer(hasArg bool) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		target, ok := asFiber(args[0])
		if !ok {
			return wrongArgType(rt, fiber, 0, "a fiber")
		}
		r := rt.(*Runtime)
		if target.IsDone() && target.HasStarted {
			r.runtimeErrorf(fiber, "Cannot transfer to a finished fiber.")
			return object.SignalError
		}
		val := value.Null()
		if hasArg {
			val = args[1]
		}
		startOrResume(rt, target, val)
		trimCallStack(fiber, len(args))
		r.SetCurrentFiber(target)
		return object.SignalSwitch
	}
}

// fiberYield is the static Fiber.yield/yield(_): it suspends the running
// fiber and hands control back to whichever fiber called or tried it.
func fiberYield(hasArg bool) object.PrimitiveFn {
	return func(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
		r := rt.(*Runtime)
		caller := fiber.Caller
		if caller == nil {
			r.runtimeErrorf(fiber, "No fiber to yield to.")
			return object.SignalError
		}
		val := value.Null()
		if hasArg {
			val = args[1]
		}
		fiber.Caller = nil
		trimCallStack(fiber, len(args))
		// The caller suspended inside Fiber.call/try with one slot
		// reserved for exactly this value; overwrite it rather than push.
		caller.Stack[caller.StackTop-1] = val
		if caller.State == object.FiberTry {
			caller.State = object.FiberOther
		}
		r.SetCurrentFiber(caller)
		return object.SignalSwitch
	}
}

// primFiberTransferError transfers control to the receiver fiber and
// immediately raises err on it, as if the target itself had aborted at
// its suspension point. The transferring fiber is not linked as caller,
// so the error propagates from the target's own chain (or reaches the
// host if it has none).
func primFiberTransferError(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	target, ok := asFiber(args[0])
	if !ok {
		return wrongArgType(rt, fiber, 0, "a fiber")
	}
	r := rt.(*Runtime)
	if target.IsDone() && target.HasStarted {
		r.runtimeErrorf(fiber, "Cannot transfer to a finished fiber.")
		return object.SignalError
	}
	err := args[1]
	startOrResume(rt, target, value.Null())
	trimCallStack(fiber, len(args))
	target.Error = err
	r.SetCurrentFiber(target)
	return object.SignalSwitch
}

func primFiberIsDone(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	target, ok := asFiber(args[0])
	if !ok {
		return wrongArgType(rt, fiber, 0, "a fiber")
	}
	args[0] = value.Bool(target.HasStarted && target.IsDone())
	return object.SignalDone
}

func primFiberError(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	target, ok := asFiber(args[0])
	if !ok {
		return wrongArgType(rt, fiber, 0, "a fiber")
	}
	args[0] = target.Error
	return object.SignalDone
}

func primFiberNew(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	closure, ok := args[1].AsObj().(*object.Closure)
	if !ok {
		return wrongArgType(rt, fiber, 1, "a function")
	}
	r := rt.(*Runtime)
	args[0] = value.FromObj(r.NewFiberObj(closure))
	return object.SignalDone
}

// primFiberAbort implements the static Fiber.abort(_): it sets the
// *currently running* fiber's sticky error; abort always targets the
// fiber invoking it, never the receiver class.
func primFiberAbort(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	fiber.Error = args[1]
	return object.SignalError
}

func primFiberCurrent(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
	args[0] = value.FromObj(fiber)
	return object.SignalDone
}

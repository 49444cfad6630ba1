package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/kristofer/ember/pkg/bytecode"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
)

// run is ember's bytecode dispatch loop. Go has no computed-goto or
// label-as-value facility, so this is the portable switch-based form;
// the opcode handlers are written so a future build tag could swap in a
// jump-table dispatcher without touching them.
//
// entry is the fiber whose frame stack just had a new call frame pushed
// (by CallClosure) or is a freshly started root fiber. run executes
// until that call - and everything it transitively calls, including
// across Fiber.call/transfer/yield hops - unwinds back to entry at or
// below the depth it had on entry, or until the whole fiber chain runs
// out of callers. A non-nil error return means the error escaped every
// Fiber.try boundary in the chain; the caller is expected to be the
// outermost CallClosure invocation for this logical call.
func (rt *Runtime) run(entry *object.Fiber) error {
	entryDepth := len(entry.Frames) - 1

	cur := entry
	var frame *object.CallFrame
	loadFrame := func() {
		frame = cur.CurrentFrame()
	}
	loadFrame()

	for {
		rt.checkOOM(cur)

		if cur.HasError() {
			resumed, err := rt.unwind(cur)
			if err != nil {
				return err
			}
			if resumed == nil {
				return nil
			}
			cur = resumed
			loadFrame()
			if cur == entry && len(cur.Frames) <= entryDepth {
				return nil
			}
			continue
		}

		instr := frame.Closure.Function.Code[frame.IP]
		frame.IP++

		switch instr.Op {
		case bytecode.Pop:
			cur.Pop()

		case bytecode.Dup:
			cur.Push(cur.Peek(0))

		case bytecode.Constant:
			cur.Push(frame.Closure.Function.Constants[instr.Operand])

		case bytecode.PushNull:
			cur.Push(value.Null())

		case bytecode.PushTrue:
			cur.Push(value.True())

		case bytecode.PushFalse:
			cur.Push(value.False())

		case bytecode.LoadLocal:
			cur.Push(cur.Stack[frame.StackStart+instr.Operand])

		case bytecode.StoreLocal:
			cur.Stack[frame.StackStart+instr.Operand] = cur.Peek(0)

		case bytecode.LoadFieldThis:
			inst, ok := cur.Stack[frame.StackStart].AsObj().(*object.Instance)
			if !ok || instr.Operand >= len(inst.Fields) {
				rt.fieldAccessError(cur)
				continue
			}
			cur.Push(inst.Fields[instr.Operand])

		case bytecode.StoreFieldThis:
			inst, ok := cur.Stack[frame.StackStart].AsObj().(*object.Instance)
			if !ok || instr.Operand >= len(inst.Fields) {
				rt.fieldAccessError(cur)
				continue
			}
			inst.Fields[instr.Operand] = cur.Peek(0)

		case bytecode.LoadField:
			recv := cur.Pop()
			inst, ok := recv.AsObj().(*object.Instance)
			if !ok || instr.Operand >= len(inst.Fields) {
				rt.fieldAccessError(cur)
				continue
			}
			cur.Push(inst.Fields[instr.Operand])

		case bytecode.StoreField:
			recv := cur.Pop()
			inst, ok := recv.AsObj().(*object.Instance)
			if !ok || instr.Operand >= len(inst.Fields) {
				rt.fieldAccessError(cur)
				continue
			}
			inst.Fields[instr.Operand] = cur.Peek(0)

		case bytecode.LoadUpvalue:
			cur.Push(frame.Closure.Upvalues[instr.Operand].Get())

		case bytecode.StoreUpvalue:
			frame.Closure.Upvalues[instr.Operand].Set(cur.Peek(0))

		case bytecode.CloseUpvalue:
			cur.CloseUpvaluesFrom(cur.StackTop - 1)
			cur.Pop()

		case bytecode.LoadModuleVar:
			cur.Push(frame.Closure.Function.Module.Slot(instr.Operand))

		case bytecode.StoreModuleVar:
			frame.Closure.Function.Module.SetSlot(instr.Operand, cur.Peek(0))

		case bytecode.Call:
			sym, argCount := bytecode.UnpackCall(instr.Operand)
			args := cur.Stack[cur.StackTop-argCount : cur.StackTop]
			class := rt.receiverClass(args[0])
			if class == nil {
				rt.runtimeErrorf(cur, "%s has no methods.", args[0].TypeName())
				continue
			}
			method, ok := rt.lookupForReceiver(args[0], class, sym)
			if !ok {
				rt.runtimeErrorf(cur, "%s does not implement '%s'.", class.Name, rt.Symbols.Name(sym))
				continue
			}
			if !rt.dispatch(&cur, &frame, method, args, argCount) {
				loadFrame()
			}

		case bytecode.SuperCall:
			sym, argCount, superConst := bytecode.UnpackSuperCall(instr.Operand)
			args := cur.Stack[cur.StackTop-argCount : cur.StackTop]
			superVal := frame.Closure.Function.Constants[superConst]
			class, _ := superVal.AsObj().(*object.Class)
			if class == nil {
				rt.runtimeErrorf(cur, "super call with no resolvable superclass.")
				continue
			}
			method, ok := class.Lookup(sym)
			if !ok {
				rt.runtimeErrorf(cur, "%s does not implement '%s'.", class.Name, rt.Symbols.Name(sym))
				continue
			}
			if !rt.dispatch(&cur, &frame, method, args, argCount) {
				loadFrame()
			}

		case bytecode.Jump:
			frame.IP += instr.Operand

		case bytecode.Loop:
			frame.IP -= instr.Operand

		case bytecode.JumpIfFalse:
			if cur.Pop().IsFalsy() {
				frame.IP += instr.Operand
			}

		case bytecode.And:
			if cur.Peek(0).IsFalsy() {
				frame.IP += instr.Operand
			} else {
				cur.Pop()
			}

		case bytecode.Or:
			if !cur.Peek(0).IsFalsy() {
				frame.IP += instr.Operand
			} else {
				cur.Pop()
			}

		case bytecode.Return:
			result := cur.Pop()
			fr := cur.PopFrame()
			cur.CloseUpvaluesFrom(fr.StackStart)
			cur.StackTop = fr.StackStart

			if len(cur.Frames) == 0 {
				caller := cur.Caller
				cur.Caller = nil
				if caller == nil {
					cur.Push(result)
					return nil
				}
				// The caller suspended inside Fiber.call/try, which left
				// exactly one reserved slot for this result; overwrite it
				// rather than pushing, or the caller's expression would
				// leave two values where its bytecode expects one. A
				// normal return also disarms a pending try.
				caller.Stack[caller.StackTop-1] = result
				if caller.State == object.FiberTry {
					caller.State = object.FiberOther
				}
				cur = caller
				loadFrame()
				if cur == entry && len(cur.Frames) <= entryDepth {
					return nil
				}
				continue
			}

			cur.Push(result)
			if cur == entry && len(cur.Frames) <= entryDepth {
				return nil
			}
			loadFrame()

		case bytecode.Construct:
			classVal := cur.Stack[frame.StackStart]
			class, ok := classVal.AsObj().(*object.Class)
			if !ok {
				rt.runtimeErrorf(cur, "Cannot construct from a non-class value.")
				continue
			}
			cur.Stack[frame.StackStart] = value.FromObj(rt.NewInstance(class))

		case bytecode.ForeignConstruct:
			classVal := cur.Stack[frame.StackStart]
			class, ok := classVal.AsObj().(*object.Class)
			if !ok {
				rt.runtimeErrorf(cur, "Cannot construct from a non-class value.")
				continue
			}
			var data []byte
			if class.Allocate != nil {
				data = class.Allocate(rt, cur, cur.Stack[frame.StackStart:cur.StackTop])
			}
			f := object.NewForeign(class, data)
			rt.Alloc.Track(f, 24+len(data))
			cur.Stack[frame.StackStart] = value.FromObj(f)

		case bytecode.Closure:
			nestedFn, ok := frame.Closure.Function.Constants[instr.Operand].AsObj().(*object.Function)
			if !ok {
				rt.runtimeErrorf(cur, "CLOSURE constant is not a function.")
				continue
			}
			upvalues := make([]*object.Upvalue, len(nestedFn.UpvalueDescs))
			for i, d := range nestedFn.UpvalueDescs {
				if d.IsLocal {
					upvalues[i] = cur.CaptureUpvalue(frame.StackStart + d.Index)
				} else {
					upvalues[i] = frame.Closure.Upvalues[d.Index]
				}
			}
			closure := object.NewClosure(nestedFn, upvalues)
			closure.Class = rt.builtins["Fn"]
			rt.Alloc.Track(closure, 24+len(upvalues)*8)
			cur.Push(value.FromObj(closure))

		case bytecode.Class:
			superVal := cur.Pop()
			nameVal := cur.Pop()
			class, ok := rt.buildClass(cur, nameVal, superVal, instr.Operand, false)
			if !ok {
				continue
			}
			cur.Push(value.FromObj(class))

		case bytecode.ForeignClass:
			superVal := cur.Pop()
			nameVal := cur.Pop()
			class, ok := rt.buildClass(cur, nameVal, superVal, 0, true)
			if !ok {
				continue
			}
			if rt.cfg.BindForeignClass != nil {
				alloc, fin := rt.cfg.BindForeignClass(frame.Closure.Function.Module.Name, class.Name.String())
				class.Allocate = alloc
				class.Finalize = fin
			}
			cur.Push(value.FromObj(class))

		case bytecode.MethodInstance, bytecode.MethodStatic:
			bodyVal := cur.Pop()
			classVal := cur.Pop()
			class, ok := classVal.AsObj().(*object.Class)
			if !ok {
				rt.runtimeErrorf(cur, "METHOD opcode with no class on the stack.")
				continue
			}
			method, ok := rt.resolveMethodBody(cur, frame, class, bodyVal, instr.Op == bytecode.MethodStatic)
			if !ok {
				continue
			}
			if instr.Op == bytecode.MethodStatic {
				class.BindStaticMethod(instr.Operand, method)
			} else {
				class.BindMethod(instr.Operand, method)
			}
			cur.Push(classVal)

		case bytecode.EndModule:
			rt.lastImportedModule = frame.Closure.Function.Module

		case bytecode.ImportModule:
			rt.importModule(cur, frame, instr.Operand)

		case bytecode.ImportVariable:
			rt.importVariable(cur, frame, instr.Operand)

		case bytecode.End:
			panic("vm: reached unreachable END opcode; function built without a terminating RETURN")

		default:
			panic(fmt.Sprintf("vm: unhandled opcode %s", instr.Op))
		}
	}
}

// receiverClass returns the class a Call opcode should dispatch
// against: a value's ordinary class, except when the receiver is itself
// a class object, in which case message sends resolve against its
// Statics table (see object.Class.Statics) rather than Methods.
func (rt *Runtime) receiverClass(recv value.Value) *object.Class {
	return rt.ClassOf(recv)
}

// lookupForReceiver resolves sym against class's instance methods,
// unless recv is itself a class value, in which case sym is resolved
// against its static method table first. A miss there falls through to
// the ordinary lookup: class here is the Class builtin, whose instance
// table (name, supertype, toString, and Object's methods above it)
// plays the role a full metaclass chain would - see DESIGN.md.
func (rt *Runtime) lookupForReceiver(recv value.Value, class *object.Class, sym int) (object.Method, bool) {
	if asClass, ok := recv.AsObj().(*object.Class); ok {
		if m, ok := asClass.LookupStatic(sym); ok {
			return m, true
		}
	}
	return class.Lookup(sym)
}

// dispatch executes method against args (args[0] is the receiver,
// args[1:] the declared parameters; len(args) == argCount). It reports
// whether the caller's cached frame pointer is still valid: false means
// the caller must reload it (a new bytecode frame was pushed, or the
// running fiber changed).
func (rt *Runtime) dispatch(curp **object.Fiber, framep **object.CallFrame, method object.Method, args []value.Value, argCount int) bool {
	cur := *curp
	switch method.Kind {
	case object.MethodPrimitive:
		signal := method.Primitive(rt, cur, args)
		return rt.finishCall(curp, signal, argCount)

	case object.MethodForeign:
		savedBase := cur.StackTop - argCount
		signal := method.Foreign(rt, cur, args)
		// Read the result by index into the *current* cur.Stack, not
		// through args: a foreign method that grows the fiber's stack
		// (api.Slots.SetCount -> EnsureCapacity -> growStack) reallocates
		// the backing array, leaving the args slice captured before the
		// call pointing at the old, detached array. savedBase is an index,
		// not a pointer, so it stays valid across that reallocation.
		result := cur.Stack[savedBase]
		cur.StackTop = savedBase
		cur.Push(result)
		return rt.finishCall(curp, signal, 0)

	case object.MethodBlock:
		cur.EnsureCapacity(method.Closure.Function.MaxSlots)
		cur.PushFrame(method.Closure, cur.StackTop-argCount)
		return false

	default:
		rt.runtimeErrorf(cur, "method table hole reached at dispatch time.")
		return true
	}
}

// finishCall applies a primitive/foreign call's Signal to the stack and
// reports whether the frame cache is still valid (true) or must be
// reloaded (false, meaning a fiber switch, error, or frame change
// occurred).
func (rt *Runtime) finishCall(curp **object.Fiber, signal object.Signal, argCount int) bool {
	cur := *curp
	switch signal {
	case object.SignalDone:
		if argCount > 0 {
			cur.StackTop -= argCount - 1
		}
		return true
	case object.SignalSwitch:
		next := rt.current
		*curp = next
		return false
	case object.SignalError:
		return false
	default:
		return true
	}
}

// fieldAccessError aborts cur because a field opcode's receiver was not
// an Instance, or its field index fell outside the receiver's declared
// fields. The bounds check runs in every build rather than risk an
// out-of-range Go slice panic.
func (rt *Runtime) fieldAccessError(cur *object.Fiber) {
	rt.runtimeErrorf(cur, "receiver does not have the requested field.")
}

// buildClass implements the shared part of CLASS/FOREIGN_CLASS: name
// and superclass validation, the sealed-builtin restriction, and the
// field-count ceiling, all checked before the class object exists.
func (rt *Runtime) buildClass(cur *object.Fiber, nameVal, superVal value.Value, numFields int, foreign bool) (*object.Class, bool) {
	name, ok := nameVal.AsObj().(*object.String)
	if !ok {
		rt.runtimeErrorf(cur, "Class name must be a string.")
		return nil, false
	}
	super, ok := superVal.AsObj().(*object.Class)
	if !ok {
		rt.runtimeErrorf(cur, "Class '%s' cannot inherit from a non-class.", name)
		return nil, false
	}
	if super.IsForeign {
		rt.runtimeErrorf(cur, "Class '%s' cannot inherit from foreign class '%s'.", name, super.Name)
		return nil, false
	}
	if rt.isSealedBuiltin(super) {
		rt.runtimeErrorf(cur, "Class '%s' cannot inherit from built-in class '%s'.", name, super.Name)
		return nil, false
	}
	if !foreign && super.TotalFields()+numFields > object.MaxFields {
		rt.runtimeErrorf(cur, "Class '%s' may not have more than %d fields, including inherited ones.", name, object.MaxFields)
		return nil, false
	}
	class := object.NewClass(rt, name, super, numFields)
	class.IsForeign = foreign
	class.Class = rt.builtins["Class"]
	rt.Alloc.Track(class, 48+rt.Symbols.SymbolCount()*64)
	return class, true
}

// isSealedBuiltin reports whether class is one of the built-in classes
// user code may not subclass. Object is the one deliberate exception:
// it is every user class's default ancestor.
func (rt *Runtime) isSealedBuiltin(class *object.Class) bool {
	if class == rt.builtins["Object"] {
		return false
	}
	for _, c := range rt.builtins {
		if c == class {
			return true
		}
	}
	return false
}

// resolveMethodBody turns the value popped by METHOD_INSTANCE/
// METHOD_STATIC into a bound Method: a bytecode closure directly, or a
// foreign-signature string resolved through the host's
// bind_foreign_method_fn.
func (rt *Runtime) resolveMethodBody(cur *object.Fiber, frame *object.CallFrame, class *object.Class, body value.Value, isStatic bool) (object.Method, bool) {
	if closure, ok := body.AsObj().(*object.Closure); ok {
		return object.Method{Kind: object.MethodBlock, Closure: closure}, true
	}
	sig, ok := body.AsObj().(*object.String)
	if !ok {
		rt.runtimeErrorf(cur, "method body must be a closure or a foreign signature string.")
		return object.Method{}, false
	}
	if rt.cfg.BindForeignMethod == nil {
		rt.runtimeErrorf(cur, "no foreign method binder configured for '%s'.", sig)
		return object.Method{}, false
	}
	fn := rt.cfg.BindForeignMethod(frame.Closure.Function.Module.Name, class.Name.String(), sig.String(), isStatic)
	if fn == nil {
		rt.runtimeErrorf(cur, "could not bind foreign method '%s.%s'.", class.Name, sig)
		return object.Method{}, false
	}
	return object.Method{Kind: object.MethodForeign, Foreign: fn}, true
}

// importModule implements IMPORT_MODULE: the name is first offered to
// the host's resolver (which may rewrite it relative to the importing
// module), then already-loaded modules are returned from cache without
// re-invoking the loader.
func (rt *Runtime) importModule(cur *object.Fiber, frame *object.CallFrame, constIdx int) {
	nameVal := frame.Closure.Function.Constants[constIdx]
	nameStr, ok := nameVal.AsObj().(*object.String)
	if !ok {
		rt.runtimeErrorf(cur, "module name constant must be a string.")
		return
	}
	name := nameStr.String()
	if rt.cfg.ResolveModule != nil {
		importer := ""
		if frame.Closure.Function.Module != nil {
			importer = frame.Closure.Function.Module.Name
		}
		name = rt.cfg.ResolveModule(importer, name)
		if name == "" {
			rt.runtimeErrorf(cur, "Could not resolve module '%s'.", nameStr)
			return
		}
	}
	if existing := rt.Module(name); existing != nil {
		rt.lastImportedModule = existing
		cur.Push(value.Null())
		return
	}
	entry, ok := rt.pendingModules[name]
	if !ok && rt.cfg.LoadModule != nil {
		entry = rt.cfg.LoadModule(name)
		ok = entry != nil
	}
	if !ok {
		rt.runtimeErrorf(cur, "Could not load module '%s'.", name)
		return
	}

	// The entry closure's own module object is the one its
	// LOAD/STORE_MODULE_VAR slots index, so that is what the modules map
	// must cache; a bare entry with no module gets an empty one so the
	// import is still observable by name.
	module := entry.Function.Module
	if module == nil {
		module = object.NewModule(name)
		rt.Alloc.Track(module, 32)
	}
	rt.RegisterModule(name, module)
	rt.lastImportedModule = module
	delete(rt.pendingModules, name)

	if entry.Class == nil {
		entry.Class = rt.builtins["Fn"]
	}
	cur.Push(value.FromObj(entry))
}

// importVariable implements IMPORT_VARIABLE.
func (rt *Runtime) importVariable(cur *object.Fiber, frame *object.CallFrame, constIdx int) {
	nameVal := frame.Closure.Function.Constants[constIdx]
	nameStr, ok := nameVal.AsObj().(*object.String)
	if !ok {
		rt.runtimeErrorf(cur, "variable name constant must be a string.")
		return
	}
	if rt.lastImportedModule == nil {
		rt.runtimeErrorf(cur, "no module has been imported yet.")
		return
	}
	v, ok := rt.lastImportedModule.Lookup(nameStr.String())
	if !ok {
		rt.runtimeErrorf(cur, "Could not find a variable named '%s' in module '%s'.", nameStr, rt.lastImportedModule.Name)
		return
	}
	cur.Push(v)
}

// unwind walks the caller chain starting at start (whose Error is
// already set), re-stamping the sticky error on each ancestor until it
// finds one in FiberTry state - the nearest pending try catches - or
// runs out of callers entirely.
//
// Fiber.try marks the *calling* fiber, not the callee, as FiberTry for
// the duration of the call (see primitives_fiber.go): the fiber that
// wrote `try` observes the error as try's result and resumes running,
// not the aborted fiber. See DESIGN.md.
func (rt *Runtime) unwind(start *object.Fiber) (*object.Fiber, error) {
	cur := start
	for {
		parent := cur.Caller
		cur.Caller = nil
		if parent == nil {
			msg := valueToErrorString(rt, cur.Error)
			rt.reportUncaught(cur, msg)
			if msg == "" {
				// A fiber aborted (object.Runtime.Abort, reachable from the
				// foreign slot API's set_error) without ever producing a
				// readable error value; there is no in-language message to
				// carry, so the Go-level cause is errAborted itself rather
				// than a formatted RuntimeError.
				return nil, errors.Wrap(errAborted, "fiber aborted with no error value")
			}
			rerr := &RuntimeError{Message: msg, StackTrace: captureStackTrace(cur)}
			return nil, errors.Wrap(rerr, "ember: uncaught runtime error")
		}
		if parent.State == object.FiberTry {
			parent.State = object.FiberOther
			// The slot Fiber.try reserved for its own result receives the
			// error value; see the Return opcode for the same convention.
			parent.Stack[parent.StackTop-1] = cur.Error
			return parent, nil
		}
		parent.Error = cur.Error
		cur = parent
	}
}

// runtimeErrorf sets fiber's sticky error to a freshly allocated String,
// the shape every primitive/opcode-level failure in this file uses.
func (rt *Runtime) runtimeErrorf(fiber *object.Fiber, format string, a ...interface{}) {
	fiber.Error = value.FromObj(rt.NewString(fmt.Sprintf(format, a...)))
}

// checkOOM notices a Reallocate refusal recorded by gc.Allocator.Track or
// Fiber.growStack since the last check and turns it into an ordinary
// sticky fiber error, the same mechanism runtimeErrorf uses - so an
// out-of-memory condition unwinds exactly like any other uncaught
// error, reaching a Fiber.try boundary if one is running, or becoming
// unwind's terminal error otherwise.
//
// It builds the error String directly through object.NewString rather
// than rt.NewString: going through Track here would immediately retry the
// same Reallocate call that just failed.
func (rt *Runtime) checkOOM(fiber *object.Fiber) {
	if !rt.Alloc.OOM() {
		return
	}
	rt.Alloc.ClearOOM()
	msg := errors.Wrap(gc.ErrOutOfMemory, "allocation refused by host Reallocate").Error()
	errStr := object.NewString(msg)
	errStr.Class = rt.BuiltinClass("String")
	fiber.Error = value.FromObj(errStr)
}

// valueToErrorString renders a fiber's error value for the stack trace
// sink: the raw text for a String (errors are strings by convention),
// or its default toString for anything else a host aborted a fiber with
// directly through the foreign API.
func valueToErrorString(rt *Runtime, v value.Value) string {
	if s, ok := v.AsObj().(*object.String); ok {
		return s.String()
	}
	return toStringValue(rt, v)
}

package vm

import (
	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/kristofer/ember/pkg/config"
	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/handle"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/symbol"
	"github.com/kristofer/ember/pkg/value"
)

// ErrorKind classifies an error reported to Config.ReportError, mirroring
// the three cases a host callback needs to tell apart (compile errors
// never occur here since compilation is out of scope, but the shape is
// kept for symmetry with the runtime this was distilled from).
type ErrorKind uint8

const (
	ErrorRuntime ErrorKind = iota
	ErrorStackTrace
)

// Config bundles every host-supplied hook a Runtime needs: allocation
// strategy, foreign binding, and output/error sinks. The zero value is
// usable - every field has a working default applied by New.
type Config struct {
	Reallocate        gc.Reallocate
	BindForeignMethod func(module, class, signature string, isStatic bool) object.ForeignFn
	BindForeignClass  func(module, class string) (object.ForeignAllocateFn, object.ForeignFinalizeFn)

	// ResolveModule rewrites an import name relative to the importing
	// module before the modules map is consulted. Nil means identity.
	ResolveModule func(importer, name string) string

	// LoadModule produces the compiled top-level closure for a module
	// the first time it is imported. The compiler is a host collaborator,
	// so "load" here means the host's loader fetched source and its
	// compiler produced a function; nil restricts imports to modules
	// registered up front via PreloadModule.
	LoadModule func(name string) *object.Closure

	Write       func(text string)
	ReportError func(kind ErrorKind, module string, line int, message string)
	DebugLog    func(text string)

	// UserData is an opaque host value echoed back through
	// Runtime.UserData, for embeddings whose callbacks are free
	// functions rather than closures over their own state.
	UserData any

	Runtime config.RuntimeConfig
}

// Runtime is ember's host-facing interpreter instance: one allocator,
// one collector, one symbol table, one module table, and the fiber
// currently executing (if any). It implements object.Runtime so that
// primitive and foreign method bodies can allocate and dispatch through
// it without package object importing this package.
type Runtime struct {
	cfg Config

	Alloc   *gc.Allocator
	Coll    *gc.Collector
	Symbols *symbol.Table
	Handles handle.Registry

	modules  *swiss.Map[string, *object.Module]
	builtins map[string]*object.Class

	current *object.Fiber

	tempRoots []value.Obj

	// pendingModules holds entry closures registered by the host (via
	// PreloadModule) for modules not yet imported. Since the
	// source-to-bytecode compiler is a host collaborator, this stands in
	// for "the module loader returned source text, and the compiler
	// compiled it" - hosts without a Config.LoadModule hook preload the
	// module's compiled entry point themselves.
	pendingModules map[string]*object.Closure

	// lastImportedModule backs IMPORT_VARIABLE's most-recently-imported
	// module rule.
	lastImportedModule *object.Module

	// lastErr holds the wrapped *RuntimeError (or an errAborted/
	// gc.ErrOutOfMemory cause) from the most recent Interpret/CallClosure
	// that returned a non-success result, for a host that wants more than
	// the three-way Result/Signal classification Interpret/CallClosure
	// themselves return.
	lastErr error
}

var _ object.Runtime = (*Runtime)(nil)

// New constructs a Runtime, wires its allocator to its collector, and
// registers the built-in class hierarchy (Object, Class, Num, String,
// Bool, Fn, Fiber, List, Map, Range, Null).
func New(cfg Config) *Runtime {
	if cfg.Runtime.InitialHeapBytes == 0 {
		cfg.Runtime = config.Defaults()
	}
	alloc := gc.NewAllocator(cfg.Reallocate)
	alloc.NextGC = cfg.Runtime.InitialHeapBytes
	alloc.MinHeap = cfg.Runtime.MinHeapBytes
	alloc.GrowthFactor = cfg.Runtime.HeapGrowthPercent
	alloc.StressMode = cfg.Runtime.GCStress
	if cfg.Runtime.GCLog {
		alloc.DebugLog = cfg.DebugLog
	}

	rt := &Runtime{
		cfg:            cfg,
		Alloc:          alloc,
		Coll:           &gc.Collector{},
		Symbols:        symbol.NewTable(),
		modules:        swiss.NewMap[string, *object.Module](8),
		builtins:       make(map[string]*object.Class),
		pendingModules: make(map[string]*object.Closure),
	}

	rt.Coll.AddRoot(func() []value.Obj { return rt.Handles.Roots() })
	rt.Coll.AddRoot(func() []value.Obj { return rt.tempRoots })
	rt.Coll.AddRoot(rt.moduleRoots)
	rt.Coll.AddRoot(rt.fiberChainRoot)
	rt.Coll.AddRoot(rt.builtinRoots)
	alloc.SetCollector(func() { rt.Coll.Collect(rt.Alloc) })

	rt.registerBuiltins()
	return rt
}

func (rt *Runtime) moduleRoots() []value.Obj {
	var roots []value.Obj
	rt.modules.Iter(func(_ string, m *object.Module) bool {
		roots = append(roots, m)
		return false
	})
	return roots
}

// builtinRoots keeps the built-in class hierarchy's method tables
// traced. The classes themselves are permanent (never tracked, never
// swept), but bytecode can bind new closure-bodied methods onto them at
// runtime, and those closures are ordinary collectable objects that
// nothing else may reference.
func (rt *Runtime) builtinRoots() []value.Obj {
	roots := make([]value.Obj, 0, len(rt.builtins))
	for _, c := range rt.builtins {
		roots = append(roots, c)
	}
	return roots
}

func (rt *Runtime) fiberChainRoot() []value.Obj {
	var roots []value.Obj
	for f := rt.current; f != nil; f = f.Caller {
		roots = append(roots, f)
	}
	return roots
}

// PushRoot temporarily roots obj (e.g. a freshly allocated object not
// yet reachable from any stack slot) until the matching PopRoot.
func (rt *Runtime) PushRoot(obj value.Obj) {
	if obj != nil {
		rt.tempRoots = append(rt.tempRoots, obj)
	}
}

// PopRoot undoes the most recent PushRoot.
func (rt *Runtime) PopRoot() {
	rt.tempRoots = rt.tempRoots[:len(rt.tempRoots)-1]
}

// SymbolCount satisfies the tiny interface package object's NewClass
// needs, so Runtime can be passed directly wherever a symbol count is
// required.
func (rt *Runtime) SymbolCount() int { return rt.Symbols.SymbolCount() }

// UserData returns the opaque value the host stored in Config.UserData.
func (rt *Runtime) UserData() any { return rt.cfg.UserData }

// Module returns a previously registered module, or nil.
func (rt *Runtime) Module(name string) *object.Module {
	m, _ := rt.modules.Get(name)
	return m
}

// RegisterModule installs module under name, replacing any existing
// module of that name. Since compilation is out of scope, hosts build
// modules directly (e.g. with pkg/asm) rather than loading source text.
func (rt *Runtime) RegisterModule(name string, module *object.Module) {
	rt.modules.Put(name, module)
}

// BuiltinClass returns one of the language's built-in classes by name
// ("Object", "Class", "Num", "String", "Bool", "Null", "Fn", "Fiber",
// "List", "Map", "Range"), or nil if name does not name one.
func (rt *Runtime) BuiltinClass(name string) *object.Class { return rt.builtins[name] }

// BuiltinClassNames lists every registered built-in class name, sorted
// for stable output - a host's "what's available" diagnostic (cmd/ember
// prints it to stderr before its demo run) has no other order to fall back on, since
// rt.builtins is a plain Go map.
func (rt *Runtime) BuiltinClassNames() []string {
	names := maps.Keys(rt.builtins)
	slices.Sort(names)
	return names
}

// ClassOf returns the class that would receive a message sent to v:
// v.AsObj()'s own Class field for heap objects, or the matching built-in
// class for numbers, booleans, and null. A string, list, map, or range
// whose Class field was never set (one built straight through package
// object, as asm.ConstString does) gets its kind's built-in class.
func (rt *Runtime) ClassOf(v value.Value) *object.Class {
	switch v.Kind() {
	case value.KindNumber:
		return rt.builtins["Num"]
	case value.KindTrue, value.KindFalse:
		return rt.builtins["Bool"]
	case value.KindNull:
		return rt.builtins["Null"]
	case value.KindObject:
		obj := v.AsObj()
		if obj == nil {
			return rt.builtins["Null"]
		}
		if c, ok := obj.Header().Class.(*object.Class); ok {
			return c
		}
		switch obj.Header().Kind {
		case value.ObjString:
			return rt.builtins["String"]
		case value.ObjList:
			return rt.builtins["List"]
		case value.ObjMap:
			return rt.builtins["Map"]
		case value.ObjRange:
			return rt.builtins["Range"]
		}
		return nil
	default:
		return nil
	}
}

// --- object.Runtime implementation -----------------------------------

func (rt *Runtime) NewInstance(class *object.Class) *object.Instance {
	inst := object.NewInstance(class)
	rt.Alloc.Track(inst, 16+len(inst.Fields)*16)
	return inst
}

func (rt *Runtime) NewString(s string) *object.String {
	str := object.NewString(s)
	str.Class = rt.builtins["String"]
	rt.Alloc.Track(str, 24+len(s))
	return str
}

func (rt *Runtime) NewList(elems []value.Value) *object.List {
	l := object.NewList(elems)
	l.Class = rt.builtins["List"]
	rt.Alloc.Track(l, 24+len(elems)*16)
	return l
}

func (rt *Runtime) NewMap() *object.Map {
	m := object.NewMap()
	m.Class = rt.builtins["Map"]
	rt.Alloc.Track(m, 24+8*32)
	return m
}

func (rt *Runtime) NewRange(from, to float64, inclusive bool) *object.Range {
	r := object.NewRange(from, to, inclusive)
	r.Class = rt.builtins["Range"]
	rt.Alloc.Track(r, 40)
	return r
}

// NewForeign allocates a zeroed size-byte buffer as a foreign instance of
// class, the same shape FOREIGN_CONSTRUCT builds, for the slot API's
// new-foreign primitive to hand a host callback a buffer to fill in
// directly rather than through an allocate callback.
func (rt *Runtime) NewForeign(class *object.Class, size int) *object.Foreign {
	data := make([]byte, size)
	f := object.NewForeign(class, data)
	rt.Alloc.Track(f, 24+size)
	return f
}

// NewFiberObj allocates a suspended (not-yet-started) fiber over entry,
// the primitive behind Fiber.new(_). entry may be nil for fibers the
// interpreter itself manages (none currently do, but object.Runtime's
// NewFiberObj contract allows it for callers that push a frame manually
// right afterward).
func (rt *Runtime) NewFiberObj(entry *object.Closure) *object.Fiber {
	hint := 8
	if entry != nil {
		hint = entry.Function.MaxSlots
	}
	f := object.NewFiber(hint)
	f.Alloc = rt.Alloc
	f.Class = rt.builtins["Fiber"]
	f.EntryClosure = entry
	f.State = object.FiberOther
	rt.Alloc.Track(f, 64+hint*16)
	return f
}

// SetCurrentFiber installs f as the fiber the interpreter loop dispatches
// next, the primitive of Fiber.call/transfer/yield/try: each sets this
// and returns object.SignalSwitch so the loop reloads its frame cache
// from whatever is now current.
func (rt *Runtime) SetCurrentFiber(f *object.Fiber) { rt.current = f }

// CurrentFiber returns the fiber the interpreter is presently running,
// or nil between calls.
func (rt *Runtime) CurrentFiber() *object.Fiber { return rt.current }

// PreloadModule registers entry as the not-yet-run top-level closure for
// a module named name, standing in for "the host's module loader
// returned source text and the compiler collaborator compiled it" (both
// both host collaborators, not part of this module). IMPORT_MODULE consults these
// preloaded entries before falling back to Config.LoadModule.
func (rt *Runtime) PreloadModule(name string, entry *object.Closure) {
	rt.pendingModules[name] = entry
}

// MakeCallHandle synthesizes the closure for "call the method with this
// signature on whatever sits in slot 0" and wraps it in a handle so it
// survives collection for as long as the host keeps it. Invoke it with
// CallClosure, passing the receiver and arguments; release it through
// rt.Handles when done.
func (rt *Runtime) MakeCallHandle(signature string) *handle.Handle {
	closure := handle.NewCallHandle(rt.Symbols, signature)
	closure.Class = rt.builtins["Fn"]
	return rt.Handles.Make(value.FromObj(closure))
}

// Result is the three-way outcome a host sees back from a top-level
// Interpret call.
type Result uint8

const (
	ResultSuccess Result = iota
	ResultCompileError
	ResultRuntimeError
)

// Interpret runs closure - a module's compiled top-level body, handed
// to the runtime by whatever compiled it - on a freshly allocated root
// fiber. This is the host's main entry point, distinct from CallClosure
// (used by call handles and by primitives that invoke a block
// argument): it marks the fiber FiberRoot, so an uncaught error has
// nowhere left to propagate but Config.ReportError, and it reports a
// coarse success/runtime_error Result rather than a Go error.
//
// compile_error never originates here; a host whose compiler
// collaborator failed should not call Interpret at all. The case is
// kept in Result for symmetry with the three-way result the runtime
// this was distilled from reports.
func (rt *Runtime) Interpret(closure *object.Closure) Result {
	fiber := rt.NewFiberObj(closure)
	fiber.State = object.FiberRoot
	fiber.EnsureCapacity(closure.Function.MaxSlots)
	fiber.PushFrame(closure, 0)

	prev := rt.current
	rt.current = fiber
	defer func() { rt.current = prev }()

	if err := rt.run(fiber); err != nil {
		rt.lastErr = err
		return ResultRuntimeError
	}
	return ResultSuccess
}

// LastError returns the error behind the most recent ResultRuntimeError or
// SignalError, wrapped (via github.com/pkg/errors) with enough context
// that errors.Cause can recover the terminal *RuntimeError, errAborted, or
// gc.ErrOutOfMemory underneath. Returns nil if nothing has failed yet.
func (rt *Runtime) LastError() error { return rt.lastErr }

// CallClosure runs closure to completion on fiber with the given
// arguments (args[0] is the receiver), used by call handles and by
// primitives that invoke a block argument (List.each, and similar).
func (rt *Runtime) CallClosure(fiber *object.Fiber, closure *object.Closure, args []value.Value) object.Signal {
	// A fiber left with a sticky, uncaught error from a prior top-level
	// call is not reused mid-execution (a nested CallClosure, e.g. from
	// List.each's block argument, only ever runs on a fiber with no
	// pending error) - so seeing one here means the host is starting a
	// fresh call on an old fiber after an earlier one aborted. Reset it
	// to a clean stack rather than stacking the new call on wreckage.
	if fiber.HasError() {
		fiber.Error = value.Null()
		fiber.Frames = nil
		fiber.StackTop = 0
		fiber.OpenUpvalues = nil
	}

	base := fiber.StackTop
	fiber.EnsureCapacity(closure.Function.MaxSlots)
	for _, a := range args {
		fiber.Push(a)
	}
	fiber.PushFrame(closure, base)

	prev := rt.current
	rt.current = fiber
	defer func() { rt.current = prev }()

	if err := rt.run(fiber); err != nil {
		rt.lastErr = err
		return object.SignalError
	}
	return object.SignalDone
}

// Abort sets fiber's sticky error value. The interpreter loop notices
// HasError() after every dispatch and unwinds to the nearest try
// boundary (or reports it to Config.ReportError if none exists).
func (rt *Runtime) Abort(fiber *object.Fiber, err value.Value) {
	fiber.Error = err
}

func (rt *Runtime) reportUncaught(fiber *object.Fiber, message string) {
	if rt.cfg.ReportError == nil {
		return
	}
	trace := captureStackTrace(fiber)
	module := ""
	if len(trace) > 0 {
		module = trace[0].ModuleName
	}
	line := 0
	if len(trace) > 0 {
		line = trace[0].Line
	}
	rt.cfg.ReportError(ErrorRuntime, module, line, message)
}

// Write delivers text to Config.Write, the host sink a foreign-bound
// print-style method (e.g. a host-provided System class's print(_))
// calls. The core itself never calls this on its own initiative - I/O
// belongs to optional host-provided classes, so nothing here assumes a
// System class exists.
func (rt *Runtime) Write(text string) {
	if rt.cfg.Write != nil {
		rt.cfg.Write(text)
	}
}

var errAborted = errors.New("fiber aborted")

package vm

import "github.com/kristofer/ember/pkg/object"

// registerBuiltins builds the core class hierarchy every fiber's
// receivers resolve against: Object at the root, then Num/Bool/Null/
// String/List/Map/Range/Fn/Fiber hanging directly off it. None of these
// declare bytecode fields; their state (if any) lives in the Go struct
// fields of the object kind they're paired with.
func (rt *Runtime) registerBuiltins() {
	object_ := object.NewClass(rt, rt.internedName("Object"), nil, 0)
	rt.builtins["Object"] = object_

	class := func(name string) *object.Class {
		c := object.NewClass(rt, rt.internedName(name), object_, 0)
		rt.builtins[name] = c
		return c
	}

	classClass := class("Class")
	num := class("Num")
	boolClass := class("Bool")
	null := class("Null")
	str := class("String")
	list := class("List")
	m := class("Map")
	rng := class("Range")
	fn := class("Fn")
	fiber := class("Fiber")

	// Every builtin class (Class included) is itself an instance of
	// Class; wiring that up here avoids Class needing to exist before
	// NewClass can run.
	for _, c := range rt.builtins {
		c.Class = classClass
	}

	rt.bindObjectPrimitives(object_)
	rt.bindClassPrimitives(classClass)
	rt.bindNumPrimitives(num)
	rt.bindBoolPrimitives(boolClass)
	rt.bindNullPrimitives(null)
	rt.bindStringPrimitives(str)
	rt.bindListPrimitives(list)
	rt.bindMapPrimitives(m)
	rt.bindRangePrimitives(rng)
	rt.bindFnPrimitives(fn)
	rt.bindFiberPrimitives(fiber)
}

// internedName builds a String for a built-in class's own name. These
// never go through Runtime.NewString (which tracks them in the
// allocator) since built-in classes and their names are permanent
// program-lifetime objects, not subject to collection.
func (rt *Runtime) internedName(name string) *object.String {
	return object.NewString(name)
}

func (rt *Runtime) bindPrimitive(class *object.Class, signature string, fn object.PrimitiveFn) {
	sym := rt.Symbols.Intern(signature)
	class.BindMethod(sym, object.Method{Kind: object.MethodPrimitive, Primitive: fn})
}

// bindStaticPrimitive is bindPrimitive's counterpart for methods sent to
// the class object itself (Num.pi, Fiber.new, List.filled and similar),
// landing in Class.Statics instead of Class.Methods.
func (rt *Runtime) bindStaticPrimitive(class *object.Class, signature string, fn object.PrimitiveFn) {
	sym := rt.Symbols.Intern(signature)
	class.BindStaticMethod(sym, object.Method{Kind: object.MethodPrimitive, Primitive: fn})
}

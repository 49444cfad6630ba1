package object

import "github.com/kristofer/ember/pkg/value"

// MaxFields bounds the number of fields an instance may carry,
// inherited ones included; the CLASS instruction rejects a class that
// would exceed it.
const MaxFields = 255

// ForeignAllocateFn allocates the byte buffer backing a new instance of a
// foreign class. Called by the FOREIGN_CONSTRUCT opcode.
type ForeignAllocateFn func(rt Runtime, fiber *Fiber, args []value.Value) []byte

// ForeignFinalizeFn runs once, right before a Foreign instance is swept,
// to release any non-Go resources (file handles, native buffers) it
// owns. Bound at the same time as ForeignAllocateFn.
type ForeignFinalizeFn func(data []byte)

// Class is a heap object describing a set of instances: their field
// layout and their method table. Method lookup walks Super chains at
// miss time rather than flattening tables on class creation, so a
// method bound on an ancestor after a subclass exists is still found.
type Class struct {
	value.ObjHeader

	Name      *String
	Super     *Class // nil only for Object's bootstrap superclass slot
	NumFields int    // -1 for foreign classes, which have no bytecode-visible fields

	// Methods is indexed by global method symbol. A hole (MethodNone) means
	// "not implemented here"; lookup falls through to Super.
	Methods []Method

	// Statics holds methods sent to the class object itself (Fiber.new,
	// Num.pi and the like). Conceptually these live on a class's
	// metaclass; this runtime flattens that into a parallel table on the
	// class rather than building out a full Object/Class metaclass
	// bootstrap graph, since nothing here needs a class's class to be a
	// first-class value in its own right - see DESIGN.md.
	Statics []Method

	IsForeign bool
	Allocate  ForeignAllocateFn
	Finalize  ForeignFinalizeFn
}

// NewClass constructs a class with room for numSymbols methods, all
// initially unbound.
func NewClass(rt runtimeSymbols, name *String, super *Class, numFields int) *Class {
	c := &Class{Name: name, Super: super, NumFields: numFields}
	c.Kind = value.ObjClass
	c.Methods = make([]Method, rt.SymbolCount())
	c.Statics = make([]Method, rt.SymbolCount())
	return c
}

// runtimeSymbols is the tiny slice of Runtime that class construction
// needs; kept separate from the full Runtime interface so tests can pass
// a bare symbol-count function without building one.
type runtimeSymbols interface {
	SymbolCount() int
}

// BindMethod installs method m at symbol, growing the table if the
// symbol table has grown since this class was created (new methods can
// be declared by later-loaded modules after this class already exists).
func (c *Class) BindMethod(symbol int, m Method) {
	if symbol >= len(c.Methods) {
		grown := make([]Method, symbol+1)
		copy(grown, c.Methods)
		c.Methods = grown
	}
	c.Methods[symbol] = m
}

// Lookup walks from c up the Super chain and returns the first bound
// method at symbol, or ok=false if no ancestor implements it.
func (c *Class) Lookup(symbol int) (Method, bool) {
	for k := c; k != nil; k = k.Super {
		if symbol < len(k.Methods) && k.Methods[symbol].Kind != MethodNone {
			return k.Methods[symbol], true
		}
	}
	return Method{}, false
}

// BindStaticMethod installs a static method at symbol, analogous to
// BindMethod but addressed by Call sites whose receiver is the class
// object itself rather than one of its instances.
func (c *Class) BindStaticMethod(symbol int, m Method) {
	if symbol >= len(c.Statics) {
		grown := make([]Method, symbol+1)
		copy(grown, c.Statics)
		c.Statics = grown
	}
	c.Statics[symbol] = m
}

// LookupStatic walks from c up the Super chain looking in each
// ancestor's Statics table, the way Num.pi or Fiber.new resolve: static
// methods inherit down a class hierarchy exactly like instance methods.
func (c *Class) LookupStatic(symbol int) (Method, bool) {
	for k := c; k != nil; k = k.Super {
		if symbol < len(k.Statics) && k.Statics[symbol].Kind != MethodNone {
			return k.Statics[symbol], true
		}
	}
	return Method{}, false
}

// FieldOffset is the index at which c's own declared fields begin within
// an instance's Fields slice, after every ancestor's fields.
func (c *Class) FieldOffset() int {
	if c.Super == nil {
		return 0
	}
	return c.Super.TotalFields()
}

// TotalFields returns the number of fields an instance of c carries,
// including inherited ones. Foreign classes report 0: their storage is
// the opaque Foreign buffer, not bytecode fields.
func (c *Class) TotalFields() int {
	if c.IsForeign {
		return 0
	}
	n := c.NumFields
	for s := c.Super; s != nil && !s.IsForeign; s = s.Super {
		n += s.NumFields
	}
	return n
}

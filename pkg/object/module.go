package object

import "github.com/kristofer/ember/pkg/value"

// Module is a loaded compilation unit's top-level variable table: a
// name and slot-indexed value per module-level declaration, looked up by
// name (IMPORT_VARIABLE) and by slot (LOAD_MODULE_VAR/STORE_MODULE_VAR).
type Module struct {
	value.ObjHeader

	Name     string
	varNames []string
	vars     []value.Value
}

// NewModule constructs an empty module named name.
func NewModule(name string) *Module {
	m := &Module{Name: name}
	m.Kind = value.ObjModule
	return m
}

// Define adds a new top-level variable, returning its slot. Redefining
// an existing name overwrites its value in place and returns the
// existing slot.
func (m *Module) Define(name string, v value.Value) int {
	for i, n := range m.varNames {
		if n == name {
			m.vars[i] = v
			return i
		}
	}
	m.varNames = append(m.varNames, name)
	m.vars = append(m.vars, v)
	return len(m.vars) - 1
}

// Lookup resolves name to its current value.
func (m *Module) Lookup(name string) (value.Value, bool) {
	for i, n := range m.varNames {
		if n == name {
			return m.vars[i], true
		}
	}
	return value.Null(), false
}

// SlotOf returns the variable slot for name, or -1 if undeclared.
func (m *Module) SlotOf(name string) int {
	for i, n := range m.varNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Slot returns the value at a known-valid slot index.
func (m *Module) Slot(i int) value.Value { return m.vars[i] }

// SetSlot overwrites a known-valid slot index.
func (m *Module) SetSlot(i int, v value.Value) { m.vars[i] = v }

// Vars exposes the full variable slice, for garbage-collection tracing.
func (m *Module) Vars() []value.Value { return m.vars }

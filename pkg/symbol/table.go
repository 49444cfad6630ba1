// Package symbol implements ember's method-name interning table: every
// distinct method signature (e.g. "+(_)", "call(_,_)", "toString") is
// assigned a small integer the first time it is seen, and every Class's
// method table is indexed by that integer rather than by string.
//
// Backed by dolthub/swiss, a SIMD-friendly open-addressing table, since
// lookups happen on every single message send during interpretation and
// a generic hash map is the wrong tool for a table that is
// overwhelmingly read-heavy and essentially append-only at runtime.
package symbol

import "github.com/dolthub/swiss"

// Table interns method signature strings to small integers.
type Table struct {
	byName *swiss.Map[string, int]
	names  []string
}

// NewTable constructs an empty symbol table.
func NewTable() *Table {
	return &Table{byName: swiss.NewMap[string, int](64)}
}

// Intern returns name's symbol, assigning the next integer if this is
// the first time name has been seen.
func (t *Table) Intern(name string) int {
	if id, ok := t.byName.Get(name); ok {
		return id
	}
	id := len(t.names)
	t.names = append(t.names, name)
	t.byName.Put(name, id)
	return id
}

// Lookup returns name's symbol without interning it, for callers that
// must fail rather than silently allocate a new symbol when the
// signature has never been interned.
func (t *Table) Lookup(name string) (int, bool) {
	return t.byName.Get(name)
}

// Name returns the signature string for a previously interned symbol.
func (t *Table) Name(symbol int) string { return t.names[symbol] }

// SymbolCount reports how many distinct signatures have been interned,
// the size every Class's method table is allocated to. Satisfies the
// runtimeSymbols interface package object's NewClass expects.
func (t *Table) SymbolCount() int { return len(t.names) }

package object

import "github.com/kristofer/ember/pkg/value"

// Foreign holds an opaque byte buffer owned by host code: the backing
// store for a foreign class instance. Finalize runs exactly once, from
// the collector's sweep phase, before the buffer is dropped.
type Foreign struct {
	value.ObjHeader
	Data      []byte
	Finalize  ForeignFinalizeFn
	finalized bool
}

// NewForeign wraps data as a foreign instance of class.
func NewForeign(class *Class, data []byte) *Foreign {
	f := &Foreign{Data: data, Finalize: class.Finalize}
	f.Kind = value.ObjForeign
	f.Class = class
	return f
}

// RunFinalizer invokes Finalize at most once. Safe to call redundantly;
// the collector is the only caller, but a host could plausibly release a
// handle to a foreign object early via an explicit API in the future.
func (f *Foreign) RunFinalizer() {
	if f.finalized || f.Finalize == nil {
		return
	}
	f.finalized = true
	f.Finalize(f.Data)
}

package object

import (
	"golang.org/x/exp/slices"

	"github.com/kristofer/ember/pkg/value"
)

// List is a growable, zero-indexed sequence of Values, backed directly
// by a Go slice (Go's own grown-buffer semantics stand in for the hand
// rolled growable-array helper the host language would need).
type List struct {
	value.ObjHeader
	Elems []value.Value
}

// NewList wraps elems as a list. The caller's slice is taken by
// reference, matching NewStringBytes's ownership convention.
func NewList(elems []value.Value) *List {
	l := &List{Elems: elems}
	l.Kind = value.ObjList
	return l
}

func (l *List) Len() int { return len(l.Elems) }

// Insert places v at index idx, shifting later elements right. idx ==
// Len() appends.
func (l *List) Insert(idx int, v value.Value) {
	l.Elems = slices.Insert(l.Elems, idx, v)
}

// RemoveAt deletes the element at idx and returns it.
func (l *List) RemoveAt(idx int) value.Value {
	v := l.Elems[idx]
	l.Elems = slices.Delete(l.Elems, idx, idx+1)
	return v
}

// Swap exchanges the elements at i and j, used by the swap(_,_)
// primitive.
func (l *List) Swap(i, j int) { l.Elems[i], l.Elems[j] = l.Elems[j], l.Elems[i] }

package object

import "github.com/kristofer/ember/pkg/value"

// Range is an immutable numeric interval, From..To, with Inclusive
// deciding whether To itself is a member.
type Range struct {
	value.ObjHeader
	From, To  float64
	Inclusive bool
}

// NewRange constructs a range object.
func NewRange(from, to float64, inclusive bool) *Range {
	r := &Range{From: from, To: to, Inclusive: inclusive}
	r.Kind = value.ObjRange
	return r
}

// Equal reports structural equality, used by Map key comparison: ranges
// are immutable value types, not reference types, for hashing purposes.
func (r *Range) Equal(o *Range) bool {
	return r.From == o.From && r.To == o.To && r.Inclusive == o.Inclusive
}

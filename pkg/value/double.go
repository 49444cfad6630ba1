package value

import "math"

// DoubleClass classifies a double the way the language's Num class needs
// to for isNan/isInfinity/isInteger queries.
type DoubleClass uint8

const (
	DoubleFinite DoubleClass = iota
	DoubleInfinite
	DoubleNaN
)

// Classify reports which IEEE-754 bucket n falls into.
func Classify(n float64) DoubleClass {
	switch {
	case math.IsNaN(n):
		return DoubleNaN
	case math.IsInf(n, 0):
		return DoubleInfinite
	default:
		return DoubleFinite
	}
}

// IsInteger reports whether n has no fractional part and is within the
// range that round-trips exactly through int64 (used by list/range
// indexing, which requires integral doubles).
func IsInteger(n float64) bool {
	if Classify(n) != DoubleFinite {
		return false
	}
	return math.Trunc(n) == n && n >= math.MinInt64 && n < math.MaxInt64
}

// AsIndex converts a Value known to be an integral double into a Go int,
// returning ok=false if it is not a number or not integral.
func AsIndex(v Value) (int, bool) {
	if !v.IsNumber() {
		return 0, false
	}
	n := v.AsNumber()
	if !IsInteger(n) {
		return 0, false
	}
	return int(n), true
}

// ResolveIndex implements the negative-indexes-from-the-end convention
// used by list and string indexing: -1 means the last element, length
// means "append/one past the end", anything else out of range is an
// error.
func ResolveIndex(idx, length int, allowOnePastEnd bool) (int, bool) {
	if idx < 0 {
		idx += length
	}
	if allowOnePastEnd {
		if idx < 0 || idx > length {
			return 0, false
		}
		return idx, true
	}
	if idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}

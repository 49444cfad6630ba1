package object

import (
	"hash/fnv"

	"github.com/kristofer/ember/pkg/value"
)

// String is an immutable byte sequence with a precomputed hash, so map
// lookups and method-symbol interning never re-hash the same bytes
// twice.
type String struct {
	value.ObjHeader
	Bytes []byte
	hash  uint32
}

// NewString copies s into a new String object and hashes it once.
func NewString(s string) *String {
	str := &String{Bytes: []byte(s), hash: hashBytes([]byte(s))}
	str.Kind = value.ObjString
	return str
}

// NewStringBytes takes ownership of b (it is not copied) and hashes it.
func NewStringBytes(b []byte) *String {
	str := &String{Bytes: b, hash: hashBytes(b)}
	str.Kind = value.ObjString
	return str
}

func (s *String) String() string { return string(s.Bytes) }
func (s *String) Hash() uint32   { return s.hash }
func (s *String) Len() int       { return len(s.Bytes) }

func hashBytes(b []byte) uint32 {
	h := fnv.New32a()
	h.Write(b)
	return h.Sum32()
}

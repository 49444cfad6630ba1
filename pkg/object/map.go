package object

import (
	"math"
	"unsafe"

	"github.com/kristofer/ember/pkg/value"
)

// Map is an open-addressed hash table with linear probing. It is hand
// rolled rather than built on dolthub/swiss (used elsewhere in ember for
// the method symbol table): swiss tables use SIMD-friendly metadata
// bytes and a different probe sequence, and can't reproduce the
// entries-array-of-(key,value) layout the language's undefined-key
// convention below depends on.
//
// Every slot's Key is either a real key or value.Undefined(), which
// marks the slot empty or tombstoned:
//   - empty:     Key undefined, Val is Null()  (falsy)
//   - tombstone: Key undefined, Val is True()  (truthy)
// A tombstone is a slot that once held an entry which was deleted; probe
// sequences must continue through it since a later-inserted colliding
// key may live further down the chain, but insertion reuses the first
// tombstone it passes.
type Map struct {
	value.ObjHeader
	entries []mapEntry
	count   int // live entries, excluding tombstones
}

type mapEntry struct {
	Key value.Value
	Val value.Value
}

const (
	mapMinCapacity = 8
	mapLoadFactor  = 0.75
)

// NewMap constructs an empty map.
func NewMap() *Map {
	m := &Map{entries: newEmptySlots(mapMinCapacity)}
	m.Kind = value.ObjMap
	return m
}

func newEmptySlots(n int) []mapEntry {
	slots := make([]mapEntry, n)
	for i := range slots {
		slots[i] = mapEntry{Key: value.Undefined(), Val: value.Null()}
	}
	return slots
}

func isEmptySlot(e mapEntry) bool     { return e.Key.IsUndefined() && !e.Val.AsBool() }
func isTombstoneSlot(e mapEntry) bool { return e.Key.IsUndefined() && e.Val.AsBool() }

// Len reports the number of live entries.
func (m *Map) Len() int { return m.count }

// Get returns the value stored at key, if present.
func (m *Map) Get(key value.Value) (value.Value, bool) {
	idx, found := m.find(key)
	if !found {
		return value.Null(), false
	}
	return m.entries[idx].Val, true
}

// Has reports whether key is present.
func (m *Map) Has(key value.Value) bool {
	_, found := m.find(key)
	return found
}

// Set inserts or overwrites key's value.
func (m *Map) Set(key, val value.Value) {
	if float64(m.count+1) > float64(len(m.entries))*mapLoadFactor {
		m.grow()
	}
	idx := m.insertionIndex(key)
	if m.entries[idx].Key.IsUndefined() {
		m.count++
	}
	m.entries[idx] = mapEntry{Key: key, Val: val}
}

// Delete removes key, if present, turning its slot into a tombstone.
// Reports whether the key had been present.
func (m *Map) Delete(key value.Value) bool {
	idx, found := m.find(key)
	if !found {
		return false
	}
	m.entries[idx] = mapEntry{Key: value.Undefined(), Val: value.True()}
	m.count--
	return true
}

// Clear empties the map in place, preserving its identity for anything
// already holding a reference to it.
func (m *Map) Clear() {
	m.entries = newEmptySlots(mapMinCapacity)
	m.count = 0
}

// Each calls fn for every live (key, value) pair, in bucket order (the
// language makes no iteration-order guarantee beyond "stable between
// mutations").
func (m *Map) Each(fn func(key, val value.Value)) {
	for _, e := range m.entries {
		if !isEmptySlot(e) && !isTombstoneSlot(e) {
			fn(e.Key, e.Val)
		}
	}
}

func (m *Map) find(key value.Value) (int, bool) {
	mask := len(m.entries) - 1
	idx := int(hashValue(key)) & mask
	for i := 0; i < len(m.entries); i++ {
		e := m.entries[idx]
		if isEmptySlot(e) {
			return 0, false
		}
		if !isTombstoneSlot(e) && valuesEqual(e.Key, key) {
			return idx, true
		}
		idx = (idx + 1) & mask
	}
	return 0, false
}

// insertionIndex finds the slot key should occupy: its existing slot if
// already present, the first tombstone seen along the probe chain
// otherwise, or the first empty slot if there is no tombstone and no
// existing entry.
func (m *Map) insertionIndex(key value.Value) int {
	mask := len(m.entries) - 1
	idx := int(hashValue(key)) & mask
	tombstone := -1
	for i := 0; i < len(m.entries); i++ {
		e := m.entries[idx]
		if isEmptySlot(e) {
			if tombstone != -1 {
				return tombstone
			}
			return idx
		}
		if isTombstoneSlot(e) {
			if tombstone == -1 {
				tombstone = idx
			}
		} else if valuesEqual(e.Key, key) {
			return idx
		}
		idx = (idx + 1) & mask
	}
	if tombstone != -1 {
		return tombstone
	}
	// Unreachable under the load factor invariant maintained by Set.
	return idx
}

func (m *Map) grow() {
	old := m.entries
	m.entries = newEmptySlots(len(old) * 2)
	m.count = 0
	for _, e := range old {
		if !isEmptySlot(e) && !isTombstoneSlot(e) {
			idx := m.insertionIndex(e.Key)
			m.entries[idx] = e
			m.count++
		}
	}
}

// hashValue hashes a Value for map-bucket purposes. Numbers, the four
// singletons, and strings hash by content; every other object kind
// hashes by identity (its header address), matching Is semantics for
// reference types.
func hashValue(v value.Value) uint64 {
	switch v.Kind() {
	case value.KindNull:
		return 0x9e3779b97f4a7c15
	case value.KindTrue:
		return 0x9e3779b97f4a7c16
	case value.KindFalse:
		return 0x9e3779b97f4a7c17
	case value.KindUndefined:
		return 0x9e3779b97f4a7c18
	case value.KindNumber:
		return hashUint64(math.Float64bits(v.AsNumber()))
	case value.KindObject:
		obj := v.AsObj()
		switch o := obj.(type) {
		case *String:
			return hashUint64(uint64(o.Hash()))
		case *Range:
			return hashUint64(math.Float64bits(o.From)) ^ hashUint64(math.Float64bits(o.To))
		default:
			return hashPointer(obj)
		}
	default:
		return 0
	}
}

// valuesEqual implements the structural layer of key equality: numbers,
// strings, and ranges compare by value; everything else falls back to
// reference identity via Value.Is.
func valuesEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Kind() == value.KindObject {
		ao, bo := a.AsObj(), b.AsObj()
		if as, ok := ao.(*String); ok {
			if bs, ok := bo.(*String); ok {
				return string(as.Bytes) == string(bs.Bytes)
			}
			return false
		}
		if ar, ok := ao.(*Range); ok {
			if br, ok := bo.(*Range); ok {
				return ar.Equal(br)
			}
			return false
		}
	}
	return a.Is(b)
}

// hashPointer hashes an object by identity: its header's address. Sound
// for hashing purposes even under the NaN-boxed Value encoding, since
// the address is only ever used as a bit pattern here, never
// dereferenced.
func hashPointer(obj value.Obj) uint64 {
	return hashUint64(uint64(uintptr(unsafe.Pointer(obj.Header()))))
}

func hashUint64(x uint64) uint64 {
	// SplitMix64 finalizer: cheap, good avalanche, no allocation.
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Package api implements the foreign-function slot API: the small,
// index-addressed window a host callback uses to read its arguments and
// write its result without touching a value.Value or object.* type
// directly. A Slots is constructed from exactly the three
// things a bound object.ForeignFn/object.ForeignAllocateFn already
// receives, so wiring it in is a one-line change at the top of a host
// callback:
//
//	func myForeignMethod(rt object.Runtime, fiber *object.Fiber, args []value.Value) object.Signal {
//	    s := api.New(rt, fiber, args)
//	    s.SetDouble(0, s.GetDouble(1)+s.GetDouble(2))
//	    return object.SignalDone
//	}
package api

import (
	"github.com/kristofer/ember/pkg/handle"
	"github.com/kristofer/ember/pkg/object"
	"github.com/kristofer/ember/pkg/value"
	"github.com/kristofer/ember/pkg/vm"
)

// Type is a slot's dynamic type, the handful of cases a host callback
// can usefully distinguish before reaching for a typed getter.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeBool
	TypeNumber
	TypeNull
	TypeList
	TypeMap
	TypeString
	TypeForeign
)

// Slots is a window onto one foreign call's argument/result frame: slot
// 0 is the receiver on entry and the return value on exit, slots 1..N-1
// are the declared parameters. It holds no state beyond where that
// window currently begins - growing it (SetCount) writes straight
// through to the owning fiber's stack, and the interpreter trims the
// frame back down when the foreign call returns.
type Slots struct {
	rt    *vm.Runtime
	fiber *object.Fiber
	base  int
}

// New builds a Slots over the argument window a foreign callback was
// just invoked with. rt must be the same *vm.Runtime that dispatched the
// call (true of every object.Runtime a ForeignFn/ForeignAllocateFn is
// ever handed); args is the exact slice the callback received.
func New(rt object.Runtime, fiber *object.Fiber, args []value.Value) *Slots {
	return &Slots{rt: rt.(*vm.Runtime), fiber: fiber, base: fiber.StackTop - len(args)}
}

// Count returns the number of slots currently available (frame_size()).
func (s *Slots) Count() int { return s.fiber.StackTop - s.base }

// SetCount grows the frame to at least n slots, filling any new ones
// with null (set_frame_size(k)). It never shrinks the frame; the
// interpreter trims it back to one slot when the foreign call returns.
func (s *Slots) SetCount(n int) {
	want := s.base + n
	if want <= s.fiber.StackTop {
		return
	}
	s.fiber.EnsureCapacity(want - s.fiber.StackTop)
	for s.fiber.StackTop < want {
		s.fiber.Push(value.Null())
	}
}

func (s *Slots) get(i int) value.Value    { return s.fiber.Stack[s.base+i] }
func (s *Slots) set(i int, v value.Value) { s.fiber.Stack[s.base+i] = v }

// Type reports slot i's dynamic type.
func (s *Slots) Type(i int) Type {
	v := s.get(i)
	switch v.Kind() {
	case value.KindTrue, value.KindFalse:
		return TypeBool
	case value.KindNumber:
		return TypeNumber
	case value.KindNull:
		return TypeNull
	case value.KindObject:
		switch v.AsObj().(type) {
		case *object.List:
			return TypeList
		case *object.Map:
			return TypeMap
		case *object.String:
			return TypeString
		case *object.Foreign:
			return TypeForeign
		default:
			return TypeUnknown
		}
	default:
		return TypeUnknown
	}
}

// GetBool reads slot i as a bool; false for anything that isn't Bool.
func (s *Slots) GetBool(i int) bool { return s.get(i).AsBool() }

// SetBool writes a bool into slot i.
func (s *Slots) SetBool(i int, b bool) { s.set(i, value.Bool(b)) }

// GetDouble reads slot i as a double; 0 for anything that isn't Num,
// bit-identical for every finite value and for +inf/-inf/NaN.
func (s *Slots) GetDouble(i int) float64 { return s.get(i).AsNumber() }

// SetDouble writes a double into slot i.
func (s *Slots) SetDouble(i int, n float64) { s.set(i, value.Number(n)) }

// SetNull writes null into slot i.
func (s *Slots) SetNull(i int) { s.set(i, value.Null()) }

// GetString reads slot i as a string, ok=false if it does not hold one.
func (s *Slots) GetString(i int) (string, bool) {
	str, ok := s.get(i).AsObj().(*object.String)
	if !ok {
		return "", false
	}
	return str.String(), true
}

// SetString writes s into slot i as a new String object.
func (s *Slots) SetString(i int, text string) { s.set(i, value.FromObj(s.rt.NewString(text))) }

// GetBytes reads slot i's raw bytes, a copy safe for the host to mutate.
// Distinct from GetString only in that it performs no UTF-8 assumption
// either way - ember strings are themselves just byte sequences.
func (s *Slots) GetBytes(i int) ([]byte, bool) {
	str, ok := s.get(i).AsObj().(*object.String)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(str.Bytes))
	copy(out, str.Bytes)
	return out, true
}

// SetBytes writes raw bytes into slot i as a new String object, taking a
// copy of b.
func (s *Slots) SetBytes(i int, b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.set(i, value.FromObj(s.rt.NewString(string(cp))))
}

// NewList writes a fresh, empty list into slot i.
func (s *Slots) NewList(i int) { s.set(i, value.FromObj(s.rt.NewList(nil))) }

// NewMap writes a fresh, empty map into slot i.
func (s *Slots) NewMap(i int) { s.set(i, value.FromObj(s.rt.NewMap())) }

// NewForeign allocates a size-byte buffer as a new instance of the class
// held in classSlot, writes it into slot i, and returns the buffer for
// the host to fill in directly - the slot-API equivalent of
// FOREIGN_CONSTRUCT's allocate callback, for foreign classes whose
// instances are built entirely from within a foreign method rather than
// a bytecode constructor.
func (s *Slots) NewForeign(i, classSlot int, size int) ([]byte, bool) {
	class, ok := s.get(classSlot).AsObj().(*object.Class)
	if !ok {
		return nil, false
	}
	f := s.rt.NewForeign(class, size)
	s.set(i, value.FromObj(f))
	return f.Data, true
}

// GetForeignData returns the raw buffer backing the foreign instance in
// slot i, ok=false if it does not hold one.
func (s *Slots) GetForeignData(i int) ([]byte, bool) {
	f, ok := s.get(i).AsObj().(*object.Foreign)
	if !ok {
		return nil, false
	}
	return f.Data, true
}

// GetHandle wraps slot i's value in a host-owned handle, keeping it
// alive across garbage collections until Release.
func (s *Slots) GetHandle(i int) *handle.Handle { return s.rt.Handles.Make(s.get(i)) }

// SetHandle writes h's referenced value into slot i. The handle itself
// remains valid and must still be separately released.
func (s *Slots) SetHandle(i int, h *handle.Handle) { s.set(i, h.Value) }

// ReleaseHandle releases a handle obtained from GetHandle. Using h after
// this call is a host programming error.
func (s *Slots) ReleaseHandle(h *handle.Handle) { s.rt.Handles.Release(h) }

// ListCount returns the number of elements in the list held in slot i,
// ok=false if it does not hold a list.
func (s *Slots) ListCount(i int) (int, bool) {
	l, ok := s.get(i).AsObj().(*object.List)
	if !ok {
		return 0, false
	}
	return l.Len(), true
}

// ListGet reads the element at index (negative counts from the end) of
// the list in listSlot into dst.
func (s *Slots) ListGet(listSlot, index, dst int) bool {
	l, ok := s.get(listSlot).AsObj().(*object.List)
	if !ok {
		return false
	}
	idx := normalizeListIndex(index, l.Len(), false)
	if idx < 0 {
		return false
	}
	s.set(dst, l.Elems[idx])
	return true
}

// ListInsert inserts the value in valueSlot at index (negative counts
// from the end; index == count appends) into the list in listSlot.
func (s *Slots) ListInsert(listSlot, index, valueSlot int) bool {
	l, ok := s.get(listSlot).AsObj().(*object.List)
	if !ok {
		return false
	}
	idx := normalizeListIndex(index, l.Len(), true)
	if idx < 0 {
		return false
	}
	l.Insert(idx, s.get(valueSlot))
	return true
}

// normalizeListIndex implements the same boundary rule as
// vm.normalizeIndex (unexported there): -1 is the last element, count
// itself is one past the end (legal only when allowEnd), anything
// further out is invalid and reported as -1.
func normalizeListIndex(index, count int, allowEnd bool) int {
	i := index
	if i < 0 {
		i += count
	}
	max := count - 1
	if allowEnd {
		max = count
	}
	if i < 0 || i > max {
		return -1
	}
	return i
}

// MapGet reads the value for the key in keySlot from the map in mapSlot
// into dst, reporting whether the key was present.
func (s *Slots) MapGet(mapSlot, keySlot, dst int) bool {
	m, ok := s.get(mapSlot).AsObj().(*object.Map)
	if !ok {
		return false
	}
	v, found := m.Get(s.get(keySlot))
	if !found {
		return false
	}
	s.set(dst, v)
	return true
}

// MapHas reports whether the map in mapSlot contains the key in keySlot.
func (s *Slots) MapHas(mapSlot, keySlot int) bool {
	m, ok := s.get(mapSlot).AsObj().(*object.Map)
	if !ok {
		return false
	}
	return m.Has(s.get(keySlot))
}

// MapSet writes the key/value pair in keySlot/valSlot into the map held
// in mapSlot, the setter side of the container-access primitives a
// foreign method needs to build a map result.
func (s *Slots) MapSet(mapSlot, keySlot, valSlot int) bool {
	m, ok := s.get(mapSlot).AsObj().(*object.Map)
	if !ok {
		return false
	}
	m.Set(s.get(keySlot), s.get(valSlot))
	return true
}

// GetVariable fetches moduleName's top-level binding named varName into
// dst, reporting whether both the module and the variable were found.
func (s *Slots) GetVariable(dst int, moduleName, varName string) bool {
	module := s.rt.Module(moduleName)
	if module == nil {
		return false
	}
	v, ok := module.Lookup(varName)
	if !ok {
		return false
	}
	s.set(dst, v)
	return true
}

// AbortFiber stores the value in slot src as the current fiber's error,
// the foreign-method equivalent of Fiber.abort.
func (s *Slots) AbortFiber(src int) {
	s.rt.Abort(s.fiber, s.get(src))
}

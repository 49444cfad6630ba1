package gc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kristofer/ember/pkg/gc"
	"github.com/kristofer/ember/pkg/value"
)

// fakeObj is a minimal heap object used only to exercise the allocator
// and collector mechanics in isolation from package object.
type fakeObj struct {
	value.ObjHeader
	ref *fakeObj
}

const fakeObjKind = value.ObjInstance

func init() {
	gc.RegisterTracer(fakeObjKind, func(obj value.Obj, gray func(value.Obj)) {
		f := obj.(*fakeObj)
		if f.ref != nil {
			gray(f.ref)
		}
	})
	gc.RegisterSizer(fakeObjKind, func(value.Obj) int { return 16 })
}

func newFake(alloc *gc.Allocator) *fakeObj {
	f := &fakeObj{}
	f.Kind = fakeObjKind
	alloc.Track(f, 16)
	return f
}

func TestSweepReclaimsUnreachable(t *testing.T) {
	alloc := gc.NewAllocator(nil)
	var roots []value.Obj
	coll := &gc.Collector{Roots: []gc.RootProvider{func() []value.Obj { return roots }}}
	alloc.SetCollector(func() { coll.Collect(alloc) })

	kept := newFake(alloc)
	_ = newFake(alloc) // never rooted, must be swept

	roots = []value.Obj{kept}

	freed := coll.Collect(alloc)
	require.Equal(t, int64(16), freed)
	require.Equal(t, int64(16), alloc.BytesAllocated)

	// Walk the surviving list; only `kept` should remain.
	count := 0
	for obj := alloc.Head(); obj != nil; obj = obj.Header().Next {
		require.Same(t, kept, obj)
		count++
	}
	require.Equal(t, 1, count)
}

func TestMarkTracesReferences(t *testing.T) {
	alloc := gc.NewAllocator(nil)
	var roots []value.Obj
	coll := &gc.Collector{Roots: []gc.RootProvider{func() []value.Obj { return roots }}}
	alloc.SetCollector(func() { coll.Collect(alloc) })

	child := newFake(alloc)
	parent := newFake(alloc)
	parent.ref = child
	roots = []value.Obj{parent}

	freed := coll.Collect(alloc)
	require.Equal(t, int64(0), freed, "child is reachable through parent.ref and must survive")
	require.Equal(t, int64(32), alloc.BytesAllocated)
}

func TestCollectLogsWhenDebugLogSet(t *testing.T) {
	alloc := gc.NewAllocator(nil)
	var lines []string
	alloc.DebugLog = func(s string) { lines = append(lines, s) }
	coll := &gc.Collector{Roots: []gc.RootProvider{func() []value.Obj { return nil }}}

	newFake(alloc)
	coll.Collect(alloc)

	require.Len(t, lines, 1)
	require.Contains(t, lines[0], "gc: freed")
}

func TestStressModeCollectsEveryTrack(t *testing.T) {
	alloc := gc.NewAllocator(nil)
	alloc.StressMode = true
	calls := 0
	coll := &gc.Collector{Roots: []gc.RootProvider{func() []value.Obj { return nil }}}
	alloc.SetCollector(func() { calls++; coll.Collect(alloc) })

	newFake(alloc)
	newFake(alloc)
	require.Equal(t, 2, calls)

	// Each Track collected before linking its own object in, so only the
	// second object (allocated after the last collection) is still live.
	require.Equal(t, int64(16), alloc.BytesAllocated)
	coll.Collect(alloc)
	require.Equal(t, int64(0), alloc.BytesAllocated)
	require.Equal(t, 2, calls, "a direct Collect is not an allocator-triggered one")
}

package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMap() DataMap {
	var m DataMap
	m.Put(P("weapons", "0", "atk"), Float(0.0))
	m.Put(P("weapons", "0", "crit"), Float(0.10))
	m.Put(P("weapons", "0", "dmg"), Int(4))
	m.Put(P("tags", "light"), String("light"))
	return m
}

func TestDiffOfIdenticalMapsIsEmpty(t *testing.T) {
	m := sampleMap()
	patch := Diff(m, m)
	assert.True(t, patch.IsEmpty(), "diff(M, M) must be empty")
}

func TestDiffEmitsSetsAndRemovals(t *testing.T) {
	orig := sampleMap()
	mod := orig.Clone()
	mod.Put(P("weapons", "0", "crit"), Float(0.15)) // changed
	mod.Put(P("weapons", "0", "spd"), Int(1))       // added
	mod.Delete(P("tags", "light"))                  // removed

	patch := Diff(orig, mod)
	require.Equal(t, 3, patch.Len())

	change, ok := patch.Get(P("weapons", "0", "crit"))
	require.True(t, ok)
	assert.True(t, change.Equal(Set(Float(0.15))))

	change, ok = patch.Get(P("weapons", "0", "spd"))
	require.True(t, ok)
	assert.True(t, change.Equal(Set(Int(1))))

	change, ok = patch.Get(P("tags", "light"))
	require.True(t, ok)
	assert.Equal(t, OpRemove, change.Op)

	// Unchanged paths never appear.
	_, ok = patch.Get(P("weapons", "0", "dmg"))
	assert.False(t, ok)
}

func TestDiffApplyInverse(t *testing.T) {
	orig := sampleMap()
	target := sampleMap()
	target.Put(P("weapons", "0", "crit"), Float(0.2))
	target.Put(P("armours", "0", "def"), Float(0.05))
	target.Delete(P("weapons", "0", "dmg"))

	assert.True(t, Apply(orig, Diff(orig, target)).Equal(target), "apply(B, diff(B, T)) must equal T")
}

func TestApplyEmptyPatchIsNoop(t *testing.T) {
	orig := sampleMap()
	applied := Apply(orig, Patch{})
	assert.True(t, applied.Equal(orig))
}

func TestDataMapOrderingAndPrefixes(t *testing.T) {
	var m DataMap
	m.Put(P("b"), Int(2))
	m.Put(P("a", "x"), Int(1))
	m.Put(P("a"), Int(0))

	entries := m.Entries()
	require.Len(t, entries, 3)
	// A proper prefix sorts before its extensions.
	assert.Equal(t, P("a"), entries[0].Path)
	assert.Equal(t, P("a", "x"), entries[1].Path)
	assert.Equal(t, P("b"), entries[2].Path)

	var outer DataMap
	outer.ExtendPrefixed("inner", m)
	_, ok := outer.Get(P("inner", "a", "x"))
	assert.True(t, ok)

	sub := outer.At("inner", "a")
	_, ok = sub.Get(Path{})
	assert.True(t, ok, "prefix entry itself maps to the empty path")
	_, ok = sub.Get(P("x"))
	assert.True(t, ok)
}

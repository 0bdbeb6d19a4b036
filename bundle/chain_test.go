package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainRoundTrip(t *testing.T) {
	for _, list := range [][]string{
		{},
		{"only"},
		{"a", "b", "c"},
	} {
		decoded, err := DecodeChain(ChainMap(list))
		require.NoError(t, err)
		assert.Equal(t, list, decoded)
	}
}

func TestChainDecodeFailsLoudly(t *testing.T) {
	// No head fact at all.
	var m DataMap
	m.Put(P("a"), Next("b"))
	_, err := DecodeChain(m)
	assert.ErrorIs(t, err, ErrChainNoHead)

	// A cycle must not silently truncate.
	m = DataMap{}
	m.Put(Path{}, Next("a"))
	m.Put(P("a"), Next("b"))
	m.Put(P("b"), Next("a"))
	_, err = DecodeChain(m)
	assert.ErrorIs(t, err, ErrChainCycle)

	// A dangling successor.
	m = DataMap{}
	m.Put(Path{}, Next("a"))
	_, err = DecodeChain(m)
	assert.ErrorIs(t, err, ErrChainBroken)
}

// Inserting x after a (source one) and y after b (source two) touches
// different predecessor keys, so both insertions merge automatically and
// land in the correct relative order.
func TestChainIndependentInsertionsMerge(t *testing.T) {
	base := []string{"a", "b", "c"}
	baseMap := ChainMap(base)

	one := Diff(baseMap, ChainMap([]string{"a", "x", "b", "c"}))
	two := Diff(baseMap, ChainMap([]string{"a", "b", "y", "c"}))

	merged, conflicts := Merge([]SourcePatch{
		{Source: "mod-one", Patch: one},
		{Source: "mod-two", Patch: two},
	})
	require.True(t, conflicts.IsEmpty(), "insertions at different points must not conflict")

	final, err := DecodeChain(Apply(baseMap, merged))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "x", "b", "y", "c"}, final)
}

// Two sources inserting after the same element collide on the shared
// predecessor fact and must be reported, not silently ordered.
func TestChainSamePointInsertionConflicts(t *testing.T) {
	baseMap := ChainMap([]string{"a", "b"})

	one := Diff(baseMap, ChainMap([]string{"a", "x", "b"}))
	two := Diff(baseMap, ChainMap([]string{"a", "y", "b"}))

	_, conflicts := Merge([]SourcePatch{
		{Source: "mod-one", Patch: one},
		{Source: "mod-two", Patch: two},
	})
	require.False(t, conflicts.IsEmpty())
	_, ok := conflicts.Get(P("a"))
	assert.True(t, ok, "the shared predecessor fact carries the conflict")
}

func TestPatchChain(t *testing.T) {
	list := []string{"a", "b", "c"}
	patch := Diff(ChainMap(list), ChainMap([]string{"a", "c"}))
	out, err := PatchChain(list, patch.Entries())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, out)

	// A scalar where a chain fact belongs is a structural mismatch.
	_, err = PatchChain(list, []PatchEntry{{Path: P("a"), Change: Set(Int(1))}})
	var applyErr *ApplyError
	assert.ErrorAs(t, err, &applyErr)
}

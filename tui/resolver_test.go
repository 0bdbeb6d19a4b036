package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskward/modbundle/bundle"
)

func TestReferenceValuePrefersOriginal(t *testing.T) {
	original := bundle.Float(0.1)
	conflict := bundle.ValueConflict{
		Original: &original,
		Candidates: []bundle.SourceChange{
			{Source: "mod-a", Change: bundle.Set(bundle.String("text"))},
		},
	}
	ref := referenceValue(conflict)
	require.NotNil(t, ref)
	assert.Equal(t, bundle.KindFloat, ref.Kind())
}

func TestReferenceValueFallsBackToCandidate(t *testing.T) {
	conflict := bundle.ValueConflict{
		Candidates: []bundle.SourceChange{
			{Source: "mod-a", Change: bundle.Removed()},
			{Source: "mod-b", Change: bundle.Set(bundle.Int(3))},
		},
	}
	ref := referenceValue(conflict)
	require.NotNil(t, ref)
	assert.Equal(t, bundle.KindInt, ref.Kind())

	assert.Nil(t, referenceValue(bundle.ValueConflict{
		Candidates: []bundle.SourceChange{{Source: "mod-a", Change: bundle.Removed()}},
	}))
}

func TestCandidatePreviews(t *testing.T) {
	preview := candidatePreviews(bundle.SequenceConflict{
		Group:    "smite",
		Field:    "effects",
		Original: []string{"stun_a", "stun_a mark_self"},
		Candidates: []bundle.SequenceCandidate{
			{Source: "mod-a", Lines: []string{"stun_a mark_enemy", "stun_a mark_self"}},
			{Source: "mod-b", Lines: []string{"stun_a", "stun_a mark_self"}},
		},
	})

	assert.Contains(t, preview, "+++ mod-a")
	assert.Contains(t, preview, "+stun_a mark_enemy")
	// An identical candidate contributes no preview.
	assert.NotContains(t, preview, "mod-b")
}

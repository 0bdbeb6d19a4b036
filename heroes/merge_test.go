package heroes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskward/modbundle/bundle"
)

// contribution diffs one modified copy against the base.
func contribution(source string, base *Info, mutate func(*Info)) bundle.SourcePatch {
	modified := base.Clone().(*Info)
	mutate(modified)
	return bundle.SourcePatch{Source: source, Patch: bundle.Diff(base.ToMap(), modified.ToMap())}
}

func TestMergeIdenticalSkillEditsAgree(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) { h.Skills["smite"][0].Fields["dmg"] = []string{"18%"} }),
		contribution("mod-b", base, func(h *Info) { h.Skills["smite"][0].Fields["dmg"] = []string{"18%"} }),
	}

	merged, conflicts := base.TryMergePatches(contribs)
	assert.True(t, conflicts.IsEmpty())
	change, ok := merged.Get(bundle.P("skills", "smite", "0", "dmg"))
	require.True(t, ok)
	assert.Equal(t, bundle.Set(bundle.String("18%")), change)
}

func TestMergeConflictPullsWholeSkillField(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) {
			h.Skills["smite"][0].Fields["dmg"] = []string{"18%"}
			h.Resistances["stun"] = 0.5
		}),
		contribution("mod-b", base, func(h *Info) {
			h.Skills["smite"][0].Fields["dmg"] = []string{"25%"}
			h.Skills["smite"][1].Fields["dmg"] = []string{"30%"}
		}),
	}

	merged, conflicts := base.TryMergePatches(contribs)

	// The level 1 edit came from one source only, but shares the group with
	// the conflicted level 0 edit and must be decided with it.
	_, conflicted := conflicts.Get(bundle.P("skills", "smite", "0", "dmg"))
	assert.True(t, conflicted)
	_, conflicted = conflicts.Get(bundle.P("skills", "smite", "1", "dmg"))
	assert.True(t, conflicted)
	_, inMerged := merged.Get(bundle.P("skills", "smite", "1", "dmg"))
	assert.False(t, inMerged)

	// Fields outside the group still auto-merge.
	change, ok := merged.Get(bundle.P("resistances", "stun"))
	require.True(t, ok)
	assert.Equal(t, bundle.Set(bundle.Float(0.5)), change)

	// Untouched sibling fields of the same skill stay out of the conflict.
	_, conflicted = conflicts.Get(bundle.P("skills", "smite", "0", "crit"))
	assert.False(t, conflicted)
}

func TestResolveScalarSequence(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) { h.Skills["smite"][0].Fields["dmg"] = []string{"18%"} }),
		contribution("mod-b", base, func(h *Info) {
			h.Skills["smite"][0].Fields["dmg"] = []string{"25%"}
			h.Skills["smite"][1].Fields["dmg"] = []string{"30%"}
		}),
	}

	resolver := &bundle.ScriptedResolver{
		Sequences: map[string]bundle.SequenceResolution{
			"smite/dmg": {Lines: []string{"18%", "30%"}},
		},
	}

	final, err := bundle.MergeWithResolver(base, resolver, contribs)
	require.NoError(t, err)

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(final))
	assert.Equal(t, []string{"18%"}, applied.Skills["smite"][0].Fields["dmg"])
	assert.Equal(t, []string{"30%"}, applied.Skills["smite"][1].Fields["dmg"])
}

func TestResolveEffectsSequence(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) {
			h.Skills["smite"][0].Effects = []string{"stun_a", "mark_enemy"}
		}),
		contribution("mod-b", base, func(h *Info) {
			h.Skills["smite"][0].Effects = []string{"stun_a", "blight_enemy"}
		}),
	}

	// Both mods append after the same predecessor, so the skill's effects
	// conflict and must be answered as one sequence per level.
	_, conflicts := base.TryMergePatches(contribs)
	require.False(t, conflicts.IsEmpty())

	resolver := &bundle.ScriptedResolver{
		Sequences: map[string]bundle.SequenceResolution{
			"smite/effects": {Lines: []string{
				"stun_a mark_enemy blight_enemy", // level 0: keep both
				"stun_a mark_self",               // level 1: unchanged
			}},
		},
	}

	final, err := bundle.MergeWithResolver(base, resolver, contribs)
	require.NoError(t, err)

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(final))
	assert.Equal(t, []string{"stun_a", "mark_enemy", "blight_enemy"}, applied.Skills["smite"][0].Effects)
	assert.Equal(t, []string{"stun_a", "mark_self"}, applied.Skills["smite"][1].Effects)
}

func TestResolveEffectsRejectsRepeatedStep(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) {
			h.Skills["smite"][0].Effects = []string{"stun_a", "mark_enemy"}
		}),
		contribution("mod-b", base, func(h *Info) {
			h.Skills["smite"][0].Effects = []string{"stun_a", "blight_enemy"}
		}),
	}

	// A typed-in sequence repeating an element cannot encode as a chain and
	// must be refused rather than silently collapsed.
	resolver := &bundle.ScriptedResolver{
		Sequences: map[string]bundle.SequenceResolution{
			"smite/effects": {Lines: []string{
				"stun_a mark_enemy stun_a",
				"stun_a mark_self",
			}},
		},
	}

	_, err := bundle.MergeWithResolver(base, resolver, contribs)
	assert.ErrorContains(t, err, `repeats "stun_a"`)
}

func TestResolveTagConflictAsSequence(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) { h.Tags = []string{"religious", "outcast"} }),
		contribution("mod-b", base, func(h *Info) { h.Tags = []string{"religious", "heir"} }),
	}

	resolver := &bundle.ScriptedResolver{
		Sequences: map[string]bundle.SequenceResolution{
			"tags/ids": {Lines: []string{"religious outcast heir"}},
		},
	}

	final, err := bundle.MergeWithResolver(base, resolver, contribs)
	require.NoError(t, err)

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(final))
	assert.Equal(t, []string{"religious", "outcast", "heir"}, applied.Tags)
}

func TestResolveSequenceRemove(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) { h.Skills["smite"][0].Fields["crit"] = []string{"5%"} }),
		contribution("mod-b", base, func(h *Info) { h.Skills["smite"][0].Fields["crit"] = []string{"9%"} }),
	}

	resolver := &bundle.ScriptedResolver{
		Sequences: map[string]bundle.SequenceResolution{
			"smite/crit": {Remove: true},
		},
	}

	final, err := bundle.MergeWithResolver(base, resolver, contribs)
	require.NoError(t, err)

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(final))
	assert.NotContains(t, applied.Skills["smite"][0].Fields, "crit")
	assert.NotContains(t, applied.Skills["smite"][1].Fields, "crit")
}

func TestPreferLastResolvesSkillSequence(t *testing.T) {
	base := parseSample(t)
	contribs := []bundle.SourcePatch{
		contribution("mod-a", base, func(h *Info) { h.Skills["smite"][0].Fields["dmg"] = []string{"18%"} }),
		contribution("mod-b", base, func(h *Info) { h.Skills["smite"][0].Fields["dmg"] = []string{"25%"} }),
	}

	final, err := bundle.MergeWithResolver(base, bundle.PreferLastResolver{}, contribs)
	require.NoError(t, err)

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(final))
	assert.Equal(t, []string{"25%"}, applied.Skills["smite"][0].Fields["dmg"])
}

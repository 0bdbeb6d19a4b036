package heroes

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/darkest"
)

const sampleInfo = `
// Crusader
resistances: .stun 40% .poison 30% .bleed 30% .disease 20% .move 40% .debuff 30% .deathblow 67% .trap 10%

weapon: .name "crusader_weapon_0" .atk 0% .dmg 6 12 .crit 3% .spd 1
weapon: .name "crusader_weapon_4" .atk 10% .dmg 8 16 .crit 8% .spd 2 .upgradeRequirementCode 3

armour: .name "crusader_armour_0" .def 5% .prot 0 .hp 33 .spd 0

combat_skill: .id "smite" .level 0 .dmg 15% .crit 0%
	.effect "stun_a"
combat_skill: .id "smite" .level 1 .dmg 20% .crit 1% .effect "stun_a" "mark_self"

riposte_skill: .dmg 10% .effect "riposte_bleed"

tag: .id "religious"
extra_stack_limit: .id "holy_water"

deaths_door: .enter_effects "deathsdoorenter" .recovery_buffs "recdebuff"
`

func parseSample(t *testing.T) *Info {
	t.Helper()
	entries, err := darkest.Parse(strings.NewReader(sampleInfo))
	require.NoError(t, err)
	info, err := ParseInfo("crusader", entries)
	require.NoError(t, err)
	return info
}

func TestParseInfo(t *testing.T) {
	info := parseSample(t)

	assert.Equal(t, "crusader", info.ID)
	assert.InDelta(t, 0.4, info.Resistances["stun"], 1e-6)
	assert.InDelta(t, 0.67, info.Resistances["deathblow"], 1e-6)

	assert.InDelta(t, 0.03, info.Weapons[0].Crit, 1e-6)
	assert.Equal(t, int32(6), info.Weapons[0].DmgLow)
	assert.Equal(t, int32(16), info.Weapons[1].DmgHigh)
	assert.InDelta(t, 0.05, info.Armours[0].Def, 1e-6)
	assert.Equal(t, int32(33), info.Armours[0].HP)

	require.Contains(t, info.Skills, "smite")
	require.Contains(t, info.Skills["smite"], 0)
	assert.Equal(t, []string{"stun_a"}, info.Skills["smite"][0].Effects)
	assert.Equal(t, []string{"15%"}, info.Skills["smite"][0].Fields["dmg"])
	// The level 1 entry continues onto the same line; both effects attach.
	assert.Equal(t, []string{"stun_a", "mark_self"}, info.Skills["smite"][1].Effects)

	require.NotNil(t, info.Riposte)
	assert.Equal(t, []string{"riposte_bleed"}, info.Riposte.Effects)

	assert.Equal(t, []string{"religious"}, info.Tags)
	assert.Equal(t, []string{"holy_water"}, info.ExtraStack)
	assert.Equal(t, []string{"deathsdoorenter"}, info.Other[OtherKey{Key: "deaths_door", Subkey: "enter_effects"}])
}

func TestParseInfoRejectsSkillWithoutID(t *testing.T) {
	entries, err := darkest.Parse(strings.NewReader(`combat_skill: .level 0 .dmg 15%`))
	require.NoError(t, err)
	_, err = ParseInfo("crusader", entries)
	assert.ErrorContains(t, err, "combat_skill without id")
}

func TestParseInfoRejectsDuplicateOrderedElements(t *testing.T) {
	for _, tc := range []struct {
		input string
		want  string
	}{
		{`combat_skill: .id "smite" .level 0 .effect "stun_a" "stun_a"`, "duplicate effect"},
		{`riposte_skill: .effect "bleed" "bleed"`, "duplicate effect"},
		{"tag: .id \"religious\"\ntag: .id \"religious\"", "duplicate tag"},
		{"extra_stack_limit: .id \"holy_water\"\nextra_stack_limit: .id \"holy_water\"", "duplicate extra_stack_limit"},
	} {
		entries, err := darkest.Parse(strings.NewReader(tc.input))
		require.NoError(t, err)
		_, err = ParseInfo("crusader", entries)
		assert.ErrorContains(t, err, tc.want)
	}
}

func TestDeployRoundTrip(t *testing.T) {
	info := parseSample(t)

	path := filepath.Join(t.TempDir(), "crusader.info.darkest")
	require.NoError(t, info.Deploy(path))

	loaded, err := LoadInfo(path)
	require.NoError(t, err)
	assert.Equal(t, "crusader", loaded.ID)

	got, want := loaded.ToMap(), info.ToMap()
	assert.True(t, got.Equal(want), "deployed hero flattens differently:\ngot  %v\nwant %v", got.Entries(), want.Entries())
}

func TestDiffApplyInverse(t *testing.T) {
	base := parseSample(t)

	modified := base.Clone().(*Info)
	modified.Resistances["stun"] = 0.5
	modified.Weapons[0].Crit = 0.06
	modified.Skills["smite"][0].Fields["dmg"] = []string{"18%"}
	modified.Skills["smite"][0].Effects = []string{"stun_a", "mark_enemy"}
	modified.Tags = []string{"religious", "outcast"}
	delete(modified.Other, OtherKey{Key: "deaths_door", Subkey: "recovery_buffs"})

	patch := bundle.Diff(base.ToMap(), modified.ToMap())
	require.False(t, patch.IsEmpty())

	applied := base.Clone().(*Info)
	require.NoError(t, applied.ApplyPatch(patch))

	assert.True(t, applied.ToMap().Equal(modified.ToMap()))
	assert.Equal(t, []string{"stun_a", "mark_enemy"}, applied.Skills["smite"][0].Effects)
	assert.Equal(t, []string{"religious", "outcast"}, applied.Tags)
}

func TestApplyPatchRejectsUnknownPath(t *testing.T) {
	info := parseSample(t)

	var patch bundle.Patch
	patch.Put(bundle.P("quirks", "kleptomania"), bundle.Set(bundle.Bool(true)))

	err := info.ApplyPatch(patch)
	var applyErr *bundle.ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, bundle.P("quirks", "kleptomania"), applyErr.Path)
}

func TestApplyPatchRejectsKindMismatch(t *testing.T) {
	info := parseSample(t)

	var patch bundle.Patch
	patch.Put(bundle.P("weapons", "0", "atk"), bundle.Set(bundle.String("lots")))

	var applyErr *bundle.ApplyError
	assert.ErrorAs(t, info.ApplyPatch(patch), &applyErr)
}

func TestCloneIsIndependent(t *testing.T) {
	info := parseSample(t)
	clone := info.Clone().(*Info)

	clone.Resistances["stun"] = 0.9
	clone.Skills["smite"][0].Effects[0] = "changed"
	clone.Tags[0] = "changed"

	assert.InDelta(t, 0.4, info.Resistances["stun"], 1e-6)
	assert.Equal(t, "stun_a", info.Skills["smite"][0].Effects[0])
	assert.Equal(t, "religious", info.Tags[0])
}

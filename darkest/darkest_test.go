package darkest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `// Crusader definition
resistances: .stun 40% .poison 30%

combat_skill: .id "smite" .level 0 .dmg 15% .effect "Stun 1" "Mark 2"
combat_skill: .id "smite" .level 1
	.dmg 20%
tag: .id "light"
`

func TestParse(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, "resistances", entries[0].Key)
	stun, ok := entries[0].Entry.Get("stun")
	require.True(t, ok)
	assert.Equal(t, []string{"40%"}, stun)

	assert.Equal(t, "combat_skill", entries[1].Key)
	id, ok := entries[1].Entry.First("id")
	require.True(t, ok)
	assert.Equal(t, "smite", id)
	effects, ok := entries[1].Entry.Get("effect")
	require.True(t, ok)
	assert.Equal(t, []string{"Stun 1", "Mark 2"}, effects)

	// An entry continues across lines until the next key token.
	dmg, ok := entries[2].Entry.First("dmg")
	require.True(t, ok)
	assert.Equal(t, "20%", dmg)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(strings.NewReader(".id orphan"))
	assert.Error(t, err)

	_, err = Parse(strings.NewReader("key: dangling"))
	assert.Error(t, err)
}

func TestParseValues(t *testing.T) {
	values := ParseValues(`"Stun 1" "Mark 2" bare`)
	assert.Equal(t, []string{"Stun 1", "Mark 2", "bare"}, values)
}

func TestFormatRoundTrip(t *testing.T) {
	entries, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	var sb strings.Builder
	for _, e := range entries {
		entry := e.Entry
		require.NoError(t, WriteEntry(&sb, e.Key, &entry))
	}

	again, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, entries, again)
}

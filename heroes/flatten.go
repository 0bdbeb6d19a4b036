package heroes

import (
	"strconv"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/darkest"
)

// extendAt merges sub into m under a multi-segment prefix.
func extendAt(m *bundle.DataMap, prefix bundle.Path, sub bundle.DataMap) {
	for _, e := range sub.Entries() {
		path := make(bundle.Path, 0, len(prefix)+len(e.Path))
		path = append(append(path, prefix...), e.Path...)
		m.Put(path, e.Value)
	}
}

// skillMap flattens one skill level: the effect steps as an ordered chain
// under "effects", every other field as its canonical value-list string.
func skillMap(s *Skill) bundle.DataMap {
	var m bundle.DataMap
	m.ExtendPrefixed("effects", bundle.ChainMap(s.Effects))
	for field, values := range s.Fields {
		m.Put(bundle.P(field), bundle.String(darkest.FormatValues(values)))
	}
	return m
}

// ToMap flattens the hero into its canonical path-keyed form. Ordered
// collections (effect steps, tags, stack limits) are encoded as successor
// chains so independent insertions from different mods merge cleanly;
// everything else is a scalar at a fixed path.
func (h *Info) ToMap() bundle.DataMap {
	var m bundle.DataMap
	for name, v := range h.Resistances {
		m.Put(bundle.P("resistances", name), bundle.Float(v))
	}
	for i := range h.Weapons {
		w := &h.Weapons[i]
		tier := strconv.Itoa(i)
		m.Put(bundle.P("weapons", tier, "atk"), bundle.Float(w.Atk))
		m.Put(bundle.P("weapons", tier, "dmg_low"), bundle.Int(w.DmgLow))
		m.Put(bundle.P("weapons", tier, "dmg_high"), bundle.Int(w.DmgHigh))
		m.Put(bundle.P("weapons", tier, "crit"), bundle.Float(w.Crit))
		m.Put(bundle.P("weapons", tier, "spd"), bundle.Int(w.Spd))
	}
	for i := range h.Armours {
		a := &h.Armours[i]
		tier := strconv.Itoa(i)
		m.Put(bundle.P("armours", tier, "def"), bundle.Float(a.Def))
		m.Put(bundle.P("armours", tier, "prot"), bundle.Float(a.Prot))
		m.Put(bundle.P("armours", tier, "hp"), bundle.Int(a.HP))
		m.Put(bundle.P("armours", tier, "spd"), bundle.Int(a.Spd))
	}
	for id, levels := range h.Skills {
		for level, skill := range levels {
			extendAt(&m, bundle.P("skills", id, strconv.Itoa(level)), skillMap(skill))
		}
	}
	if h.Riposte != nil {
		extendAt(&m, bundle.P("riposte"), skillMap(h.Riposte))
	}
	if h.MoveSkill != nil {
		extendAt(&m, bundle.P("move"), skillMap(h.MoveSkill))
	}
	extendAt(&m, bundle.P("tags"), bundle.ChainMap(h.Tags))
	extendAt(&m, bundle.P("extra_stack"), bundle.ChainMap(h.ExtraStack))
	for k, values := range h.Other {
		m.Put(bundle.P("other", k.Key, k.Subkey), bundle.String(darkest.FormatValues(values)))
	}
	return m
}

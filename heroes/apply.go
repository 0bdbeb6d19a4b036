package heroes

import (
	"sort"
	"strconv"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/darkest"
)

// chainEdit accumulates the fact changes aimed at one ordered collection so
// they can be replayed against the concrete list in a single pass.
type chainEdit struct {
	entries []bundle.PatchEntry
	get     func() []string
	set     func([]string)
	clear   func()
}

func badPath(path bundle.Path, reason string) error {
	return &bundle.ApplyError{Path: path, Reason: reason}
}

func (h *Info) skillAt(id string, level int) *Skill {
	if h.Skills == nil {
		h.Skills = make(map[string]map[int]*Skill)
	}
	if h.Skills[id] == nil {
		h.Skills[id] = make(map[int]*Skill)
	}
	if h.Skills[id][level] == nil {
		h.Skills[id][level] = &Skill{Fields: make(map[string][]string)}
	}
	return h.Skills[id][level]
}

func (h *Info) applyWeapon(path bundle.Path, change bundle.Change) error {
	if len(path) != 3 {
		return badPath(path, "weapon fields live at weapons/<tier>/<field>")
	}
	if change.Op == bundle.OpRemove {
		return badPath(path, "weapon fields cannot be removed")
	}
	tier, err := strconv.Atoi(path[1])
	if err != nil || tier < 0 || tier >= len(h.Weapons) {
		return badPath(path, "weapon tier out of range")
	}
	w := &h.Weapons[tier]
	switch path[2] {
	case "atk", "crit":
		f, ok := change.Value.FloatVal()
		if !ok {
			return badPath(path, "expected a float value")
		}
		if path[2] == "atk" {
			w.Atk = f
		} else {
			w.Crit = f
		}
	case "dmg_low", "dmg_high", "spd":
		i, ok := change.Value.IntVal()
		if !ok {
			return badPath(path, "expected an int value")
		}
		switch path[2] {
		case "dmg_low":
			w.DmgLow = i
		case "dmg_high":
			w.DmgHigh = i
		default:
			w.Spd = i
		}
	default:
		return badPath(path, "unknown weapon field")
	}
	return nil
}

func (h *Info) applyArmour(path bundle.Path, change bundle.Change) error {
	if len(path) != 3 {
		return badPath(path, "armour fields live at armours/<tier>/<field>")
	}
	if change.Op == bundle.OpRemove {
		return badPath(path, "armour fields cannot be removed")
	}
	tier, err := strconv.Atoi(path[1])
	if err != nil || tier < 0 || tier >= len(h.Armours) {
		return badPath(path, "armour tier out of range")
	}
	a := &h.Armours[tier]
	switch path[2] {
	case "def", "prot":
		f, ok := change.Value.FloatVal()
		if !ok {
			return badPath(path, "expected a float value")
		}
		if path[2] == "def" {
			a.Def = f
		} else {
			a.Prot = f
		}
	case "hp", "spd":
		i, ok := change.Value.IntVal()
		if !ok {
			return badPath(path, "expected an int value")
		}
		if path[2] == "hp" {
			a.HP = i
		} else {
			a.Spd = i
		}
	default:
		return badPath(path, "unknown armour field")
	}
	return nil
}

// ApplyPatch mutates the hero path by path. Scalar paths are dispatched
// directly; chain facts are collected per collection and replayed once, so a
// patch that rewires several successor facts is applied atomically.
func (h *Info) ApplyPatch(patch bundle.Patch) error {
	chains := make(map[string]*chainEdit)
	addChain := func(key string, rel bundle.Path, change bundle.Change, build func() *chainEdit) {
		ce, ok := chains[key]
		if !ok {
			ce = build()
			chains[key] = ce
		}
		relCopy := append(bundle.Path{}, rel...)
		ce.entries = append(ce.entries, bundle.PatchEntry{Path: relCopy, Change: change})
	}

	for _, e := range patch.Entries() {
		if len(e.Path) == 0 {
			return badPath(e.Path, "empty path")
		}
		switch e.Path[0] {
		case "resistances":
			if len(e.Path) != 2 {
				return badPath(e.Path, "resistances live at resistances/<name>")
			}
			if e.Change.Op == bundle.OpRemove {
				delete(h.Resistances, e.Path[1])
				continue
			}
			f, ok := e.Change.Value.FloatVal()
			if !ok {
				return badPath(e.Path, "expected a float value")
			}
			if h.Resistances == nil {
				h.Resistances = make(map[string]float32)
			}
			h.Resistances[e.Path[1]] = f

		case "weapons":
			if err := h.applyWeapon(e.Path, e.Change); err != nil {
				return err
			}

		case "armours":
			if err := h.applyArmour(e.Path, e.Change); err != nil {
				return err
			}

		case "skills":
			if len(e.Path) < 4 {
				return badPath(e.Path, "skill fields live at skills/<id>/<level>/<field>")
			}
			id := e.Path[1]
			level, err := strconv.Atoi(e.Path[2])
			if err != nil || level < 0 || level >= SkillLevels {
				return badPath(e.Path, "skill level out of range")
			}
			if e.Path[3] == "effects" {
				key := "skills/" + id + "/" + e.Path[2] + "/effects"
				addChain(key, e.Path[4:], e.Change, func() *chainEdit {
					return &chainEdit{
						get: func() []string {
							if s := h.Skills[id][level]; s != nil {
								return s.Effects
							}
							return nil
						},
						set:   func(list []string) { h.skillAt(id, level).Effects = list },
						clear: func() { h.removeSkillEffects(id, level) },
					}
				})
				continue
			}
			if len(e.Path) != 4 {
				return badPath(e.Path, "unknown skill field path")
			}
			field := e.Path[3]
			if e.Change.Op == bundle.OpRemove {
				if s := h.Skills[id][level]; s != nil {
					delete(s.Fields, field)
				}
				continue
			}
			s, ok := e.Change.Value.StringVal()
			if !ok {
				return badPath(e.Path, "expected a string value")
			}
			h.skillAt(id, level).Fields[field] = darkest.ParseValues(s)

		case "riposte", "move":
			if err := h.applyAuxSkill(e, addChain); err != nil {
				return err
			}

		case "tags":
			addChain("tags", e.Path[1:], e.Change, func() *chainEdit {
				return &chainEdit{
					get:   func() []string { return h.Tags },
					set:   func(list []string) { h.Tags = list },
					clear: func() { h.Tags = nil },
				}
			})

		case "extra_stack":
			addChain("extra_stack", e.Path[1:], e.Change, func() *chainEdit {
				return &chainEdit{
					get:   func() []string { return h.ExtraStack },
					set:   func(list []string) { h.ExtraStack = list },
					clear: func() { h.ExtraStack = nil },
				}
			})

		case "other":
			if len(e.Path) != 3 {
				return badPath(e.Path, "entries live at other/<key>/<subkey>")
			}
			k := OtherKey{Key: e.Path[1], Subkey: e.Path[2]}
			if e.Change.Op == bundle.OpRemove {
				delete(h.Other, k)
				continue
			}
			s, ok := e.Change.Value.StringVal()
			if !ok {
				return badPath(e.Path, "expected a string value")
			}
			if h.Other == nil {
				h.Other = make(map[OtherKey][]string)
			}
			h.Other[k] = darkest.ParseValues(s)

		default:
			return badPath(e.Path, "unknown path")
		}
	}

	keys := make([]string, 0, len(chains))
	for key := range chains {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ce := chains[key]
		headRemoved := false
		for _, en := range ce.entries {
			if len(en.Path) == 0 && en.Change.Op == bundle.OpRemove {
				headRemoved = true
			}
		}
		if headRemoved {
			// The whole collection is gone, not shortened to nothing.
			ce.clear()
			continue
		}
		list, err := bundle.PatchChain(ce.get(), ce.entries)
		if err != nil {
			return &bundle.ChainError{Record: h.ID, Field: key, Err: err}
		}
		ce.set(list)
	}
	return nil
}

// removeSkillEffects drops a level's effect list, pruning the level and the
// skill when nothing else remains.
func (h *Info) removeSkillEffects(id string, level int) {
	s := h.Skills[id][level]
	if s == nil {
		return
	}
	s.Effects = nil
	if len(s.Fields) == 0 {
		delete(h.Skills[id], level)
		if len(h.Skills[id]) == 0 {
			delete(h.Skills, id)
		}
	}
}

func (h *Info) applyAuxSkill(e bundle.PatchEntry, addChain func(string, bundle.Path, bundle.Change, func() *chainEdit)) error {
	which := e.Path[0]
	slot := &h.Riposte
	if which == "move" {
		slot = &h.MoveSkill
	}
	if len(e.Path) < 2 {
		return badPath(e.Path, "skill fields live at "+which+"/<field>")
	}
	if e.Path[1] == "effects" {
		addChain(which+"/effects", e.Path[2:], e.Change, func() *chainEdit {
			return &chainEdit{
				get: func() []string {
					if *slot != nil {
						return (*slot).Effects
					}
					return nil
				},
				set: func(list []string) {
					if *slot == nil {
						*slot = &Skill{Fields: make(map[string][]string)}
					}
					(*slot).Effects = list
				},
				clear: func() {
					if *slot != nil && len((*slot).Fields) == 0 {
						*slot = nil
					} else if *slot != nil {
						(*slot).Effects = nil
					}
				},
			}
		})
		return nil
	}
	if len(e.Path) != 2 {
		return badPath(e.Path, "unknown skill field path")
	}
	field := e.Path[1]
	if e.Change.Op == bundle.OpRemove {
		if *slot != nil {
			delete((*slot).Fields, field)
		}
		return nil
	}
	s, ok := e.Change.Value.StringVal()
	if !ok {
		return badPath(e.Path, "expected a string value")
	}
	if *slot == nil {
		*slot = &Skill{Fields: make(map[string][]string)}
	}
	(*slot).Fields[field] = darkest.ParseValues(s)
	return nil
}

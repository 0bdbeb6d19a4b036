// Package heroes implements the hero info record type: parsing and writing
// *.info.darkest files, flattening them into canonical maps, and the
// skill-grouped merge and resolution rules that treat all five levels of a
// skill field as one decision.
package heroes

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/darkest"
)

// SkillLevels is how many upgrade levels every combat skill has.
const SkillLevels = 5

// resistanceNames is the deploy order of the resistances line.
var resistanceNames = []string{
	"stun", "poison", "bleed", "disease", "move", "debuff", "deathblow", "trap",
}

// OtherKey addresses a catch-all entry the hero model has no dedicated
// field for: the entry key plus one of its subkeys.
type OtherKey struct {
	Key    string
	Subkey string
}

// Skill is one level of a combat skill: its ordered effect steps plus the
// remaining scalar fields, each kept as its raw value tokens.
type Skill struct {
	Effects []string
	Fields  map[string][]string
}

// Weapon is one of the five upgrade tiers of a hero's weapon.
type Weapon struct {
	Atk     float32
	DmgLow  int32
	DmgHigh int32
	Crit    float32
	Spd     int32
}

// Armour is one of the five upgrade tiers of a hero's armour.
type Armour struct {
	Def  float32
	Prot float32
	HP   int32
	Spd  int32
}

// Info is one hero's full definition from a *.info.darkest file.
type Info struct {
	ID          string
	Resistances map[string]float32
	Weapons     [5]Weapon
	Armours     [5]Armour
	Skills      map[string]map[int]*Skill // skill id -> level -> skill
	Riposte     *Skill
	MoveSkill   *Skill
	Tags        []string
	ExtraStack  []string
	Other       map[OtherKey][]string
}

func parsePercent(token string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(token, "%"), 32)
	if err != nil {
		return 0, fmt.Errorf("parsing percent %q: %w", token, err)
	}
	if strings.HasSuffix(token, "%") {
		f /= 100
	}
	return float32(f), nil
}

func percentString(v float32) string {
	p := math.Round(float64(v)*10000) / 100
	return strconv.FormatFloat(p, 'g', -1, 64) + "%"
}

func parseInt(token string) (int32, error) {
	i, err := strconv.ParseInt(token, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing integer %q: %w", token, err)
	}
	return int32(i), nil
}

func firstDuplicate(values []string) (string, bool) {
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			return v, true
		}
		seen[v] = true
	}
	return "", false
}

func parseWeapon(entry *darkest.Entry) (Weapon, error) {
	var w Weapon
	var err error
	if tok, ok := entry.First("atk"); ok {
		if w.Atk, err = parsePercent(tok); err != nil {
			return w, err
		}
	}
	if values, ok := entry.Get("dmg"); ok && len(values) == 2 {
		if w.DmgLow, err = parseInt(values[0]); err != nil {
			return w, err
		}
		if w.DmgHigh, err = parseInt(values[1]); err != nil {
			return w, err
		}
	}
	if tok, ok := entry.First("crit"); ok {
		if w.Crit, err = parsePercent(tok); err != nil {
			return w, err
		}
	}
	if tok, ok := entry.First("spd"); ok {
		if w.Spd, err = parseInt(tok); err != nil {
			return w, err
		}
	}
	return w, nil
}

func parseArmour(entry *darkest.Entry) (Armour, error) {
	var a Armour
	var err error
	if tok, ok := entry.First("def"); ok {
		if a.Def, err = parsePercent(tok); err != nil {
			return a, err
		}
	}
	if tok, ok := entry.First("prot"); ok {
		f, err := strconv.ParseFloat(tok, 32)
		if err != nil {
			return a, fmt.Errorf("parsing armour prot %q: %w", tok, err)
		}
		a.Prot = float32(f)
	}
	if tok, ok := entry.First("hp"); ok {
		if a.HP, err = parseInt(tok); err != nil {
			return a, err
		}
	}
	if tok, ok := entry.First("spd"); ok {
		if a.Spd, err = parseInt(tok); err != nil {
			return a, err
		}
	}
	return a, nil
}

func parseSkill(entry *darkest.Entry) *Skill {
	skill := &Skill{Fields: make(map[string][]string)}
	for _, pair := range entry.Pairs {
		switch pair.Subkey {
		case "effect":
			skill.Effects = append(skill.Effects, pair.Values...)
		case "id", "level":
			// Implied by the skill's position in the model.
		default:
			skill.Fields[pair.Subkey] = append(skill.Fields[pair.Subkey], pair.Values...)
		}
	}
	return skill
}

// ParseInfo builds a hero record from parsed darkest entries. Keys without a
// dedicated field land in the catch-all Other table, so unknown game data
// survives a merge untouched.
func ParseInfo(id string, entries []darkest.KeyedEntry) (*Info, error) {
	info := &Info{
		ID:          id,
		Resistances: make(map[string]float32),
		Skills:      make(map[string]map[int]*Skill),
		Other:       make(map[OtherKey][]string),
	}
	weapons, armours := 0, 0

	for i := range entries {
		key, entry := entries[i].Key, &entries[i].Entry
		switch key {
		case "resistances":
			for _, pair := range entry.Pairs {
				if len(pair.Values) == 0 {
					continue
				}
				v, err := parsePercent(pair.Values[0])
				if err != nil {
					return nil, fmt.Errorf("hero %s resistances: %w", id, err)
				}
				info.Resistances[pair.Subkey] = v
			}
		case "weapon":
			if weapons >= 5 {
				return nil, fmt.Errorf("hero %s: more than five weapon entries", id)
			}
			w, err := parseWeapon(entry)
			if err != nil {
				return nil, fmt.Errorf("hero %s weapon %d: %w", id, weapons, err)
			}
			info.Weapons[weapons] = w
			weapons++
		case "armour":
			if armours >= 5 {
				return nil, fmt.Errorf("hero %s: more than five armour entries", id)
			}
			a, err := parseArmour(entry)
			if err != nil {
				return nil, fmt.Errorf("hero %s armour %d: %w", id, armours, err)
			}
			info.Armours[armours] = a
			armours++
		case "combat_skill":
			skillID, ok := entry.First("id")
			if !ok {
				return nil, fmt.Errorf("hero %s: combat_skill without id", id)
			}
			levelTok, ok := entry.First("level")
			if !ok {
				return nil, fmt.Errorf("hero %s skill %s: missing level", id, skillID)
			}
			level, err := strconv.Atoi(levelTok)
			if err != nil || level < 0 || level >= SkillLevels {
				return nil, fmt.Errorf("hero %s skill %s: bad level %q", id, skillID, levelTok)
			}
			if info.Skills[skillID] == nil {
				info.Skills[skillID] = make(map[int]*Skill)
			}
			info.Skills[skillID][level] = parseSkill(entry)
		case "riposte_skill":
			info.Riposte = parseSkill(entry)
		case "combat_move_skill":
			info.MoveSkill = parseSkill(entry)
		case "tag":
			if tag, ok := entry.First("id"); ok {
				info.Tags = append(info.Tags, tag)
			}
		case "extra_stack_limit":
			if tag, ok := entry.First("id"); ok {
				info.ExtraStack = append(info.ExtraStack, tag)
			}
		default:
			for _, pair := range entry.Pairs {
				k := OtherKey{Key: key, Subkey: pair.Subkey}
				info.Other[k] = append(info.Other[k], pair.Values...)
			}
		}
	}

	// Effect steps, tags and stack limits flatten into facts keyed by the
	// element itself, so a repeated element cannot round-trip.
	for skillID, levels := range info.Skills {
		for level, skill := range levels {
			if dup, ok := firstDuplicate(skill.Effects); ok {
				return nil, fmt.Errorf("hero %s skill %s level %d: duplicate effect %q", id, skillID, level, dup)
			}
		}
	}
	if info.Riposte != nil {
		if dup, ok := firstDuplicate(info.Riposte.Effects); ok {
			return nil, fmt.Errorf("hero %s riposte_skill: duplicate effect %q", id, dup)
		}
	}
	if info.MoveSkill != nil {
		if dup, ok := firstDuplicate(info.MoveSkill.Effects); ok {
			return nil, fmt.Errorf("hero %s combat_move_skill: duplicate effect %q", id, dup)
		}
	}
	if dup, ok := firstDuplicate(info.Tags); ok {
		return nil, fmt.Errorf("hero %s: duplicate tag %q", id, dup)
	}
	if dup, ok := firstDuplicate(info.ExtraStack); ok {
		return nil, fmt.Errorf("hero %s: duplicate extra_stack_limit %q", id, dup)
	}
	return info, nil
}

// LoadInfo reads and parses one *.info.darkest file. The hero id is the
// leading component of the file name, as the game expects.
func LoadInfo(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	id := strings.SplitN(base, ".", 2)[0]

	entries, err := darkest.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ParseInfo(id, entries)
}

func cloneSkill(s *Skill) *Skill {
	if s == nil {
		return nil
	}
	out := &Skill{
		Effects: append([]string(nil), s.Effects...),
		Fields:  make(map[string][]string, len(s.Fields)),
	}
	for k, v := range s.Fields {
		out.Fields[k] = append([]string(nil), v...)
	}
	return out
}

// Clone returns an independent deep copy of the record.
func (h *Info) Clone() bundle.Record {
	out := &Info{
		ID:          h.ID,
		Resistances: make(map[string]float32, len(h.Resistances)),
		Weapons:     h.Weapons,
		Armours:     h.Armours,
		Skills:      make(map[string]map[int]*Skill, len(h.Skills)),
		Riposte:     cloneSkill(h.Riposte),
		MoveSkill:   cloneSkill(h.MoveSkill),
		Tags:        append([]string(nil), h.Tags...),
		ExtraStack:  append([]string(nil), h.ExtraStack...),
		Other:       make(map[OtherKey][]string, len(h.Other)),
	}
	for k, v := range h.Resistances {
		out.Resistances[k] = v
	}
	for id, levels := range h.Skills {
		out.Skills[id] = make(map[int]*Skill, len(levels))
		for level, skill := range levels {
			out.Skills[id][level] = cloneSkill(skill)
		}
	}
	for k, v := range h.Other {
		out.Other[k] = append([]string(nil), v...)
	}
	return out
}

func writeSkillEntry(f *os.File, key, id string, level int, skill *Skill) error {
	entry := &darkest.Entry{}
	if id != "" {
		entry.Set("id", []string{id})
		entry.Set("level", []string{strconv.Itoa(level)})
	}
	fields := make([]string, 0, len(skill.Fields))
	for k := range skill.Fields {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	for _, k := range fields {
		entry.Set(k, skill.Fields[k])
	}
	if len(skill.Effects) > 0 {
		entry.Set("effect", skill.Effects)
	}
	return darkest.WriteEntry(f, key, entry)
}

// Deploy writes the record back out in the game's file layout: resistances,
// weapons, armours, skills grouped with a comment per skill, then the
// remaining sections.
func (h *Info) Deploy(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entry := &darkest.Entry{}
	for _, name := range resistanceNames {
		if v, ok := h.Resistances[name]; ok {
			entry.Set(name, []string{percentString(v)})
		}
	}
	// Any modded resistances outside the canonical list.
	extra := make([]string, 0)
	for name := range h.Resistances {
		known := false
		for _, n := range resistanceNames {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		entry.Set(name, []string{percentString(h.Resistances[name])})
	}
	fmt.Fprintln(f, "// Resistances")
	if err := darkest.WriteEntry(f, "resistances", entry); err != nil {
		return err
	}

	fmt.Fprintln(f, "\n// Weapons")
	for i, w := range h.Weapons {
		entry := &darkest.Entry{}
		entry.Set("name", []string{fmt.Sprintf("%s_weapon_%d", h.ID, i)})
		entry.Set("atk", []string{percentString(w.Atk)})
		entry.Set("dmg", []string{strconv.FormatInt(int64(w.DmgLow), 10), strconv.FormatInt(int64(w.DmgHigh), 10)})
		entry.Set("crit", []string{percentString(w.Crit)})
		entry.Set("spd", []string{strconv.FormatInt(int64(w.Spd), 10)})
		if i > 0 {
			entry.Set("upgradeRequirementCode", []string{strconv.Itoa(i - 1)})
		}
		if err := darkest.WriteEntry(f, "weapon", entry); err != nil {
			return err
		}
	}

	fmt.Fprintln(f, "\n// Armours")
	for i, a := range h.Armours {
		entry := &darkest.Entry{}
		entry.Set("name", []string{fmt.Sprintf("%s_armour_%d", h.ID, i)})
		entry.Set("def", []string{percentString(a.Def)})
		entry.Set("prot", []string{strconv.FormatFloat(float64(a.Prot), 'g', -1, 32)})
		entry.Set("hp", []string{strconv.FormatInt(int64(a.HP), 10)})
		entry.Set("spd", []string{strconv.FormatInt(int64(a.Spd), 10)})
		if i > 0 {
			entry.Set("upgradeRequirementCode", []string{strconv.Itoa(i - 1)})
		}
		if err := darkest.WriteEntry(f, "armour", entry); err != nil {
			return err
		}
	}

	skillIDs := make([]string, 0, len(h.Skills))
	for id := range h.Skills {
		skillIDs = append(skillIDs, id)
	}
	sort.Strings(skillIDs)
	for _, id := range skillIDs {
		fmt.Fprintf(f, "\n// Skill: %s\n", id)
		levels := h.Skills[id]
		for level := 0; level < SkillLevels; level++ {
			skill, ok := levels[level]
			if !ok {
				continue
			}
			if err := writeSkillEntry(f, "combat_skill", id, level, skill); err != nil {
				return err
			}
		}
	}

	if h.Riposte != nil {
		fmt.Fprintln(f, "\n// Riposte")
		if err := writeSkillEntry(f, "riposte_skill", "", 0, h.Riposte); err != nil {
			return err
		}
	}
	if h.MoveSkill != nil {
		fmt.Fprintln(f, "\n// Movement")
		if err := writeSkillEntry(f, "combat_move_skill", "", 0, h.MoveSkill); err != nil {
			return err
		}
	}

	if len(h.Tags) > 0 || len(h.ExtraStack) > 0 {
		fmt.Fprintln(f, "")
	}
	for _, tag := range h.Tags {
		entry := &darkest.Entry{}
		entry.Set("id", []string{tag})
		if err := darkest.WriteEntry(f, "tag", entry); err != nil {
			return err
		}
	}
	for _, tag := range h.ExtraStack {
		entry := &darkest.Entry{}
		entry.Set("id", []string{tag})
		if err := darkest.WriteEntry(f, "extra_stack_limit", entry); err != nil {
			return err
		}
	}

	otherKeys := make([]OtherKey, 0, len(h.Other))
	for k := range h.Other {
		otherKeys = append(otherKeys, k)
	}
	sort.Slice(otherKeys, func(i, j int) bool {
		if otherKeys[i].Key != otherKeys[j].Key {
			return otherKeys[i].Key < otherKeys[j].Key
		}
		return otherKeys[i].Subkey < otherKeys[j].Subkey
	})
	if len(otherKeys) > 0 {
		fmt.Fprintln(f, "")
	}
	for _, k := range otherKeys {
		entry := &darkest.Entry{}
		entry.Set(k.Subkey, h.Other[k])
		if err := darkest.WriteEntry(f, k.Key, entry); err != nil {
			return err
		}
	}
	return nil
}

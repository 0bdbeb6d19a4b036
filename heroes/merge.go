package heroes

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/darkest"
)

var _ bundle.Record = (*Info)(nil)

// groupKey names the unit a grouped conflict is decided in: a skill id (or a
// pseudo-group like "tags") plus the field within it.
type groupKey struct {
	Group string
	Field string
}

// conflictGroup maps a path to the unit it must be decided with. A skill's
// field spans all five levels; the ordered collections are single-position
// groups so their fact conflicts can be answered as whole sequences. ok is
// false for independent paths.
func conflictGroup(path bundle.Path) (groupKey, bool) {
	switch {
	case len(path) >= 4 && path[0] == "skills":
		return groupKey{Group: path[1], Field: path[3]}, true
	case len(path) >= 2 && (path[0] == "riposte" || path[0] == "move") && path[1] == "effects":
		return groupKey{Group: path[0], Field: "effects"}, true
	case len(path) >= 1 && path[0] == "tags":
		return groupKey{Group: "tags", Field: "ids"}, true
	case len(path) >= 1 && path[0] == "extra_stack":
		return groupKey{Group: "extra_stack", Field: "ids"}, true
	}
	return groupKey{}, false
}

// TryMergePatches is the per-path merge with one extra rule: a conflict
// anywhere inside a grouped field pulls every change to that group into the
// conflict set, touched by one source or not. Deciding level 3 of a skill in
// isolation from the other levels usually produces a hero nobody wrote.
func (h *Info) TryMergePatches(contributions []bundle.SourcePatch) (bundle.Patch, bundle.Conflicts) {
	grouped := bundle.GroupByPath(contributions)

	conflicted := make(map[groupKey]bool)
	for _, entry := range grouped.Entries() {
		if len(entry.Changes) == 1 || bundle.ChangesAgree(entry.Changes) {
			continue
		}
		if gk, ok := conflictGroup(entry.Path); ok {
			conflicted[gk] = true
		}
	}
	if len(conflicted) > 0 {
		log.Debug("grouped fields conflicted", "hero", h.ID, "groups", len(conflicted))
	}

	var merged bundle.Patch
	var conflicts bundle.Conflicts
	for _, entry := range grouped.Entries() {
		gk, isGrouped := conflictGroup(entry.Path)
		switch {
		case isGrouped && conflicted[gk]:
			conflicts.Add(entry.Path, entry.Changes...)
		case len(entry.Changes) == 1 || bundle.ChangesAgree(entry.Changes):
			merged.Put(entry.Path, entry.Changes[0].Change)
		default:
			conflicts.Add(entry.Path, entry.Changes...)
		}
	}
	return merged, conflicts
}

// ResolveConflicts regroups the conflict set: grouped fields go to the
// resolver as whole sequences (one line per skill level or collection),
// everything else falls back to the shared per-path loop.
func (h *Info) ResolveConflicts(resolver bundle.Resolver, conflicts bundle.Conflicts) (bundle.Patch, error) {
	var out bundle.Patch
	groups := make(map[groupKey][]bundle.ConflictEntry)
	var residual bundle.Conflicts
	for _, entry := range conflicts.Entries() {
		if gk, ok := conflictGroup(entry.Path); ok {
			groups[gk] = append(groups[gk], entry)
			continue
		}
		residual.Add(entry.Path, entry.Changes...)
	}

	keys := make([]groupKey, 0, len(groups))
	for gk := range groups {
		keys = append(keys, gk)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Group != keys[j].Group {
			return keys[i].Group < keys[j].Group
		}
		return keys[i].Field < keys[j].Field
	})
	for _, gk := range keys {
		if err := h.resolveGroup(resolver, gk, groups[gk], &out); err != nil {
			return bundle.Patch{}, err
		}
	}

	if !residual.IsEmpty() {
		patch, err := bundle.ResolvePathConflicts(h.ID, h.ToMap(), resolver, residual)
		if err != nil {
			return bundle.Patch{}, err
		}
		for _, e := range patch.Entries() {
			out.Put(e.Path, e.Change)
		}
	}
	return out, nil
}

// seqPosition is one line of a sequence conflict: the path (or chain prefix)
// it folds back to and the hero's current content there.
type seqPosition struct {
	prefix   bundle.Path
	original []string
	present  bool
}

func (h *Info) groupPositions(gk groupKey, entries []bundle.ConflictEntry) []seqPosition {
	switch gk.Group {
	case "tags":
		return []seqPosition{{prefix: bundle.P("tags"), original: h.Tags, present: true}}
	case "extra_stack":
		return []seqPosition{{prefix: bundle.P("extra_stack"), original: h.ExtraStack, present: true}}
	case "riposte", "move":
		s := h.Riposte
		if gk.Group == "move" {
			s = h.MoveSkill
		}
		var effects []string
		if s != nil {
			effects = s.Effects
		}
		return []seqPosition{{prefix: bundle.P(gk.Group, "effects"), original: effects, present: s != nil}}
	}

	levels := make(map[int]bool)
	for level := range h.Skills[gk.Group] {
		levels[level] = true
	}
	for _, e := range entries {
		if level, err := strconv.Atoi(e.Path[2]); err == nil {
			levels[level] = true
		}
	}
	ordered := make([]int, 0, len(levels))
	for level := range levels {
		ordered = append(ordered, level)
	}
	sort.Ints(ordered)

	out := make([]seqPosition, 0, len(ordered))
	for _, level := range ordered {
		skill := h.Skills[gk.Group][level]
		if gk.Field == "effects" {
			var effects []string
			if skill != nil {
				effects = skill.Effects
			}
			out = append(out, seqPosition{
				prefix:   bundle.P("skills", gk.Group, strconv.Itoa(level), "effects"),
				original: effects,
				present:  skill != nil,
			})
			continue
		}
		var values []string
		present := false
		if skill != nil {
			values, present = skill.Fields[gk.Field]
		}
		out = append(out, seqPosition{
			prefix:   bundle.P("skills", gk.Group, strconv.Itoa(level), gk.Field),
			original: values,
			present:  present,
		})
	}
	return out
}

func (h *Info) resolveGroup(resolver bundle.Resolver, gk groupKey, entries []bundle.ConflictEntry, out *bundle.Patch) error {
	positions := h.groupPositions(gk, entries)
	chain := gk.Field == "effects" || gk.Field == "ids"

	// Regroup the conflicted paths into per-source, per-position changes.
	perSource := make(map[string]map[int][]bundle.PatchEntry)
	for _, entry := range entries {
		pi := -1
		for i, pos := range positions {
			if chain && entry.Path.HasPrefix(pos.prefix...) {
				pi = i
				break
			}
			if !chain && entry.Path.Equal(pos.prefix) {
				pi = i
				break
			}
		}
		if pi < 0 {
			return fmt.Errorf("conflicted path %s has no position in group %s / %s", entry.Path, gk.Group, gk.Field)
		}
		rel := append(bundle.Path{}, entry.Path[len(positions[pi].prefix):]...)
		for _, sc := range entry.Changes {
			if perSource[sc.Source] == nil {
				perSource[sc.Source] = make(map[int][]bundle.PatchEntry)
			}
			perSource[sc.Source][pi] = append(perSource[sc.Source][pi], bundle.PatchEntry{Path: rel, Change: sc.Change})
		}
	}

	originalLines := make([]string, len(positions))
	for i, pos := range positions {
		if chain || pos.present {
			originalLines[i] = darkest.FormatValues(pos.original)
		}
	}

	sources := make([]string, 0, len(perSource))
	for source := range perSource {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	candidates := make([]bundle.SequenceCandidate, 0, len(sources))
	for _, source := range sources {
		lines := append([]string(nil), originalLines...)
		for pi, relEntries := range perSource[source] {
			if chain {
				headRemoved := false
				for _, pe := range relEntries {
					if len(pe.Path) == 0 && pe.Change.Op == bundle.OpRemove {
						headRemoved = true
					}
				}
				if headRemoved {
					lines[pi] = ""
					continue
				}
				list, err := bundle.PatchChain(positions[pi].original, relEntries)
				if err != nil {
					return &bundle.ChainError{Record: h.ID, Field: gk.Group + "/" + gk.Field, Err: err}
				}
				lines[pi] = darkest.FormatValues(list)
				continue
			}
			change := relEntries[len(relEntries)-1].Change
			if change.Op == bundle.OpRemove {
				lines[pi] = ""
				continue
			}
			s, _ := change.Value.StringVal()
			lines[pi] = s
		}
		candidates = append(candidates, bundle.SequenceCandidate{Source: source, Lines: lines})
	}

	res, err := resolver.ResolveSequence(bundle.SequenceConflict{
		RecordID:   h.ID,
		Group:      gk.Group,
		Field:      gk.Field,
		Original:   originalLines,
		Candidates: candidates,
	})
	if err != nil {
		return err
	}

	if res.Remove {
		for _, pos := range positions {
			if chain {
				for _, fe := range bundle.ChainMap(pos.original).Entries() {
					abs := append(append(bundle.Path{}, pos.prefix...), fe.Path...)
					out.Put(abs, bundle.Removed())
				}
			} else if pos.present {
				out.Put(pos.prefix, bundle.Removed())
			}
		}
		return nil
	}

	if len(res.Lines) != len(positions) {
		return fmt.Errorf("sequence resolution for %s / %s has %d lines, want %d", gk.Group, gk.Field, len(res.Lines), len(positions))
	}
	for i, pos := range positions {
		line := strings.TrimSpace(res.Lines[i])
		if chain {
			target := darkest.ParseValues(line)
			if dup, ok := firstDuplicate(target); ok {
				return fmt.Errorf("sequence resolution for %s / %s repeats %q", gk.Group, gk.Field, dup)
			}
			diff := bundle.Diff(bundle.ChainMap(pos.original), bundle.ChainMap(target))
			for _, pe := range diff.Entries() {
				abs := append(append(bundle.Path{}, pos.prefix...), pe.Path...)
				out.Put(abs, pe.Change)
			}
			continue
		}
		if line == "" {
			if pos.present {
				out.Put(pos.prefix, bundle.Removed())
			}
			continue
		}
		canonical := darkest.FormatValues(darkest.ParseValues(line))
		out.Put(pos.prefix, bundle.Set(bundle.String(canonical)))
	}
	return nil
}

// Package localization implements per-language string tables: the XML
// round-trip and the removal-wary merge rule that never drops a translated
// string without asking.
package localization

import (
	"github.com/charmbracelet/log"

	"github.com/duskward/modbundle/bundle"
)

var _ bundle.Record = (*Table)(nil)

// Table is one localization file: language id -> entry id -> text.
type Table struct {
	ID        string
	Languages map[string]map[string]string
}

// New returns an empty table for the given file id.
func New(id string) *Table {
	return &Table{ID: id, Languages: make(map[string]map[string]string)}
}

// Set stores one entry, creating the language on first use.
func (t *Table) Set(language, entry, text string) {
	if t.Languages == nil {
		t.Languages = make(map[string]map[string]string)
	}
	if t.Languages[language] == nil {
		t.Languages[language] = make(map[string]string)
	}
	t.Languages[language][entry] = text
}

// Get returns the text of one entry.
func (t *Table) Get(language, entry string) (string, bool) {
	text, ok := t.Languages[language][entry]
	return text, ok
}

// ToMap flattens the table: every entry lives at [language, entry id].
func (t *Table) ToMap() bundle.DataMap {
	var m bundle.DataMap
	for language, entries := range t.Languages {
		for entry, text := range entries {
			m.Put(bundle.P(language, entry), bundle.String(text))
		}
	}
	return m
}

// Clone returns an independent deep copy.
func (t *Table) Clone() bundle.Record {
	out := New(t.ID)
	for language, entries := range t.Languages {
		for entry, text := range entries {
			out.Set(language, entry, text)
		}
	}
	return out
}

// ApplyPatch mutates the table path by path. Languages emptied by removals
// are pruned so the deployed file has no hollow sections.
func (t *Table) ApplyPatch(patch bundle.Patch) error {
	for _, e := range patch.Entries() {
		if len(e.Path) != 2 {
			return &bundle.ApplyError{Path: e.Path, Reason: "entries live at <language>/<entry id>"}
		}
		language, entry := e.Path[0], e.Path[1]
		if e.Change.Op == bundle.OpRemove {
			delete(t.Languages[language], entry)
			if len(t.Languages[language]) == 0 {
				delete(t.Languages, language)
			}
			continue
		}
		text, ok := e.Change.Value.StringVal()
		if !ok {
			return &bundle.ApplyError{Path: e.Path, Reason: "expected a string value"}
		}
		t.Set(language, entry, text)
	}
	return nil
}

// TryMergePatches is the per-path merge with the removal-wary rule: a path
// with several identical sets auto-merges as usual, but any removal mixed
// into a multi-source path raises a conflict, even when every source removes.
// A dropped string is cheap to re-add and expensive to re-translate, so the
// table never discards one on a majority.
func (t *Table) TryMergePatches(contributions []bundle.SourcePatch) (bundle.Patch, bundle.Conflicts) {
	var merged bundle.Patch
	var conflicts bundle.Conflicts
	for _, entry := range bundle.GroupByPath(contributions).Entries() {
		if len(entry.Changes) == 1 {
			merged.Put(entry.Path, entry.Changes[0].Change)
			continue
		}
		anyRemoval := false
		for _, sc := range entry.Changes {
			if sc.Change.Op == bundle.OpRemove {
				anyRemoval = true
				break
			}
		}
		if !anyRemoval && bundle.ChangesAgree(entry.Changes) {
			merged.Put(entry.Path, entry.Changes[0].Change)
			continue
		}
		if anyRemoval {
			log.Debug("removal contested", "table", t.ID, "path", entry.Path)
		}
		conflicts.Add(entry.Path, entry.Changes...)
	}
	return merged, conflicts
}

// ResolveConflicts puts every conflicted entry to the resolver on its own;
// string tables have no coarser conflict unit.
func (t *Table) ResolveConflicts(resolver bundle.Resolver, conflicts bundle.Conflicts) (bundle.Patch, error) {
	return bundle.ResolvePathConflicts(t.ID, t.ToMap(), resolver, conflicts)
}

package bundle

import (
	"fmt"
	"sort"
)

// ValueConflict is a single-path conflict put to the resolver: the
// candidates that disagree, plus the record's current value when the path
// already exists in the baseline.
type ValueConflict struct {
	RecordID   string
	Path       Path
	Original   *Value // nil when the path is an addition
	Candidates []SourceChange
}

// SequenceCandidate is one source's proposed rendering of a grouped ordered
// sequence, one line per position. Positions the source did not touch carry
// the original rendering, so every candidate is a complete sequence.
type SequenceCandidate struct {
	Source string
	Lines  []string
}

// SequenceConflict is a chain-grouped conflict: a field that must be decided
// as one unit across every position of an ordered group (e.g. all five
// levels of a skill), because mixing positions from different sources would
// usually produce an incoherent result.
type SequenceConflict struct {
	RecordID   string
	Group      string // e.g. the skill id
	Field      string // e.g. "effects" or "dmg"
	Original   []string
	Candidates []SequenceCandidate
}

// SequenceResolution is the resolver's answer to a SequenceConflict: either
// remove the whole group's field, or the chosen line per position.
type SequenceResolution struct {
	Remove bool
	Lines  []string
}

// Resolver turns conflicts into concrete decisions. The call may block
// indefinitely (a human behind a form), so implementations own any timeout
// policy; the core only requires that every conflict put in comes back
// decided. Implementations range from interactive dialogs to fixed policies
// and scripted test doubles.
type Resolver interface {
	// ChooseSource picks the winning source for a whole-file decision:
	// conflicting binary replacements, or the base among several added
	// versions of the same file.
	ChooseSource(file string, sources []string) (string, error)

	// ResolveValue decides one conflicted path.
	ResolveValue(conflict ValueConflict) (Change, error)

	// ResolveSequence decides one chain-grouped conflict as a whole.
	ResolveSequence(conflict SequenceConflict) (SequenceResolution, error)
}

var (
	_ Resolver = (*PreferLastResolver)(nil)
	_ Resolver = (*ScriptedResolver)(nil)
)

// PreferLastResolver is the deterministic no-questions policy: the
// alphabetically last source wins every decision. Useful for unattended
// runs where any consistent choice beats stopping.
type PreferLastResolver struct{}

func last(sources []string) string {
	out := ""
	for _, s := range sources {
		if s > out {
			out = s
		}
	}
	return out
}

func (PreferLastResolver) ChooseSource(file string, sources []string) (string, error) {
	if len(sources) == 0 {
		return "", fmt.Errorf("no sources to choose from for %s", file)
	}
	return last(sources), nil
}

func (PreferLastResolver) ResolveValue(conflict ValueConflict) (Change, error) {
	if len(conflict.Candidates) == 0 {
		return Change{}, fmt.Errorf("no candidates at %s", conflict.Path)
	}
	winner := conflict.Candidates[0]
	for _, sc := range conflict.Candidates[1:] {
		if sc.Source > winner.Source {
			winner = sc
		}
	}
	return winner.Change, nil
}

func (PreferLastResolver) ResolveSequence(conflict SequenceConflict) (SequenceResolution, error) {
	if len(conflict.Candidates) == 0 {
		return SequenceResolution{}, fmt.Errorf("no candidates for %s / %s", conflict.Group, conflict.Field)
	}
	winner := conflict.Candidates[0]
	for _, c := range conflict.Candidates[1:] {
		if c.Source > winner.Source {
			winner = c
		}
	}
	return SequenceResolution{Lines: winner.Lines}, nil
}

// ScriptedResolver answers from fixed tables, for tests and replayable
// runs. Every lookup that misses is an error: a scripted run must never
// guess.
type ScriptedResolver struct {
	Sources   map[string]string             // file -> winning source
	Values    map[string]Change             // path string -> change
	Sequences map[string]SequenceResolution // "group/field" -> resolution
}

func (r *ScriptedResolver) ChooseSource(file string, sources []string) (string, error) {
	choice, ok := r.Sources[file]
	if !ok {
		return "", fmt.Errorf("no scripted source choice for %s", file)
	}
	if !sort.StringsAreSorted(sources) {
		sources = append([]string(nil), sources...)
		sort.Strings(sources)
	}
	for _, s := range sources {
		if s == choice {
			return choice, nil
		}
	}
	return "", fmt.Errorf("scripted choice %q is not among the sources for %s", choice, file)
}

func (r *ScriptedResolver) ResolveValue(conflict ValueConflict) (Change, error) {
	change, ok := r.Values[conflict.Path.String()]
	if !ok {
		return Change{}, fmt.Errorf("no scripted answer for path %s", conflict.Path)
	}
	return change, nil
}

func (r *ScriptedResolver) ResolveSequence(conflict SequenceConflict) (SequenceResolution, error) {
	res, ok := r.Sequences[conflict.Group+"/"+conflict.Field]
	if !ok {
		return SequenceResolution{}, fmt.Errorf("no scripted answer for sequence %s / %s", conflict.Group, conflict.Field)
	}
	return res, nil
}

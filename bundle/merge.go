package bundle

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// SourcePatch is one source's contribution to a single file: the source
// (mod) name and its patch against the shared baseline.
type SourcePatch struct {
	Source string
	Patch  Patch
}

// GroupByPath regroups per-source patches into a per-path view: for every
// path touched by any source, the list of (source, change) pairs, ordered by
// path and by source name. Specialized mergers start from the same grouping.
func GroupByPath(contributions []SourcePatch) Conflicts {
	var grouped Conflicts
	for _, contrib := range contributions {
		for _, e := range contrib.Patch.Entries() {
			grouped.Add(e.Path, SourceChange{Source: contrib.Source, Change: e.Change})
		}
	}
	return grouped
}

// Merge combines the patches contributed by every source touching one file.
// A path touched by exactly one source is accepted unconditionally; a path
// where every source proposes the structurally identical change is accepted
// once; anything else is a genuine conflict and goes to the conflict set
// untouched. Grouping is stable, so the result does not depend on the order
// contributions are supplied in.
func Merge(contributions []SourcePatch) (Patch, Conflicts) {
	var merged Patch
	var conflicts Conflicts
	for _, entry := range GroupByPath(contributions).Entries() {
		if len(entry.Changes) == 1 || ChangesAgree(entry.Changes) {
			merged.Put(entry.Path, entry.Changes[0].Change)
			continue
		}
		log.Debug("conflicting changes", "path", entry.Path, "sources", len(entry.Changes))
		conflicts.Add(entry.Path, entry.Changes...)
	}
	return merged, conflicts
}

// MergeResolved folds a resolver's answer back into the auto-merged patch by
// re-running the merger over exactly two synthetic sources. A conflict
// surviving this pass means the resolver skipped a path; that is a defect in
// the resolver integration, not a user-facing condition.
func MergeResolved(merged, resolved Patch) (Patch, error) {
	final, leftover := Merge([]SourcePatch{
		{Source: "auto-merged", Patch: merged},
		{Source: "resolved", Patch: resolved},
	})
	if !leftover.IsEmpty() {
		return Patch{}, fmt.Errorf("%w: %d paths disagree after resolution", ErrUnresolvedConflicts, leftover.Len())
	}
	return final, nil
}

// MergeWithResolver runs the full merge flow for one record: try the
// record's merger, hand the residual conflicts to the resolver, and fold the
// answer back in.
func MergeWithResolver(record Record, resolver Resolver, contributions []SourcePatch) (Patch, error) {
	merged, conflicts := record.TryMergePatches(contributions)
	if conflicts.IsEmpty() {
		return merged, nil
	}
	log.Info("conflicts need resolution", "paths", conflicts.Len())
	resolved, err := record.ResolveConflicts(resolver, conflicts)
	if err != nil {
		return Patch{}, err
	}
	return MergeResolved(merged, resolved)
}

package bundle

// Record is the contract every mergeable structured type fulfills. The
// generic engine only ever sees a record through this interface: flattening
// into a canonical map, applying a final patch, merging per-source patches
// (possibly with type-specific conflict grouping) and turning residual
// conflicts into a resolved patch via the resolver boundary.
type Record interface {
	// ToMap flattens the record into its canonical path-keyed form.
	// Flattening is deterministic and round-trips every exposed field.
	ToMap() DataMap

	// Clone returns an independent deep copy, so patch application can
	// build a result without mutating the shared baseline.
	Clone() Record

	// ApplyPatch mutates the record path by path. A path the type does not
	// recognize is rejected with an ApplyError, never silently dropped.
	ApplyPatch(patch Patch) error

	// TryMergePatches combines per-source patches into an auto-merged
	// patch and the residual conflict set. The default rule is per-path
	// (see Merge); types override it when the natural unit of conflict is
	// coarser than one path.
	TryMergePatches(contributions []SourcePatch) (Patch, Conflicts)

	// ResolveConflicts presents the conflict set to the resolver in the
	// type's preferred grouping and returns a patch that covers every
	// conflicted path.
	ResolveConflicts(resolver Resolver, conflicts Conflicts) (Patch, error)
}

// ResolvePathConflicts is the default, ungrouped resolution loop shared by
// record types without a coarser conflict unit: every conflicted path is put
// to the resolver on its own, with the record's current value for context.
// Candidate lists that turn out to be structurally identical (possible when
// a specialized merger dragged sibling paths into a group) are folded in
// without a prompt.
func ResolvePathConflicts(recordID string, original DataMap, resolver Resolver, conflicts Conflicts) (Patch, error) {
	var out Patch
	for _, entry := range conflicts.Entries() {
		if ChangesAgree(entry.Changes) {
			out.Put(entry.Path, entry.Changes[0].Change)
			continue
		}
		conflict := ValueConflict{
			RecordID:   recordID,
			Path:       entry.Path,
			Candidates: entry.Changes,
		}
		if value, ok := original.Get(entry.Path); ok {
			conflict.Original = &value
		}
		change, err := resolver.ResolveValue(conflict)
		if err != nil {
			return Patch{}, err
		}
		out.Put(entry.Path, change)
	}
	return out, nil
}

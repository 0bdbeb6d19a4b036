package bundle

// Diff computes the minimal patch turning original into modified. Both maps
// are ordered, so this is a single linear merge-join over the two entry
// slices: values present only in modified become sets, values present only
// in original become removals, unequal values become sets, equal values emit
// nothing.
func Diff(original, modified DataMap) Patch {
	var patch Patch
	orig, mod := original.Entries(), modified.Entries()
	i, j := 0, 0
	for i < len(orig) && j < len(mod) {
		switch orig[i].Path.Compare(mod[j].Path) {
		case 0:
			if !orig[i].Value.Equal(mod[j].Value) {
				patch.Put(mod[j].Path, Set(mod[j].Value))
			}
			i++
			j++
		case -1:
			patch.Put(orig[i].Path, Removed())
			i++
		case 1:
			patch.Put(mod[j].Path, Set(mod[j].Value))
			j++
		}
	}
	for ; i < len(orig); i++ {
		patch.Put(orig[i].Path, Removed())
	}
	for ; j < len(mod); j++ {
		patch.Put(mod[j].Path, Set(mod[j].Value))
	}
	return patch
}

// Apply replays a patch onto a canonical map, returning a new map. Additions
// need no intermediate structure at this level: the map is flat.
func Apply(original DataMap, patch Patch) DataMap {
	out := original.Clone()
	for _, e := range patch.Entries() {
		switch e.Change.Op {
		case OpSet:
			out.Put(e.Path, e.Change.Value)
		case OpRemove:
			out.Delete(e.Path)
		}
	}
	return out
}

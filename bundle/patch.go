package bundle

import "sort"

// Op distinguishes the two item-change variants of a patch entry.
type Op uint8

const (
	OpSet Op = iota
	OpRemove
)

// Change is one item change: set the path to a value, or remove it.
type Change struct {
	Op    Op
	Value Value // meaningful only for OpSet
}

func Set(v Value) Change { return Change{Op: OpSet, Value: v} }
func Removed() Change    { return Change{Op: OpRemove} }

// Equal reports structural equality of two changes.
func (c Change) Equal(other Change) bool {
	if c.Op != other.Op {
		return false
	}
	if c.Op == OpRemove {
		return true
	}
	return c.Value.Equal(other.Value)
}

// String renders the change for prompts; removals render as "<REMOVED>".
func (c Change) String() string {
	if c.Op == OpRemove {
		return "<REMOVED>"
	}
	return c.Value.String()
}

// PatchEntry is one path/change pair of a patch.
type PatchEntry struct {
	Path   Path
	Change Change
}

// Patch describes the difference between two canonical maps of the same
// record: an ordered mapping from key path to an item change. The zero value
// is an empty patch.
type Patch struct {
	entries []PatchEntry
}

func (p Patch) search(path Path) (int, bool) {
	i := sort.Search(len(p.entries), func(i int) bool {
		return p.entries[i].Path.Compare(path) >= 0
	})
	return i, i < len(p.entries) && p.entries[i].Path.Equal(path)
}

// Put records the change at path; a later Put for the same path wins.
func (p *Patch) Put(path Path, change Change) {
	i, found := p.search(path)
	if found {
		p.entries[i].Change = change
		return
	}
	p.entries = append(p.entries, PatchEntry{})
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = PatchEntry{Path: path, Change: change}
}

// Get returns the change recorded at path.
func (p Patch) Get(path Path) (Change, bool) {
	i, found := p.search(path)
	if !found {
		return Change{}, false
	}
	return p.entries[i].Change, true
}

func (p Patch) Len() int      { return len(p.entries) }
func (p Patch) IsEmpty() bool { return len(p.entries) == 0 }

// Entries exposes the backing slice in path order. Callers must not mutate it.
func (p Patch) Entries() []PatchEntry { return p.entries }

// SourceChange is one source's proposed change at a conflicted path.
type SourceChange struct {
	Source string
	Change Change
}

// ChangesAgree reports whether every change in the list is structurally
// equal; several sources making the identical edit is not a conflict.
func ChangesAgree(changes []SourceChange) bool {
	for _, sc := range changes[1:] {
		if !sc.Change.Equal(changes[0].Change) {
			return false
		}
	}
	return true
}

// ConflictEntry lists the disagreeing changes recorded at one path.
type ConflictEntry struct {
	Path    Path
	Changes []SourceChange
}

// Conflicts is the conflict set produced by a merge pass: an ordered mapping
// from key path to the changes that could not be reconciled automatically.
// The zero value is an empty set.
type Conflicts struct {
	entries []ConflictEntry
}

func (c Conflicts) search(path Path) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].Path.Compare(path) >= 0
	})
	return i, i < len(c.entries) && c.entries[i].Path.Equal(path)
}

// Add appends changes to the conflict list at path, keeping the list sorted
// by source name so conflict sets are deterministic regardless of the order
// sources were supplied in.
func (c *Conflicts) Add(path Path, changes ...SourceChange) {
	i, found := c.search(path)
	if !found {
		c.entries = append(c.entries, ConflictEntry{})
		copy(c.entries[i+1:], c.entries[i:])
		c.entries[i] = ConflictEntry{Path: path}
	}
	c.entries[i].Changes = append(c.entries[i].Changes, changes...)
	sort.Slice(c.entries[i].Changes, func(a, b int) bool {
		return c.entries[i].Changes[a].Source < c.entries[i].Changes[b].Source
	})
}

// Get returns the conflicting changes recorded at path.
func (c Conflicts) Get(path Path) ([]SourceChange, bool) {
	i, found := c.search(path)
	if !found {
		return nil, false
	}
	return c.entries[i].Changes, true
}

// Remove deletes and returns the conflict list at path.
func (c *Conflicts) Remove(path Path) ([]SourceChange, bool) {
	i, found := c.search(path)
	if !found {
		return nil, false
	}
	changes := c.entries[i].Changes
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return changes, true
}

func (c Conflicts) Len() int      { return len(c.entries) }
func (c Conflicts) IsEmpty() bool { return len(c.entries) == 0 }

// Entries exposes the backing slice in path order. Callers must not mutate it.
func (c Conflicts) Entries() []ConflictEntry { return c.entries }

// Paths returns the conflicted paths in order.
func (c Conflicts) Paths() []Path {
	out := make([]Path, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Path
	}
	return out
}

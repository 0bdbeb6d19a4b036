package bundle

import "sort"

// MapEntry is one path/value pair of a canonical map.
type MapEntry struct {
	Path  Path
	Value Value
}

// DataMap is the canonical form of one structured record: an ordered mapping
// from key paths to scalar values. Flattening a record into a DataMap is the
// only way the generic engine ever observes the record's shape. The zero
// value is an empty map.
type DataMap struct {
	entries []MapEntry
}

// search returns the insertion index for path and whether it is present.
func (m DataMap) search(path Path) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Path.Compare(path) >= 0
	})
	return i, i < len(m.entries) && m.entries[i].Path.Equal(path)
}

// Put sets the value at path; a later Put for the same path wins.
func (m *DataMap) Put(path Path, value Value) {
	i, found := m.search(path)
	if found {
		m.entries[i].Value = value
		return
	}
	m.entries = append(m.entries, MapEntry{})
	copy(m.entries[i+1:], m.entries[i:])
	m.entries[i] = MapEntry{Path: path, Value: value}
}

// Get returns the value stored at path.
func (m DataMap) Get(path Path) (Value, bool) {
	i, found := m.search(path)
	if !found {
		return Value{}, false
	}
	return m.entries[i].Value, true
}

// Delete removes the entry at path, if present.
func (m *DataMap) Delete(path Path) {
	i, found := m.search(path)
	if !found {
		return
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
}

func (m DataMap) Len() int { return len(m.entries) }

// Entries exposes the backing slice in path order. Callers must not mutate it.
func (m DataMap) Entries() []MapEntry { return m.entries }

// Clone returns an independent copy.
func (m DataMap) Clone() DataMap {
	out := DataMap{entries: make([]MapEntry, len(m.entries))}
	copy(out.entries, m.entries)
	return out
}

// ExtendPrefixed merges every entry of other into m, with one extra leading
// segment. This is how record types compose their sub-structures into one
// flat map.
func (m *DataMap) ExtendPrefixed(prefix string, other DataMap) {
	for _, e := range other.entries {
		m.Put(e.Path.Prefixed(prefix), e.Value)
	}
}

// At returns the sub-map under the given prefix, with the prefix stripped
// from every path. The head fact of an embedded chain comes out with an
// empty path.
func (m DataMap) At(prefix ...string) DataMap {
	var out DataMap
	for _, e := range m.entries {
		if e.Path.HasPrefix(prefix...) {
			rest := make(Path, len(e.Path)-len(prefix))
			copy(rest, e.Path[len(prefix):])
			out.Put(rest, e.Value)
		}
	}
	return out
}

// Equal reports whether two canonical maps hold exactly the same entries.
func (m DataMap) Equal(other DataMap) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for i, e := range m.entries {
		o := other.entries[i]
		if !e.Path.Equal(o.Path) || !e.Value.Equal(o.Value) {
			return false
		}
	}
	return true
}

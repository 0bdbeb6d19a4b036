package bundle

import "strings"

// Path addresses one location inside a flattened record: an ordered sequence
// of key segments, e.g. ["weapons", "2", "crit"]. Paths order
// lexicographically over segments, which the differ's merge-join depends on.
// Paths are never compared through their joined string form.
type Path []string

// P is a convenience constructor for literal paths.
func P(segments ...string) Path { return Path(segments) }

// Compare orders paths lexicographically segment by segment; a proper
// prefix sorts before any of its extensions.
func (p Path) Compare(other Path) int {
	for i := 0; i < len(p) && i < len(other); i++ {
		if c := strings.Compare(p[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

func (p Path) Equal(other Path) bool { return p.Compare(other) == 0 }

// HasPrefix reports whether p starts with the given segments.
func (p Path) HasPrefix(prefix ...string) bool {
	if len(p) < len(prefix) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// Child returns a copy of p with extra segments appended. The receiver is
// never aliased, so stored paths stay immutable.
func (p Path) Child(segments ...string) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	out = append(out, segments...)
	return out
}

// Prefixed returns the path with one segment prepended.
func (p Path) Prefixed(segment string) Path {
	out := make(Path, 0, len(p)+1)
	out = append(out, segment)
	out = append(out, p...)
	return out
}

// String renders the path for logs and prompts.
func (p Path) String() string { return strings.Join(p, " / ") }

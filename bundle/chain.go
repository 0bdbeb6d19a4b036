package bundle

import "fmt"

// ChainMap encodes an ordered list of strings as independent
// predecessor-to-successor facts. The head fact sits at the empty path and
// names the first element; every element's own fact names the one after it,
// with an end marker on the last. Two sources inserting at different points
// touch different keys and merge automatically; inserting at the same point
// collides on the shared predecessor and is reported as a conflict.
//
// Facts are keyed by the element itself, so the list must not repeat an
// element; callers reject duplicates before encoding.
func ChainMap(list []string) DataMap {
	var out DataMap
	if len(list) == 0 {
		out.Put(Path{}, NextEnd())
		return out
	}
	out.Put(Path{}, Next(list[0]))
	for i, elem := range list {
		if i+1 < len(list) {
			out.Put(P(elem), Next(list[i+1]))
		} else {
			out.Put(P(elem), NextEnd())
		}
	}
	return out
}

// DecodeChain walks a fact map from the head until the end marker. It fails
// loudly on a missing head, a dangling successor or a cycle, since any of
// those means an unresolved or corrupted merge rather than a shorter list.
func DecodeChain(m DataMap) ([]string, error) {
	head, ok := m.Get(Path{})
	if !ok {
		return nil, ErrChainNoHead
	}
	if head.Kind() != KindNext {
		return nil, fmt.Errorf("%w: head fact is a %s value", ErrChainNoHead, head.Kind())
	}

	out := make([]string, 0, m.Len())
	seen := make(map[string]bool, m.Len())
	cur, more := head.NextTarget()
	for more {
		if seen[cur] {
			return nil, fmt.Errorf("%w: %q revisited", ErrChainCycle, cur)
		}
		seen[cur] = true
		out = append(out, cur)

		fact, ok := m.Get(P(cur))
		if !ok {
			return nil, fmt.Errorf("%w: no successor fact for %q", ErrChainBroken, cur)
		}
		if fact.Kind() != KindNext {
			return nil, fmt.Errorf("%w: fact for %q is a %s value", ErrChainBroken, cur, fact.Kind())
		}
		cur, more = fact.NextTarget()
	}
	return out, nil
}

// PatchChain applies chain-fact changes to a concrete list: the list is
// re-encoded, the entries replayed onto the facts, and the result decoded.
// The entry paths must be relative to the chain (empty path for the head).
func PatchChain(list []string, entries []PatchEntry) ([]string, error) {
	m := ChainMap(list)
	for _, e := range entries {
		switch e.Change.Op {
		case OpSet:
			if e.Change.Value.Kind() != KindNext {
				return nil, &ApplyError{Path: e.Path, Reason: fmt.Sprintf("chain fact must be a next value, got %s", e.Change.Value.Kind())}
			}
			m.Put(e.Path, e.Change.Value)
		case OpRemove:
			m.Delete(e.Path)
		}
	}
	return DecodeChain(m)
}

package bundle

import (
	"errors"
	"fmt"
)

var (
	// ErrChainNoHead means an encoded ordered list has no head fact.
	ErrChainNoHead = errors.New("chain has no head fact")
	// ErrChainCycle means an encoded ordered list loops back on itself.
	ErrChainCycle = errors.New("chain contains a cycle")
	// ErrChainBroken means a successor fact points at a missing element.
	ErrChainBroken = errors.New("chain fact missing")
	// ErrUnresolvedConflicts means the resolver's answer left a conflicted
	// path unresolved; that is a programming defect, not a data condition.
	ErrUnresolvedConflicts = errors.New("conflicts remain after resolution")
)

// ApplyError reports a structural mismatch between a patch entry and the
// record it is applied to: the path is unknown to the record type, or the
// value kind is incompatible with what lives at that path.
type ApplyError struct {
	Path   Path
	Reason string
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("cannot apply change at %s: %s", e.Path, e.Reason)
}

// ChainError wraps a malformed-chain error with the record and field it was
// found in, so data-integrity reports can name the offender.
type ChainError struct {
	Record string
	Field  string
	Err    error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("malformed chain in %s, field %s: %v", e.Record, e.Field, e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }

// Package bundle implements the structural diff/merge engine: canonical
// path-keyed maps, patches, the N-way merger, the ordered-collection codec
// and the resolver boundary that record types plug into.
package bundle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
	KindNext // successor pointer used by the ordered-collection codec
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindNext:
		return "next"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is one scalar stored in a canonical map. It is a closed set of
// variants: bool, int32, float32, string, and the "next element" pointer
// used when an ordered list is encoded as successor facts.
type Value struct {
	kind Kind
	b    bool
	i    int32
	f    float32
	s    string
	next bool // KindNext: whether a successor exists
}

func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Int(i int32) Value      { return Value{kind: KindInt, i: i} }
func Float(f float32) Value  { return Value{kind: KindFloat, f: f} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func Next(elem string) Value { return Value{kind: KindNext, s: elem, next: true} }
func NextEnd() Value         { return Value{kind: KindNext} }

func (v Value) Kind() Kind { return v.kind }

// BoolVal returns the held bool; ok is false for other kinds.
func (v Value) BoolVal() (bool, bool) { return v.b, v.kind == KindBool }

// IntVal returns the held int32; ok is false for other kinds.
func (v Value) IntVal() (int32, bool) { return v.i, v.kind == KindInt }

// FloatVal returns the held float32; ok is false for other kinds.
func (v Value) FloatVal() (float32, bool) { return v.f, v.kind == KindFloat }

// StringVal returns the held string; ok is false for other kinds.
func (v Value) StringVal() (string, bool) { return v.s, v.kind == KindString }

// NextTarget returns the successor element of a next-pointer value.
// ok is false when the value marks the end of a chain or is not KindNext.
func (v Value) NextTarget() (string, bool) { return v.s, v.kind == KindNext && v.next }

// compareFloat orders float32 totally: NaN sorts above every non-NaN value
// and two NaNs compare equal. Values must be usable as keys in ordered
// containers, so the usual partial order is not enough.
func compareFloat(a, b float32) int {
	an, bn := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Compare orders values totally: first by kind, then by payload.
func (v Value) Compare(other Value) int {
	if v.kind != other.kind {
		if v.kind < other.kind {
			return -1
		}
		return 1
	}
	switch v.kind {
	case KindBool:
		switch {
		case v.b == other.b:
			return 0
		case !v.b:
			return -1
		}
		return 1
	case KindInt:
		switch {
		case v.i < other.i:
			return -1
		case v.i > other.i:
			return 1
		}
		return 0
	case KindFloat:
		return compareFloat(v.f, other.f)
	case KindString:
		return strings.Compare(v.s, other.s)
	case KindNext:
		switch {
		case !v.next && !other.next:
			return 0
		case !v.next:
			return -1
		case !other.next:
			return 1
		}
		return strings.Compare(v.s, other.s)
	}
	return 0
}

// Equal reports structural equality; for floats it follows the same total
// order as Compare, so NaN equals NaN.
func (v Value) Equal(other Value) bool {
	return v.Compare(other) == 0
}

// String renders the value the way it appears in a resolution prompt or a
// deployed file. An end-of-chain marker renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.f), 'g', -1, 32)
	case KindString:
		return v.s
	case KindNext:
		if v.next {
			return v.s
		}
		return ""
	}
	return ""
}

// ParseAs parses input into a value of the same kind as v. It is used when
// a resolver hands back free-form text for an existing field. Next-pointer
// values cannot be parsed into; chains are resolved as whole sequences.
func (v Value) ParseAs(input string) (Value, error) {
	switch v.kind {
	case KindBool:
		b, err := strconv.ParseBool(input)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as bool: %w", input, err)
		}
		return Bool(b), nil
	case KindInt:
		i, err := strconv.ParseInt(input, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as int: %w", input, err)
		}
		return Int(int32(i)), nil
	case KindFloat:
		f, err := strconv.ParseFloat(input, 32)
		if err != nil {
			return Value{}, fmt.Errorf("parsing %q as float: %w", input, err)
		}
		return Float(float32(f)), nil
	case KindString:
		return String(input), nil
	}
	return Value{}, fmt.Errorf("cannot parse into a %s value", v.kind)
}

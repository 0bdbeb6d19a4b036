// Package darkest reads and writes the key/subkey/value text format used by
// the game's data files: entries of the form
//
//	combat_skill: .id "smite" .level 0 .dmg 15% .effect "A" "B"
//
// with // comments. An entry runs from its key token to the next key token,
// so it may span multiple lines.
package darkest

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Pair is one .subkey with its values, in file order.
type Pair struct {
	Subkey string
	Values []string
}

// Entry holds the subkey/values pairs of one keyed entry. Subkey order is
// preserved for round-tripping.
type Entry struct {
	Pairs []Pair
}

// Get returns the values of the first pair with the given subkey.
func (e *Entry) Get(subkey string) ([]string, bool) {
	for _, p := range e.Pairs {
		if p.Subkey == subkey {
			return p.Values, true
		}
	}
	return nil, false
}

// First returns the single first value of a subkey, for fields that hold
// exactly one token.
func (e *Entry) First(subkey string) (string, bool) {
	values, ok := e.Get(subkey)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// Set replaces the values of subkey, appending a new pair if absent.
func (e *Entry) Set(subkey string, values []string) {
	for i, p := range e.Pairs {
		if p.Subkey == subkey {
			e.Pairs[i].Values = values
			return
		}
	}
	e.Pairs = append(e.Pairs, Pair{Subkey: subkey, Values: values})
}

// Remove deletes the pair with the given subkey and returns its values.
func (e *Entry) Remove(subkey string) ([]string, bool) {
	for i, p := range e.Pairs {
		if p.Subkey == subkey {
			e.Pairs = append(e.Pairs[:i], e.Pairs[i+1:]...)
			return p.Values, true
		}
	}
	return nil, false
}

// KeyedEntry is one top-level entry: the key before the colon plus its pairs.
type KeyedEntry struct {
	Key   string
	Entry Entry
}

// tokenize splits one line into tokens, honoring double quotes and
// stripping // comments. Quotes group tokens but are not kept.
func tokenize(line string) []string {
	var out []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes {
				// Empty quoted strings still count as a token.
				out = append(out, cur.String())
				cur.Reset()
			}
			inQuotes = !inQuotes
		case inQuotes:
			cur.WriteByte(c)
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			flush()
			return out
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// ParseValues tokenizes a bare value list (no keys or subkeys), as typed by
// a user when resolving an effects sequence by hand.
func ParseValues(input string) []string {
	return tokenize(input)
}

// Parse reads a whole darkest file into its keyed entries.
func Parse(r io.Reader) ([]KeyedEntry, error) {
	var out []KeyedEntry
	var cur *KeyedEntry

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		for _, token := range tokenize(scanner.Text()) {
			switch {
			case strings.HasSuffix(token, ":") && len(token) > 1:
				out = append(out, KeyedEntry{Key: strings.TrimSuffix(token, ":")})
				cur = &out[len(out)-1]
			case strings.HasPrefix(token, ".") && len(token) > 1:
				if cur == nil {
					return nil, fmt.Errorf("line %d: subkey %q before any entry key", lineno, token)
				}
				cur.Entry.Pairs = append(cur.Entry.Pairs, Pair{Subkey: strings.TrimPrefix(token, ".")})
			default:
				if cur == nil {
					return nil, fmt.Errorf("line %d: value %q before any entry key", lineno, token)
				}
				if len(cur.Entry.Pairs) == 0 {
					return nil, fmt.Errorf("line %d: value %q before any subkey", lineno, token)
				}
				pair := &cur.Entry.Pairs[len(cur.Entry.Pairs)-1]
				pair.Values = append(pair.Values, token)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading darkest data: %w", err)
	}
	return out, nil
}

// quote wraps a value in double quotes when it would not survive
// tokenization as a single bare token.
func quote(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\"") {
		return `"` + strings.ReplaceAll(value, `"`, "") + `"`
	}
	return value
}

// FormatValues renders a bare value list the way ParseValues reads it back.
func FormatValues(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = quote(v)
	}
	return strings.Join(parts, " ")
}

// Format renders one pair list in deploy style: `.sub v1 v2 .sub2 v3`.
func (e *Entry) Format() string {
	var parts []string
	for _, p := range e.Pairs {
		parts = append(parts, "."+p.Subkey)
		for _, v := range p.Values {
			parts = append(parts, quote(v))
		}
	}
	return strings.Join(parts, " ")
}

// WriteEntry writes one keyed entry as a single line.
func WriteEntry(w io.Writer, key string, entry *Entry) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", key, entry.Format())
	return err
}

// Package mods ties the engine to the filesystem: loading the baseline and
// the selected mods, classifying each mod file as binary, added or modified,
// running the per-file merge pipeline and deploying the bundled result.
package mods

import (
	"github.com/duskward/modbundle/bundle"
)

// Structured is a mergeable record that can be written back to disk.
type Structured interface {
	bundle.Record
	Deploy(path string) error
}

// Item is one file of a data tree: either an opaque binary (identified by
// the path it would be copied from) or a parsed structured record. Exactly
// one of the two is set.
type Item struct {
	Binary     string
	Structured Structured
}

func BinaryItem(source string) Item    { return Item{Binary: source} }
func StructuredItem(r Structured) Item { return Item{Structured: r} }
func (i Item) IsBinary() bool          { return i.Structured == nil }

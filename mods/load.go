package mods

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/heroes"
	"github.com/duskward/modbundle/localization"
)

// loadItem parses one file by its name. Hero infos and string tables are the
// structured kinds; everything else is opaque and copied as-is.
func loadItem(path, rel string) (Item, error) {
	switch {
	case strings.HasSuffix(rel, ".info.darkest"):
		info, err := heroes.LoadInfo(path)
		if err != nil {
			return Item{}, err
		}
		return StructuredItem(info), nil
	case strings.HasSuffix(rel, ".string_table.xml"):
		table, err := localization.Load(path)
		if err != nil {
			return Item{}, err
		}
		return StructuredItem(table), nil
	default:
		return BinaryItem(path), nil
	}
}

// LoadTree reads a data tree (the baseline or one mod) into items keyed by
// slash-separated relative path. Files that fail to parse are reported per
// file, not fatally.
func LoadTree(dir string) (map[string]Item, []*FileError, error) {
	files := make(map[string]Item)
	var fileErrs []*FileError
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		item, err := loadItem(path, rel)
		if err != nil {
			log.Warn("skipping unreadable file", "file", rel, "err", err)
			fileErrs = append(fileErrs, &FileError{File: rel, Err: err})
			return nil
		}
		files[rel] = item
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("tree loaded", "dir", dir, "files", len(files))
	return files, fileErrs, nil
}

// Content is one mod's classified contribution: opaque replacements, files
// the baseline does not have, and patches against files it does.
type Content struct {
	Binaries map[string]string
	Added    map[string]Structured
	Modified map[string]bundle.Patch
}

// Source is one selected mod.
type Source struct {
	Name    string
	Content *Content
}

// Classify sorts a mod's files against the baseline. A file whose kind
// disagrees with the baseline's is fatal for that file and reported; the
// rest of the mod still loads.
func Classify(name string, files, baseline map[string]Item) (*Source, []*FileError) {
	content := &Content{
		Binaries: make(map[string]string),
		Added:    make(map[string]Structured),
		Modified: make(map[string]bundle.Patch),
	}
	var errs []*FileError

	ordered := make([]string, 0, len(files))
	for file := range files {
		ordered = append(ordered, file)
	}
	sort.Strings(ordered)

	for _, file := range ordered {
		item := files[file]
		base, exists := baseline[file]
		switch {
		case !exists && item.IsBinary():
			content.Binaries[file] = item.Binary
		case !exists:
			content.Added[file] = item.Structured
		case item.IsBinary() != base.IsBinary():
			got, want := "structured", "binary"
			if item.IsBinary() {
				got, want = want, got
			}
			errs = append(errs, &FileError{
				File: file,
				Mod:  name,
				Err:  &KindMismatchError{File: file, Got: got, Want: want},
			})
		case item.IsBinary():
			content.Binaries[file] = item.Binary
		default:
			patch := bundle.Diff(base.Structured.ToMap(), item.Structured.ToMap())
			if !patch.IsEmpty() {
				content.Modified[file] = patch
			}
		}
	}
	log.Info("mod classified",
		"mod", name,
		"binary", len(content.Binaries),
		"added", len(content.Added),
		"modified", len(content.Modified))
	return &Source{Name: name, Content: content}, errs
}

// LoadSource reads and classifies one mod directory.
func LoadSource(name, dir string, baseline map[string]Item) (*Source, []*FileError, error) {
	files, fileErrs, err := LoadTree(dir)
	if err != nil {
		return nil, nil, err
	}
	source, classifyErrs := Classify(name, files, baseline)
	return source, append(fileErrs, classifyErrs...), nil
}

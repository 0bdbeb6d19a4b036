package mods

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/duskward/modbundle/bundle"
)

// Result is the outcome of one pipeline run: the merged file tree (touched
// files only) and the per-file errors collected along the way.
type Result struct {
	Files  map[string]Item
	Errors []*FileError
}

// lockedResolver serializes resolver calls. Files merge in parallel but a
// human can only answer one question at a time.
type lockedResolver struct {
	mu    sync.Mutex
	inner bundle.Resolver
}

func (r *lockedResolver) ChooseSource(file string, sources []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.ChooseSource(file, sources)
}

func (r *lockedResolver) ResolveValue(conflict bundle.ValueConflict) (bundle.Change, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.ResolveValue(conflict)
}

func (r *lockedResolver) ResolveSequence(conflict bundle.SequenceConflict) (bundle.SequenceResolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.ResolveSequence(conflict)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run merges the selected mods against the baseline. Binary and added-file
// decisions come first, in deterministic file order; then every modified
// structured file merges on its own goroutine, with resolver calls
// serialized. Cancelling the context aborts the run with nothing deployed;
// per-file data errors are collected in the result instead of aborting.
func Run(ctx context.Context, baseline map[string]Item, sources []*Source, resolver bundle.Resolver) (*Result, error) {
	result := &Result{Files: make(map[string]Item)}
	locked := &lockedResolver{inner: resolver}

	ordered := make([]*Source, len(sources))
	copy(ordered, sources)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	// Opaque replacements: a single contributor wins outright, several are a
	// whole-file conflict for the resolver.
	binaries := make(map[string]map[string]string) // file -> mod -> source path
	for _, src := range ordered {
		for file, path := range src.Content.Binaries {
			if binaries[file] == nil {
				binaries[file] = make(map[string]string)
			}
			binaries[file][src.Name] = path
		}
	}
	for _, file := range sortedKeys(binaries) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		byMod := binaries[file]
		mods := sortedKeys(byMod)
		winner := mods[0]
		if len(mods) > 1 {
			log.Info("binary file contested", "file", file, "mods", len(mods))
			choice, err := locked.ChooseSource(file, mods)
			if err != nil {
				return nil, fmt.Errorf("choosing binary for %s: %w", file, err)
			}
			winner = choice
		}
		result.Files[file] = BinaryItem(byMod[winner])
	}

	// Added structured files: pick a base when several mods add the same
	// file, then treat the rest as modifications of that base.
	added := make(map[string]map[string]Structured)
	for _, src := range ordered {
		for file, record := range src.Content.Added {
			if added[file] == nil {
				added[file] = make(map[string]Structured)
			}
			added[file][src.Name] = record
		}
	}
	baseRecords := make(map[string]Structured)
	for file, item := range baseline {
		if !item.IsBinary() {
			baseRecords[file] = item.Structured
		}
	}
	contributions := make(map[string][]bundle.SourcePatch)
	for _, src := range ordered {
		for file, patch := range src.Content.Modified {
			contributions[file] = append(contributions[file], bundle.SourcePatch{Source: src.Name, Patch: patch})
		}
	}
	for _, file := range sortedKeys(added) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// A path cannot arrive as a binary from one mod and a structured
		// record from another; the file is fatal, like any kind mismatch.
		if _, isBinary := binaries[file]; isBinary {
			delete(result.Files, file)
			result.Errors = append(result.Errors, &FileError{
				File: file,
				Err:  &KindMismatchError{File: file, Got: "structured", Want: "binary"},
			})
			continue
		}
		byMod := added[file]
		mods := sortedKeys(byMod)
		winner := mods[0]
		if len(mods) > 1 {
			log.Info("added file contested", "file", file, "mods", len(mods))
			choice, err := locked.ChooseSource(file, mods)
			if err != nil {
				return nil, fmt.Errorf("choosing base for added %s: %w", file, err)
			}
			winner = choice
		}
		base := byMod[winner]
		baseRecords[file] = base
		result.Files[file] = StructuredItem(base)
		for _, mod := range mods {
			if mod == winner {
				continue
			}
			patch := bundle.Diff(base.ToMap(), byMod[mod].ToMap())
			if !patch.IsEmpty() {
				contributions[file] = append(contributions[file], bundle.SourcePatch{Source: mod, Patch: patch})
			}
		}
	}

	// Modified structured files, one goroutine per file.
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	fileFailed := func(fe *FileError) {
		mu.Lock()
		result.Errors = append(result.Errors, fe)
		mu.Unlock()
		log.Error("file failed", "file", fe.File, "err", fe.Err)
	}
	for _, file := range sortedKeys(contributions) {
		file := file
		contribs := contributions[file]
		sort.Slice(contribs, func(i, j int) bool { return contribs[i].Source < contribs[j].Source })
		base, ok := baseRecords[file]
		if !ok {
			fileFailed(&FileError{File: file, Err: fmt.Errorf("modified file missing from baseline")})
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			log.Debug("merging", "file", file, "mods", len(contribs))
			record := base.Clone().(Structured)
			final, err := bundle.MergeWithResolver(record, locked, contribs)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fileFailed(&FileError{File: file, Err: err})
				return nil
			}
			if err := record.ApplyPatch(final); err != nil {
				fileFailed(&FileError{File: file, Err: err})
				return nil
			}
			mu.Lock()
			result.Files[file] = StructuredItem(record)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Info("merge finished", "files", len(result.Files), "failed", len(result.Errors))
	return result, nil
}

// Package tui implements the interactive resolver: every conflict the engine
// cannot settle becomes a terminal form, with diff previews for sequences.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/duskward/modbundle/bundle"
)

// Sentinel option values that cannot collide with candidate indexes.
const (
	optionCustom = "custom"
	optionRemove = "remove"
)

// InteractiveResolver asks the user through huh forms. Calls block until the
// user answers, so the pipeline serializes them.
type InteractiveResolver struct{}

var _ bundle.Resolver = (*InteractiveResolver)(nil)

func (InteractiveResolver) ChooseSource(file string, sources []string) (string, error) {
	options := make([]huh.Option[string], 0, len(sources))
	for _, s := range sources {
		options = append(options, huh.NewOption(s, s))
	}

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Which mod's version of %s should win?", file)).
				Description("Several mods provide this file; pick the one to keep.").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("choosing source for %s: %w", file, err)
	}
	log.Info("source chosen", "file", file, "mod", choice)
	return choice, nil
}

// referenceValue is the value whose kind a custom input is parsed as: the
// original if the path exists, otherwise any candidate's proposed value.
func referenceValue(conflict bundle.ValueConflict) *bundle.Value {
	if conflict.Original != nil {
		return conflict.Original
	}
	for _, sc := range conflict.Candidates {
		if sc.Change.Op == bundle.OpSet {
			v := sc.Change.Value
			return &v
		}
	}
	return nil
}

func (r InteractiveResolver) ResolveValue(conflict bundle.ValueConflict) (bundle.Change, error) {
	var desc strings.Builder
	if conflict.Original != nil {
		fmt.Fprintf(&desc, "Original value: %s", conflict.Original)
	} else {
		desc.WriteString("The baseline has no value at this path.")
	}

	options := make([]huh.Option[string], 0, len(conflict.Candidates)+2)
	for i, sc := range conflict.Candidates {
		options = append(options, huh.NewOption(fmt.Sprintf("%s: %s", sc.Source, sc.Change), strconv.Itoa(i)))
	}
	options = append(options,
		huh.NewOption("Enter a custom value", optionCustom),
		huh.NewOption("Remove this entry", optionRemove),
	)

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("%s: conflicting values at %s", conflict.RecordID, conflict.Path)).
				Description(desc.String()).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return bundle.Change{}, fmt.Errorf("resolving %s: %w", conflict.Path, err)
	}

	switch choice {
	case optionRemove:
		return bundle.Removed(), nil
	case optionCustom:
		return r.customValue(conflict)
	}
	i, err := strconv.Atoi(choice)
	if err != nil || i < 0 || i >= len(conflict.Candidates) {
		return bundle.Change{}, fmt.Errorf("resolving %s: unexpected choice %q", conflict.Path, choice)
	}
	return conflict.Candidates[i].Change, nil
}

func (InteractiveResolver) customValue(conflict bundle.ValueConflict) (bundle.Change, error) {
	ref := referenceValue(conflict)
	for {
		var input string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("Value for %s", conflict.Path)).
					Value(&input),
			),
		)
		if err := form.Run(); err != nil {
			return bundle.Change{}, fmt.Errorf("resolving %s: %w", conflict.Path, err)
		}
		if ref == nil {
			return bundle.Set(bundle.String(input)), nil
		}
		value, err := ref.ParseAs(input)
		if err == nil {
			return bundle.Set(value), nil
		}
		log.Warn("value not accepted", "path", conflict.Path, "err", err)
	}
}

func sequenceText(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// candidatePreviews renders a unified diff of each candidate against the
// original, so the user sees what each mod actually changes.
func candidatePreviews(conflict bundle.SequenceConflict) string {
	var out strings.Builder
	original := sequenceText(conflict.Original)
	for _, cand := range conflict.Candidates {
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(original),
			B:        difflib.SplitLines(sequenceText(cand.Lines)),
			FromFile: "original",
			ToFile:   cand.Source,
			Context:  2,
		})
		if err != nil || diff == "" {
			continue
		}
		out.WriteString(diff)
		out.WriteString("\n")
	}
	return out.String()
}

func (r InteractiveResolver) ResolveSequence(conflict bundle.SequenceConflict) (bundle.SequenceResolution, error) {
	options := make([]huh.Option[string], 0, len(conflict.Candidates)+2)
	for i, cand := range conflict.Candidates {
		options = append(options, huh.NewOption(fmt.Sprintf("Take %s's version", cand.Source), strconv.Itoa(i)))
	}
	options = append(options,
		huh.NewOption("Edit the sequence by hand", optionCustom),
		huh.NewOption("Remove this field everywhere", optionRemove),
	)

	var choice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("%s: conflicting sequence %s / %s", conflict.RecordID, conflict.Group, conflict.Field)).
				Description(candidatePreviews(conflict)).
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return bundle.SequenceResolution{}, fmt.Errorf("resolving %s / %s: %w", conflict.Group, conflict.Field, err)
	}

	switch choice {
	case optionRemove:
		return bundle.SequenceResolution{Remove: true}, nil
	case optionCustom:
		return r.customSequence(conflict)
	}
	i, err := strconv.Atoi(choice)
	if err != nil || i < 0 || i >= len(conflict.Candidates) {
		return bundle.SequenceResolution{}, fmt.Errorf("resolving %s / %s: unexpected choice %q", conflict.Group, conflict.Field, choice)
	}
	return bundle.SequenceResolution{Lines: conflict.Candidates[i].Lines}, nil
}

func (InteractiveResolver) customSequence(conflict bundle.SequenceConflict) (bundle.SequenceResolution, error) {
	want := len(conflict.Original)
	text := sequenceText(conflict.Original)
	for {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewText().
					Title(fmt.Sprintf("Sequence for %s / %s (one line per position, %d lines)", conflict.Group, conflict.Field, want)).
					Value(&text),
			),
		)
		if err := form.Run(); err != nil {
			return bundle.SequenceResolution{}, fmt.Errorf("resolving %s / %s: %w", conflict.Group, conflict.Field, err)
		}
		lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
		if len(lines) == want {
			return bundle.SequenceResolution{Lines: lines}, nil
		}
		log.Warn("sequence not accepted", "group", conflict.Group, "field", conflict.Field,
			"lines", len(lines), "want", want)
	}
}

// SelectMods asks which of the available mods to bundle.
func SelectMods(available []string) ([]string, error) {
	options := make([]huh.Option[string], 0, len(available))
	for _, name := range available {
		options = append(options, huh.NewOption(name, name))
	}

	var selected []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Select mods to bundle").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selecting mods: %w", err)
	}
	return selected, nil
}

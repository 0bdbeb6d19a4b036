// Command modbundle merges a set of mods against a shared game baseline and
// deploys the bundled result.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"

	"github.com/duskward/modbundle/bundle"
	"github.com/duskward/modbundle/mods"
	"github.com/duskward/modbundle/tui"
)

func main() {
	configPath := flag.String("config", "modbundle.toml", "path to the bundle config")
	flag.Parse()

	cfg, err := mods.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("cannot read config", "err", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("unknown log level, staying at info", "level", cfg.LogLevel)
	}

	if err := run(cfg); err != nil {
		log.Fatal("bundling failed", "err", err)
	}
	log.Info("bundle ready", "target", cfg.TargetDir)
}

func run(cfg *mods.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Info("loading baseline", "dir", cfg.BaselineDir)
	baseline, fileErrs, err := mods.LoadTree(cfg.BaselineDir)
	if err != nil {
		return err
	}
	for _, fe := range fileErrs {
		log.Warn("baseline file skipped", "file", fe.File, "err", fe.Err)
	}

	selected := cfg.Mods
	if len(selected) == 0 {
		available, err := listMods(cfg.ModsDir)
		if err != nil {
			return err
		}
		selected, err = tui.SelectMods(available)
		if err != nil {
			return err
		}
	}
	if len(selected) == 0 {
		return fmt.Errorf("no mods selected")
	}
	sort.Strings(selected)

	sources := make([]*mods.Source, 0, len(selected))
	for _, name := range selected {
		source, fileErrs, err := mods.LoadSource(name, filepath.Join(cfg.ModsDir, name), baseline)
		if err != nil {
			return fmt.Errorf("loading mod %s: %w", name, err)
		}
		for _, fe := range fileErrs {
			log.Warn("mod file skipped", "mod", name, "file", fe.File, "err", fe.Err)
		}
		sources = append(sources, source)
	}

	var resolver bundle.Resolver
	switch cfg.Resolver {
	case "prefer-last":
		resolver = bundle.PreferLastResolver{}
	default:
		resolver = tui.InteractiveResolver{}
	}

	result, err := mods.Run(ctx, baseline, sources, resolver)
	if err != nil {
		return err
	}
	if len(result.Errors) > 0 {
		for _, fe := range result.Errors {
			log.Error("file failed to merge", "file", fe.File, "err", fe.Err)
		}
		return fmt.Errorf("%d files failed to merge, nothing deployed", len(result.Errors))
	}

	return deploy(cfg.TargetDir, result.Files)
}

func deploy(target string, files map[string]mods.Item) error {
	err := mods.Deploy(target, files)
	if !errors.Is(err, mods.ErrTargetExists) {
		return err
	}

	var overwrite bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Target %s already exists. Overwrite it?", target)).
				Value(&overwrite),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	if !overwrite {
		return fmt.Errorf("target %s exists, not overwriting", target)
	}
	if err := os.RemoveAll(target); err != nil {
		return err
	}
	return mods.Deploy(target, files)
}

// listMods returns the subdirectories of the mods dir, each one mod.
func listMods(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing mods in %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

package mods

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

const projectXML = `<?xml version="1.0" encoding="utf-8"?>
<project>
	<Title>Generated mods bundle</Title>
</project>
`

// ErrTargetExists means the deploy target is already occupied. The caller
// decides whether to wipe it; Deploy never overwrites on its own.
var ErrTargetExists = fmt.Errorf("deploy target already exists")

func copyFile(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Deploy writes the merged tree under targetDir, plus the project.xml stub
// the game wants at a bundle's root. A run with collected file errors should
// not reach this point; Deploy only checks the target.
func Deploy(targetDir string, files map[string]Item) error {
	if _, err := os.Stat(targetDir); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, targetDir)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(targetDir, "project.xml"), []byte(projectXML), 0o644); err != nil {
		return err
	}
	log.Info("deploying bundle", "target", targetDir, "files", len(files))

	for _, file := range sortedKeys(files) {
		item := files[file]
		target := filepath.Join(targetDir, filepath.FromSlash(file))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		log.Debug("writing", "file", file, "binary", item.IsBinary())
		if item.IsBinary() {
			if err := copyFile(item.Binary, target); err != nil {
				return fmt.Errorf("copying %s: %w", file, err)
			}
			continue
		}
		if err := item.Structured.Deploy(target); err != nil {
			return fmt.Errorf("writing %s: %w", file, err)
		}
	}
	return nil
}

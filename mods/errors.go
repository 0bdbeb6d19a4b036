package mods

import "fmt"

// KindMismatchError means the same path carries a file of one kind (binary
// or structured) where another party supplies the other. There is no
// meaningful way to merge across that boundary.
type KindMismatchError struct {
	File string
	Got  string
	Want string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("%s: cannot merge a %s file with a %s one", e.File, e.Got, e.Want)
}

// FileError attaches the file (and, when known, the mod) an error came from.
// The pipeline collects these instead of aborting, so one broken file does
// not waste the conflict decisions already made for the others.
type FileError struct {
	File string
	Mod  string
	Err  error
}

func (e *FileError) Error() string {
	if e.Mod != "" {
		return fmt.Sprintf("%s (from %s): %v", e.File, e.Mod, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

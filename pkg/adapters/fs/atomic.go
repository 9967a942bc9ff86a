package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// TempFilePrefix marks in-flight atomic writes. Scans and the watcher skip
// files carrying it.
const TempFilePrefix = "padnote-tmp-"

// WriteStreamAtomic replaces filename with whatever fill writes. The content
// goes to a synced sibling temp file that is renamed over the target, so a
// reader never sees a half-written note. An existing target keeps its mode;
// perm applies only to new files.
func WriteStreamAtomic(filename string, perm os.FileMode, fill func(io.Writer) error) (err error) {
	if info, statErr := os.Stat(filename); statErr == nil {
		perm = info.Mode().Perm()
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", filename, statErr)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(name)
		}
	}()

	if err = fill(tmp); err != nil {
		return fmt.Errorf("failed to fill temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(name, filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}
	return nil
}

// WriteFileAtomic is WriteStreamAtomic for an in-memory payload.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	return WriteStreamAtomic(filename, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteDocumentAtomic writes a settings document, creating its directory.
func WriteDocumentAtomic(filename string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return WriteFileAtomic(filename, data, 0o644)
}

// Package atomicfile provides best-effort atomic file replacement, used by
// every persisted JSON store in this module (custom keys, dimension
// definitions, portal bindings). Writers never want a reader to observe a
// half-written file.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// Write writes data to path by first writing to a sibling ".tmp" file and
// renaming it into place. On platforms or filesystems where the rename is
// not atomic across devices, Write falls back to a plain, non-atomic
// replace of the destination — callers must tolerate either outcome, as
// documented in spec.md §4.C/§4.E/§4.J/§9.
func Write(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o777); err != nil {
			return fmt.Errorf("atomicfile: create directory %s: %w", dir, err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("atomicfile: write temp file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		// Cross-device rename (or a filesystem that doesn't support atomic
		// rename) is the one case we tolerate falling back on.
		_ = os.Remove(tmp)
		if werr := os.WriteFile(path, data, perm); werr != nil {
			return fmt.Errorf("atomicfile: fallback write %s: %w", path, werr)
		}
	}
	return nil
}

// Package bootstrap copies the packaged generator resources (template
// YAML, default palettes, special feature files) out of the running
// program's code source and into a writable data directory on first run,
// per spec.md §6: "missing packaged resources are copied from the running
// program's code source (directory or archive) into <data>/ — files that
// already exist are not overwritten."
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/endlessdimensions/core/internal/atomicfile"
)

// Sync walks resources and, for every regular file, ensures the
// corresponding path under dataDir exists. A file that is already present
// under dataDir is left untouched — Sync never overwrites local
// modifications an operator may have made to a template. Directories are
// created as needed; Sync never deletes anything.
func Sync(resources fs.FS, dataDir string, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	copied := 0
	err := fs.WalkDir(resources, ".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("bootstrap: walk %s: %w", path, err)
		}
		if entry.IsDir() {
			return nil
		}
		target := filepath.Join(dataDir, filepath.FromSlash(path))
		if _, statErr := os.Stat(target); statErr == nil {
			return nil
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return fmt.Errorf("bootstrap: stat %s: %w", target, statErr)
		}

		data, err := fs.ReadFile(resources, path)
		if err != nil {
			return fmt.Errorf("bootstrap: read packaged resource %s: %w", path, err)
		}
		if err := atomicfile.Write(target, data, 0o644); err != nil {
			return fmt.Errorf("bootstrap: write %s: %w", target, err)
		}
		copied++
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("bootstrap: synced packaged resources", "dataDir", dataDir, "copied", copied)
	return nil
}

// SyncDir is a convenience wrapper for the common case where the packaged
// resources live in a plain directory on disk rather than an embedded
// archive (for example, a template tree shipped alongside the binary).
func SyncDir(resourcesDir, dataDir string, log *slog.Logger) error {
	return Sync(os.DirFS(resourcesDir), dataDir, log)
}

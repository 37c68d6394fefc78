package pack

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/internal/atomicfile"
)

// applySurfaceBlockFanOut rewrites every "- DIM_SURFACE_BLOCK" list line
// across the pack into one line per unique surface block in def, and any
// remaining inline DIM_SURFACE_BLOCK token to the first surface block
// (spec.md §4.F step 8).
func applySurfaceBlockFanOut(packDir string, def dimension.Definition) error {
	blocks := def.SurfaceBlocks()
	first := blocks[0]
	marker := []byte("DIM_SURFACE_BLOCK")

	return filepath.WalkDir(packDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yml", ".yaml", ".tesf":
		default:
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pack: read %s: %w", path, err)
		}
		if !bytes.Contains(raw, marker) {
			return nil
		}

		lines, le := splitLines(raw)
		out := make([]string, 0, len(lines))
		for _, line := range lines {
			if strings.TrimSpace(line) == "- DIM_SURFACE_BLOCK" {
				indent := indentOf(line)
				for _, b := range blocks {
					out = append(out, indent+"- "+b)
				}
				continue
			}
			out = append(out, line)
		}
		text := strings.ReplaceAll(strings.Join(out, "\n"), "DIM_SURFACE_BLOCK", first)

		if err := atomicfile.Write(path, joinLines(strings.Split(text, "\n"), le), 0o644); err != nil {
			return fmt.Errorf("pack: write %s: %w", path, err)
		}
		return nil
	})
}

package pack

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/internal/atomicfile"
)

// ErrConflictingTreeSlot is returned when two BiomeSlots assign different
// enabled TreePaletteProfiles to the same palette slot (spec.md §4.F step 7).
var ErrConflictingTreeSlot = errors.New("pack: conflicting tree palette assignments for the same slot")

var featureParamFiles = []string{
	filepath.Join("features", "special", "between_end_ships.yml"),
	filepath.Join("features", "special", "shapes_scatter.yml"),
}

var featureParams = map[string]string{
	"DIM_BETWEEN_GRID_WIDTH":     "32",
	"DIM_BETWEEN_GRID_PADDING":   "12",
	"DIM_BETWEEN_AMOUNT":         "1",
	"DIM_BETWEEN_SHIP_STRUCTURE": "end_ship",
	"DIM_SHAPES_GRID_WIDTH":      "20",
	"DIM_SHAPES_GRID_PADDING":    "8",
	"DIM_SHAPES_AMOUNT":          "1",
	"DIM_SHAPES_WEIGHT_CUBE":     "3",
	"DIM_SHAPES_WEIGHT_SPHERE":   "2",
	"DIM_SHAPES_WEIGHT_DIAMOND":  "2",
}

// Materialize builds the self-contained generator pack for def under
// <packsRoot>/<safeDimensionID>/, copying templatesDir and rewriting its
// YAML in place per spec.md §4.F. If the destination already exists the
// call is a no-op: packs are content-addressed by dimension id and
// re-materialization is never partial.
func Materialize(templatesDir, packsRoot string, def dimension.Definition) (string, error) {
	packDir := filepath.Join(packsRoot, safePackID(def.DimensionID))
	if _, err := os.Stat(packDir); err == nil {
		return packDir, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("pack: stat %s: %w", packDir, err)
	}

	tmp := packDir + ".building"
	if err := os.RemoveAll(tmp); err != nil {
		return "", fmt.Errorf("pack: clear staging dir: %w", err)
	}
	if err := copyTree(templatesDir, tmp); err != nil {
		return "", fmt.Errorf("pack: copy templates: %w", err)
	}

	if err := patchPackYML(tmp, def); err != nil {
		return "", err
	}
	if err := applyShellOverrides(tmp, def.Shell); err != nil {
		return "", err
	}
	if err := emitPaletteYAMLs(tmp, def); err != nil {
		return "", err
	}
	if err := applyBiomeOverrides(tmp, def); err != nil {
		return "", err
	}
	if err := applyFeatureParameterOverrides(tmp); err != nil {
		return "", err
	}
	if err := applyTreePalettes(tmp, def); err != nil {
		return "", err
	}
	if err := applySurfaceBlockFanOut(tmp, def); err != nil {
		return "", err
	}

	if err := os.Rename(tmp, packDir); err != nil {
		return "", fmt.Errorf("pack: finalize %s: %w", packDir, err)
	}
	return packDir, nil
}

func safePackID(dimensionID string) string {
	return strings.ReplaceAll(dimensionID, ":", "_")
}

// copyTree recursively mirrors src under dst, creating missing intermediate
// directories and replacing files that already exist (spec.md §4.F step 1).
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if entry.IsDir() {
			return os.MkdirAll(target, 0o777)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// patchPackYML locates the pack's top-level pack.yml and rewrites the
// id/biomes/vanilla/vanilla-generation keys in place, preserving the
// original line-ending convention (spec.md §4.F step 2).
func patchPackYML(packDir string, def dimension.Definition) error {
	path := filepath.Join(packDir, "pack.yml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("pack: read pack.yml: %w", err)
	}
	lines, le := splitLines(raw)

	templateRoot := def.Shell.TemplateRoot()
	lines = replaceOrAppendKey(lines, "id:", "id: "+safePackID(def.DimensionID))
	lines = replaceOrAppendKey(lines, "biomes:", fmt.Sprintf("biomes: $%s/biomes.yml:biomes", templateRoot))
	lines = replaceOrAppendKey(lines, "vanilla:", "vanilla: "+def.Shell.VanillaDimension())
	lines = replaceOrAppendKey(lines, "vanilla-generation:", "vanilla-generation: "+def.Shell.VanillaGeneration())

	return atomicfile.Write(path, joinLines(lines, le), 0o644)
}

// applyShellOverrides copies the shell's meta.yml and options.yml from its
// template root to the pack root, if present, replacing existing files
// (spec.md §4.F step 3).
func applyShellOverrides(packDir string, shell dimension.ShellType) error {
	root := filepath.Join(packDir, filepath.FromSlash(shell.TemplateRoot()))
	for _, name := range []string{"meta.yml", "options.yml"} {
		src := filepath.Join(root, name)
		if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("pack: stat %s: %w", src, err)
		}
		if err := copyFile(src, filepath.Join(packDir, name)); err != nil {
			return fmt.Errorf("pack: shell override %s: %w", name, err)
		}
	}
	return nil
}

type paletteLayerYAML struct {
	Materials []map[string]int `yaml:"materials,flow"`
	Layers    int              `yaml:"layers"`
}

type paletteFileYAML struct {
	ID     string             `yaml:"id"`
	Type   string             `yaml:"type"`
	Layers []paletteLayerYAML `yaml:"layers"`
}

// emitPaletteYAMLs writes the four (or three, if no liquid) structural
// palette files per (slot, PaletteDefinition), using yaml.v2 to emit the
// fixed skeleton (spec.md §4.F step 4).
func emitPaletteYAMLs(packDir string, def dimension.Definition) error {
	dir := filepath.Join(packDir, "palettes")
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return fmt.Errorf("pack: create palettes dir: %w", err)
	}
	packID := safePackID(def.DimensionID)

	slots := make([]int, 0, len(def.Palettes))
	for slot := range def.Palettes {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	for _, slot := range slots {
		pal := def.Palettes[slot]
		if err := writePaletteFile(dir, fmt.Sprintf("DIM_PAL_%d", slot), packID, pal.SurfaceBlock); err != nil {
			return err
		}
		if err := writePaletteFile(dir, fmt.Sprintf("DIM_PAL_%d_SUBSURFACE", slot), packID, pal.SubsurfaceBlock); err != nil {
			return err
		}
		if err := writePaletteFile(dir, fmt.Sprintf("DIM_PAL_%d_STONE", slot), packID, pal.StoneBlock); err != nil {
			return err
		}
		if pal.HasLiquid() {
			if err := writePaletteFile(dir, fmt.Sprintf("DIM_OCEAN_%d", slot), packID, pal.LiquidBlock); err != nil {
				return err
			}
		}
	}
	return nil
}

func writePaletteFile(dir, name, packID, block string) error {
	doc := paletteFileYAML{
		ID:   packID + ":" + name,
		Type: "PALETTE",
		Layers: []paletteLayerYAML{
			{Materials: []map[string]int{{block: 1}}, Layers: 1},
		},
	}
	encoded, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("pack: encode %s: %w", name, err)
	}
	return atomicfile.Write(filepath.Join(dir, name+".yml"), encoded, 0o644)
}

// applyBiomeOverrides merges each BiomeSlot's overlay features into its base
// biome template and substitutes the DIM_PAL_SLOT placeholders (spec.md
// §4.F step 5).
func applyBiomeOverrides(packDir string, def dimension.Definition) error {
	for _, biome := range def.Biomes {
		basePath := filepath.Join(packDir, "biomes", biome.TemplateID.TerraBiomeID()+".yml")
		raw, err := os.ReadFile(basePath)
		if err != nil {
			return fmt.Errorf("pack: read biome template %s: %w", basePath, err)
		}
		lines, le := splitLines(raw)

		if biome.HasOverlay {
			overlayPath := filepath.Join(packDir, "biome_overlays", biome.OverlayID.TerraOverlayID()+".yml")
			overlayRaw, err := os.ReadFile(overlayPath)
			if err != nil {
				return fmt.Errorf("pack: read biome overlay %s: %w", overlayPath, err)
			}
			overlayLines, _ := splitLines(overlayRaw)
			lines = mergeFeatures(lines, overlayLines)
		}

		placeholders := map[string]string{
			"DIM_PAL_SLOT_STONE": fmt.Sprintf("DIM_PAL_%d_STONE", biome.PaletteSlot),
			"DIM_PAL_SLOT":       fmt.Sprintf("DIM_PAL_%d", biome.PaletteSlot),
		}
		text := substitutePlaceholders(strings.Join(lines, "\n"), placeholders)
		lines = strings.Split(text, "\n")

		if err := atomicfile.Write(basePath, joinLines(lines, le), 0o644); err != nil {
			return fmt.Errorf("pack: write biome template %s: %w", basePath, err)
		}
	}
	return nil
}

// mergeFeatures appends each category list in overlayLines' top-level
// features: block onto the matching category in baseLines, creating the
// category (or the whole features: block) if absent.
func mergeFeatures(baseLines, overlayLines []string) []string {
	ovStart, ovEnd, ok := findTopLevelBlock(overlayLines, "features")
	if !ok {
		return baseLines
	}
	categories := topLevelCategories(overlayLines, ovStart, ovEnd)

	baseStart, baseEnd, hasFeatures := findTopLevelBlock(baseLines, "features")
	if !hasFeatures {
		block := []string{"features:"}
		for _, cat := range categories {
			block = append(block, "  "+cat.name+":")
			block = append(block, reindent(overlayLines[cat.start+1:cat.end], cat.indent+"  ")...)
		}
		out := append([]string(nil), baseLines...)
		if len(out) > 0 && out[len(out)-1] == "" {
			out = out[:len(out)-1]
		}
		out = append(out, block...)
		return append(out, "")
	}

	out := baseLines
	for _, cat := range categories {
		body := overlayLines[cat.start+1 : cat.end]
		_, catEnd, catIndent, found := findCategory(out, baseStart, baseEnd, cat.name)
		if found {
			out, baseEnd = insertLines(out, catEnd, reindent(body, catIndent+"  "), baseEnd)
			continue
		}
		newCat := append([]string{"  " + cat.name + ":"}, reindent(body, "    ")...)
		out, baseEnd = insertLines(out, baseEnd, newCat, baseEnd)
	}
	return out
}

type featureCategory struct {
	name       string
	start, end int
	indent     string
}

// topLevelCategories enumerates the immediate child category headers of a
// features: block (start/end as returned by findTopLevelBlock).
func topLevelCategories(lines []string, start, end int) []featureCategory {
	var cats []featureCategory
	i := start + 1
	for i < end {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		ind := indentOf(lines[i])
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasSuffix(trimmed, ":") {
			name := strings.TrimSuffix(trimmed, ":")
			blockEnd := end
			for j := i + 1; j < end; j++ {
				if strings.TrimSpace(lines[j]) == "" {
					continue
				}
				if len(indentOf(lines[j])) <= len(ind) {
					blockEnd = j
					break
				}
			}
			cats = append(cats, featureCategory{name: name, start: i, end: blockEnd, indent: ind})
			i = blockEnd
			continue
		}
		i++
	}
	return cats
}

// reindent strips each line's detected common indent and re-prefixes it
// with newIndent; blank (or whitespace-only) lines come out empty.
// reindent re-roots lines at newIndent while preserving each line's
// indentation relative to the block's own common indent, so nested
// structure below the block's top level (e.g. a list item's own indented
// keys) survives being relocated.
func reindent(lines []string, newIndent string) []string {
	base := commonIndent(lines)
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = ""
			continue
		}
		out[i] = newIndent + strings.TrimPrefix(line, base)
	}
	return out
}

// commonIndent returns the longest whitespace prefix shared by every
// non-blank line.
func commonIndent(lines []string) string {
	base := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			base = indent
			first = false
			continue
		}
		base = commonPrefix(base, indent)
	}
	return base
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// insertLines splices extra into lines at index idx, returning the updated
// slice and the shifted value of trailingBoundary (used to keep an outer
// block's end index valid across multiple insertions).
func insertLines(lines []string, idx int, extra []string, trailingBoundary int) ([]string, int) {
	out := make([]string, 0, len(lines)+len(extra))
	out = append(out, lines[:idx]...)
	out = append(out, extra...)
	out = append(out, lines[idx:]...)
	if idx <= trailingBoundary {
		trailingBoundary += len(extra)
	}
	return out, trailingBoundary
}

// applyFeatureParameterOverrides substitutes the fixed placeholder set into
// the two special-feature files (spec.md §4.F step 6).
func applyFeatureParameterOverrides(packDir string) error {
	for _, rel := range featureParamFiles {
		path := filepath.Join(packDir, rel)
		raw, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("pack: read %s: %w", rel, err)
		}
		text := substitutePlaceholders(string(raw), featureParams)
		if err := atomicfile.Write(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("pack: write %s: %w", rel, err)
		}
	}
	return nil
}

package pack

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/internal/atomicfile"
)

// quotedToken matches a double-quoted bareword, used to find structure
// references inside a feature/structure YAML file (spec.md §4.F step 7).
var quotedToken = regexp.MustCompile(`"([A-Za-z0-9_:]+)"`)

// applyTreePalettes rewrites each BiomeSlot's features.trees: list: emptied
// for a disabled profile, or rewritten to reference slot-specific feature
// (and transitively, structure) copies for an enabled one (spec.md §4.F
// step 7). Tree feature and structure files are assumed to live under
// features/trees/ and structures/ respectively, keyed by their bare id.
func applyTreePalettes(packDir string, def dimension.Definition) error {
	slotProfiles := make(map[int]dimension.TreePaletteProfile)
	for _, biome := range def.Biomes {
		if !biome.Trees.Enabled {
			continue
		}
		if existing, ok := slotProfiles[biome.PaletteSlot]; ok && existing != biome.Trees {
			return ErrConflictingTreeSlot
		}
		slotProfiles[biome.PaletteSlot] = biome.Trees
	}

	visited := make(map[string]bool)
	for _, biome := range def.Biomes {
		path := filepath.Join(packDir, "biomes", biome.TemplateID.TerraBiomeID()+".yml")
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("pack: read biome template %s: %w", path, err)
		}
		lines, le := splitLines(raw)

		featStart, featEnd, ok := findTopLevelBlock(lines, "features")
		if !ok {
			continue
		}
		catStart, catEnd, catIndent, found := findCategory(lines, featStart, featEnd, "trees")
		if !found {
			continue
		}

		var body []string
		if !biome.Trees.Enabled {
			body = nil
		} else {
			pal := def.Palettes[biome.PaletteSlot]
			placeholders := biome.Trees.PlaceholderMap()
			placeholders["DIM_SURFACE_BLOCK"] = pal.SurfaceBlock

			items := parseListItems(lines[catStart+1 : catEnd])
			body = make([]string, 0, len(items))
			for _, id := range items {
				slotID, err := materializeTreeFeature(packDir, id, biome.PaletteSlot, placeholders, visited)
				if err != nil {
					return err
				}
				body = append(body, catIndent+"  - "+slotID)
			}
		}

		lines = replaceBlockBody(lines, catStart+1, catEnd, body)
		if err := atomicfile.Write(path, joinLines(lines, le), 0o644); err != nil {
			return fmt.Errorf("pack: write biome template %s: %w", path, err)
		}
	}
	return nil
}

// parseListItems extracts the scalar value of each "- value" line in body,
// stripping surrounding quotes.
func parseListItems(body []string) []string {
	var items []string
	for _, line := range body {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "-") {
			continue
		}
		val := strings.TrimSpace(strings.TrimPrefix(trimmed, "-"))
		val = strings.Trim(val, `"'`)
		if val != "" {
			items = append(items, val)
		}
	}
	return items
}

// replaceBlockBody splices body in place of lines[start:end].
func replaceBlockBody(lines []string, start, end int, body []string) []string {
	out := make([]string, 0, len(lines)-(end-start)+len(body))
	out = append(out, lines[:start]...)
	out = append(out, body...)
	out = append(out, lines[end:]...)
	return out
}

func treeFeaturePath(packDir, id string) string {
	return filepath.Join(packDir, "features", "trees", strings.ReplaceAll(id, ":", "_")+".yml")
}

func structurePath(packDir, id string) string {
	return filepath.Join(packDir, "structures", strings.ReplaceAll(id, ":", "_")+".yml")
}

// materializeTreeFeature copies the tree feature file for id into a
// "_SLOT<slot>"-suffixed sibling, with placeholders substituted and any
// structure references it quotes rewritten to their own slot-specific
// copies (spec.md §4.F step 7).
func materializeTreeFeature(packDir, id string, slot int, placeholders map[string]string, visited map[string]bool) (string, error) {
	src := treeFeaturePath(packDir, id)
	slotID := id + fmt.Sprintf("_SLOT%d", slot)
	visitKey := treeFeaturePath(packDir, slotID)
	if visited[visitKey] {
		return slotID, nil
	}
	visited[visitKey] = true

	raw, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("pack: read tree feature %s: %w", src, err)
	}
	text := substitutePlaceholders(string(raw), placeholders)
	text = appendToIDLine(text, fmt.Sprintf("_SLOT%d", slot))

	for _, ref := range structureReferences(text, packDir) {
		newRef, err := materializeStructure(packDir, ref, slot, placeholders, visited)
		if err != nil {
			return "", err
		}
		if newRef != ref {
			text = strings.ReplaceAll(text, `"`+ref+`"`, `"`+newRef+`"`)
		}
	}

	dst := treeFeaturePath(packDir, slotID)
	if err := atomicfile.Write(dst, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("pack: write tree feature %s: %w", dst, err)
	}
	return slotID, nil
}

// materializeStructure follows a quoted structure reference transitively.
// A structure file that contains no tree placeholder is left unchanged and
// referenced as-is; only files that actually vary per palette slot are
// copied (spec.md §4.F step 7).
func materializeStructure(packDir, id string, slot int, placeholders map[string]string, visited map[string]bool) (string, error) {
	path := structurePath(packDir, id)
	raw, err := os.ReadFile(path)
	if err != nil {
		return id, nil
	}
	text := string(raw)
	if !containsAnyPlaceholder(text, placeholders) {
		return id, nil
	}
	newID := id + fmt.Sprintf("_slot%d", slot)
	visitKey := structurePath(packDir, newID)
	if visited[visitKey] {
		return newID, nil
	}
	visited[visitKey] = true

	substituted := substitutePlaceholders(text, placeholders)
	substituted = appendToIDLine(substituted, fmt.Sprintf("_slot%d", slot))

	for _, ref := range structureReferences(substituted, packDir) {
		newRef, err := materializeStructure(packDir, ref, slot, placeholders, visited)
		if err != nil {
			return "", err
		}
		if newRef != ref {
			substituted = strings.ReplaceAll(substituted, `"`+ref+`"`, `"`+newRef+`"`)
		}
	}

	dst := structurePath(packDir, newID)
	if err := atomicfile.Write(dst, []byte(substituted), 0o644); err != nil {
		return "", fmt.Errorf("pack: write structure %s: %w", dst, err)
	}
	return newID, nil
}

func containsAnyPlaceholder(text string, placeholders map[string]string) bool {
	for k := range placeholders {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// structureReferences scans text for quoted tokens that name an existing
// structure file under <packDir>/structures/.
func structureReferences(text, packDir string) []string {
	matches := quotedToken.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	var refs []string
	for _, m := range matches {
		token := m[1]
		if seen[token] {
			continue
		}
		if _, err := os.Stat(structurePath(packDir, token)); err == nil {
			seen[token] = true
			refs = append(refs, token)
		}
	}
	return refs
}

// appendToIDLine appends suffix to the first "id:" line's value.
func appendToIDLine(text, suffix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "id:") {
			lines[i] = line + suffix
			break
		}
	}
	return strings.Join(lines, "\n")
}

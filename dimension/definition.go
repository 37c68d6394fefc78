package dimension

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// CurrentVersion is the schema version stamped onto every definition this
// package writes. Files with a higher version fail to load (spec.md §4.E,
// §7 UnsupportedVersion).
const CurrentVersion = 2

// ErrUnsupportedVersion is returned when a definition file's version field
// exceeds CurrentVersion.
var ErrUnsupportedVersion = errors.New("dimension: definition schema version is newer than this build supports")

// Definition is the immutable, registered world configuration from
// spec.md §3: {dimensionId, seed, shellType, biomes, palettes}. Once
// registered it is never mutated (spec.md §3, §9).
type Definition struct {
	DimensionID string
	Seed        int64
	Shell       ShellType
	Biomes      []BiomeSlot
	Palettes    map[int]PaletteDefinition

	// unknownFields preserves top-level JSON keys this version of the
	// package doesn't know about, so round-tripping a file written by a
	// newer-but-compatible writer doesn't silently drop data (spec.md §6:
	// "unknown top-level fields are preserved on round-trip if present").
	unknownFields map[string]json.RawMessage
}

// New validates and constructs a Definition. All of spec.md §3/§7's
// InvalidInput checks happen here, synchronously, and are never
// recoverable.
func New(dimensionID string, seed int64, shell ShellType, biomes []BiomeSlot, palettes map[int]PaletteDefinition) (Definition, error) {
	if dimensionID == "" {
		return Definition{}, errors.New("dimension: dimensionId must not be empty")
	}
	if len(biomes) == 0 {
		return Definition{}, ErrEmptyBiomes
	}

	seenSlots := make(map[int]struct{}, len(biomes))
	normalizedPalettes := make(map[int]PaletteDefinition, len(palettes))
	for slot, pd := range palettes {
		normalized, err := pd.Normalize()
		if err != nil {
			return Definition{}, fmt.Errorf("dimension: palette slot %d: %w", slot, err)
		}
		normalizedPalettes[slot] = normalized
	}

	normalizedBiomes := make([]BiomeSlot, len(biomes))
	for i, b := range biomes {
		if err := b.validate(); err != nil {
			return Definition{}, fmt.Errorf("dimension: biome slot %d: %w", i, err)
		}
		if _, dup := seenSlots[b.PaletteSlot]; dup {
			return Definition{}, fmt.Errorf("%w: slot %d", ErrDuplicatePalette, b.PaletteSlot)
		}
		seenSlots[b.PaletteSlot] = struct{}{}
		if _, ok := normalizedPalettes[b.PaletteSlot]; !ok {
			return Definition{}, fmt.Errorf("%w: slot %d", ErrMissingPalette, b.PaletteSlot)
		}
		normalizedBiomes[i] = b
	}
	for slot := range normalizedPalettes {
		if _, ok := seenSlots[slot]; !ok {
			return Definition{}, fmt.Errorf("dimension: palette slot %d is not referenced by any biome slot", slot)
		}
	}

	return Definition{
		DimensionID: dimensionID,
		Seed:        seed,
		Shell:       shell,
		Biomes:      normalizedBiomes,
		Palettes:    normalizedPalettes,
	}, nil
}

// PaletteSlots returns the set of palette slots referenced by Biomes. This
// always equals the key set of Palettes for a validly constructed
// Definition (spec.md §8).
func (d Definition) PaletteSlots() map[int]struct{} {
	slots := make(map[int]struct{}, len(d.Biomes))
	for _, b := range d.Biomes {
		slots[b.PaletteSlot] = struct{}{}
	}
	return slots
}

// SurfaceBlocks returns the deduplicated set of surface blocks across every
// palette in Palettes, in a stable (slot-ascending) order. Used by
// pack.Materializer's surface-block fan-out (§4.F step 8).
func (d Definition) SurfaceBlocks() []string {
	slots := make([]int, 0, len(d.Palettes))
	for slot := range d.Palettes {
		slots = append(slots, slot)
	}
	sort.Ints(slots)

	seen := make(map[string]struct{}, len(slots))
	out := make([]string, 0, len(slots))
	for _, slot := range slots {
		block := d.Palettes[slot].SurfaceBlock
		if _, ok := seen[block]; ok {
			continue
		}
		seen[block] = struct{}{}
		out = append(out, block)
	}
	if len(out) == 0 {
		return []string{"minecraft:grass_block"}
	}
	return out
}

// --- JSON codec ---

type biomeSlotJSON struct {
	TemplateID  string  `json:"templateId"`
	OverlayID   *string `json:"overlayId"`
	PaletteSlot int     `json:"paletteSlot"`
}

type definitionJSON struct {
	Version     int                       `json:"version"`
	DimensionID string                    `json:"dimensionId"`
	Seed        int64                     `json:"seed"`
	ShellType   string                    `json:"shellType"`
	Biomes      []biomeSlotJSON           `json:"biomes"`
	Palettes    map[string]PaletteDefinition `json:"palettes"`
}

// MarshalJSON encodes the Definition per spec.md §6, re-merging any
// unknown top-level fields preserved from the source file.
func (d Definition) MarshalJSON() ([]byte, error) {
	dj := definitionJSON{
		Version:     CurrentVersion,
		DimensionID: d.DimensionID,
		Seed:        d.Seed,
		ShellType:   d.Shell.String(),
		Biomes:      make([]biomeSlotJSON, len(d.Biomes)),
		Palettes:    make(map[string]PaletteDefinition, len(d.Palettes)),
	}
	for i, b := range d.Biomes {
		bj := biomeSlotJSON{TemplateID: b.TemplateID.String(), PaletteSlot: b.PaletteSlot}
		if b.HasOverlay {
			name := b.OverlayID.String()
			bj.OverlayID = &name
		}
		dj.Biomes[i] = bj
	}
	for slot, pd := range d.Palettes {
		dj.Palettes[fmt.Sprint(slot)] = pd
	}

	base, err := json.Marshal(dj)
	if err != nil {
		return nil, err
	}
	if len(d.unknownFields) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(d.unknownFields)+6)
	for k, v := range d.unknownFields {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalDefinition parses raw JSON into a Definition, validating the
// schema version and preserving unknown top-level fields for round-trip.
func UnmarshalDefinition(raw []byte) (Definition, error) {
	var versionProbe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &versionProbe); err != nil {
		return Definition{}, fmt.Errorf("dimension: parse definition: %w", err)
	}
	if versionProbe.Version > CurrentVersion {
		return Definition{}, fmt.Errorf("%w: got version %d, support up to %d", ErrUnsupportedVersion, versionProbe.Version, CurrentVersion)
	}

	var dj definitionJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		return Definition{}, fmt.Errorf("dimension: parse definition: %w", err)
	}

	var allFields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &allFields); err != nil {
		return Definition{}, fmt.Errorf("dimension: parse definition: %w", err)
	}
	for _, known := range []string{"version", "dimensionId", "seed", "shellType", "biomes", "palettes"} {
		delete(allFields, known)
	}

	shell, ok := ShellTypeFromString(dj.ShellType)
	if !ok {
		return Definition{}, fmt.Errorf("dimension: unknown shellType %q", dj.ShellType)
	}

	biomes := make([]BiomeSlot, len(dj.Biomes))
	for i, bj := range dj.Biomes {
		tid, ok := BiomeTemplateIDFromString(bj.TemplateID)
		if !ok {
			return Definition{}, fmt.Errorf("dimension: unknown templateId %q", bj.TemplateID)
		}
		slot := BiomeSlot{TemplateID: tid, PaletteSlot: bj.PaletteSlot}
		if bj.OverlayID != nil {
			oid, ok := BiomeTemplateIDFromString(*bj.OverlayID)
			if !ok {
				return Definition{}, fmt.Errorf("dimension: unknown overlayId %q", *bj.OverlayID)
			}
			slot.OverlayID, slot.HasOverlay = oid, true
		}
		biomes[i] = slot
	}

	palettes := make(map[int]PaletteDefinition, len(dj.Palettes))
	for slotStr, pd := range dj.Palettes {
		var slot int
		if _, err := fmt.Sscanf(slotStr, "%d", &slot); err != nil {
			return Definition{}, fmt.Errorf("dimension: non-numeric palette slot %q", slotStr)
		}
		palettes[slot] = pd
	}

	def, err := New(dj.DimensionID, dj.Seed, shell, biomes, palettes)
	if err != nil {
		return Definition{}, err
	}
	if len(allFields) > 0 {
		def.unknownFields = allFields
	}
	return def, nil
}

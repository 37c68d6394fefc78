// Package dimension implements the DATA MODEL and the DimensionResolver /
// DimensionDefinitionRegistry components from spec.md §3-§4.D/§4.E.
package dimension

// ShellType is the closed enum of coarse terrain archetypes from
// spec.md §3. It never gains members at runtime (spec.md §9).
type ShellType int

const (
	OverworldOpen ShellType = iota
	NetherCavern
	EndIslands
	Superflat
)

// String returns the stable id used in persisted JSON.
func (s ShellType) String() string {
	switch s {
	case OverworldOpen:
		return "OVERWORLD_OPEN"
	case NetherCavern:
		return "NETHER_CAVERN"
	case EndIslands:
		return "END_ISLANDS"
	case Superflat:
		return "SUPERFLAT"
	default:
		return "UNKNOWN"
	}
}

// ShellTypeFromString parses the stable id back into a ShellType.
func ShellTypeFromString(s string) (ShellType, bool) {
	switch s {
	case "OVERWORLD_OPEN":
		return OverworldOpen, true
	case "NETHER_CAVERN":
		return NetherCavern, true
	case "END_ISLANDS":
		return EndIslands, true
	case "SUPERFLAT":
		return Superflat, true
	default:
		return 0, false
	}
}

// shellMeta carries the per-shell fixed metadata from spec.md §3: the
// engine dimension-type identifier, the template root path, the vanilla
// generator hook used when patching pack.yml (§4.F step 2), and the
// ordered biome pool split base/overlay.
type shellMeta struct {
	vanillaDimension  string
	vanillaGeneration string
	templateRoot      string
	basePool          []BiomeTemplateID
	overlayPool       []BiomeTemplateID
}

var shellMetas = map[ShellType]shellMeta{
	OverworldOpen: {
		vanillaDimension:  "minecraft:overworld",
		vanillaGeneration: "minecraft:overworld",
		templateRoot:      "shells/overworld_open",
		basePool: []BiomeTemplateID{
			BiomePlains, BiomeForest, BiomeJungle, BiomeDesert, BiomeBadlands,
			BiomeOcean, BiomeIceSpikes, BiomeMushroom, BiomeFeatureless,
		},
		overlayPool: []BiomeTemplateID{SpecialBetween, SpecialShapes},
	},
	NetherCavern: {
		vanillaDimension:  "minecraft:the_nether",
		vanillaGeneration: "minecraft:the_nether",
		templateRoot:      "shells/nether_cavern",
		basePool: []BiomeTemplateID{
			BiomeNetherWastes, BiomeSoulSandValley, BiomeCrimsonForest, BiomeWarpedForest,
		},
		overlayPool: []BiomeTemplateID{SpecialBetween, SpecialShapes},
	},
	EndIslands: {
		vanillaDimension:  "minecraft:the_end",
		vanillaGeneration: "minecraft:the_end",
		templateRoot:      "shells/end_islands",
		basePool: []BiomeTemplateID{
			BiomeTheEnd, BiomeEndHighlands,
		},
		overlayPool: []BiomeTemplateID{SpecialBetween, SpecialShapes},
	},
	Superflat: {
		vanillaDimension:  "minecraft:overworld",
		vanillaGeneration: "minecraft:flat",
		templateRoot:      "shells/superflat",
		basePool: []BiomeTemplateID{
			BiomePlains, BiomeFeatureless,
		},
		overlayPool: []BiomeTemplateID{SpecialBetween, SpecialShapes},
	},
}

// VanillaDimension returns the engine dimension-type identifier the pack's
// "vanilla:" key must reference (§4.F step 2).
func (s ShellType) VanillaDimension() string { return shellMetas[s].vanillaDimension }

// VanillaGeneration returns the value for pack.yml's "vanilla-generation:"
// key.
func (s ShellType) VanillaGeneration() string { return shellMetas[s].vanillaGeneration }

// TemplateRoot returns the path, relative to the templates tree, that
// holds this shell's meta.yml/options.yml overrides (§4.F step 3).
func (s ShellType) TemplateRoot() string { return shellMetas[s].templateRoot }

// BasePool returns the ordered pool of non-overlay BiomeTemplateIDs
// available to this shell.
func (s ShellType) BasePool() []BiomeTemplateID {
	return append([]BiomeTemplateID(nil), shellMetas[s].basePool...)
}

// OverlayPool returns the ordered pool of overlay BiomeTemplateIDs
// available to this shell.
func (s ShellType) OverlayPool() []BiomeTemplateID {
	return append([]BiomeTemplateID(nil), shellMetas[s].overlayPool...)
}

// BiomePool returns the full pool (base followed by overlay), used by
// portal.biomeSubset (§4.K) when drawing a random biome subset.
func (s ShellType) BiomePool() []BiomeTemplateID {
	return append(s.BasePool(), s.OverlayPool()...)
}

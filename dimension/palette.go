package dimension

import "errors"

// Errors returned synchronously at construction time — spec.md §7's
// InvalidInput never recovers and is always raised at the point of
// construction, never surfaced through a future.
var (
	ErrBadTemplateID    = errors.New("dimension: BiomeSlot.TemplateID must be a base (non-overlay) biome")
	ErrBadOverlayID     = errors.New("dimension: BiomeSlot.OverlayID must be an overlay biome")
	ErrDuplicatePalette = errors.New("dimension: duplicate palette slot in definition")
	ErrMissingPalette   = errors.New("dimension: biome slot references a palette with no matching PaletteDefinition")
	ErrInvalidSlot      = errors.New("dimension: paletteSlot must be >= 1")
	ErrEmptyBiomes      = errors.New("dimension: definition must have at least one biome slot")
	ErrEmptySurface     = errors.New("dimension: PaletteDefinition.SurfaceBlock must not be empty")
	ErrEmptyStone       = errors.New("dimension: PaletteDefinition.StoneBlock must not be empty")
)

// PaletteDefinition is the block set a palette slot parameterizes
// (spec.md §3). SubsurfaceBlock defaults to SurfaceBlock when empty, and
// LiquidBlock is absent ("") when unset.
type PaletteDefinition struct {
	SurfaceBlock    string `json:"surfaceBlock"`
	SubsurfaceBlock string `json:"subsurfaceBlock"`
	StoneBlock      string `json:"stoneBlock"`
	LiquidBlock     string `json:"liquidBlock,omitempty"`
}

// Normalize applies the invariant that SubsurfaceBlock defaults to
// SurfaceBlock when empty, and validates the two required fields.
func (p PaletteDefinition) Normalize() (PaletteDefinition, error) {
	if p.SurfaceBlock == "" {
		return p, ErrEmptySurface
	}
	if p.StoneBlock == "" {
		return p, ErrEmptyStone
	}
	if p.SubsurfaceBlock == "" {
		p.SubsurfaceBlock = p.SurfaceBlock
	}
	return p, nil
}

// HasLiquid reports whether this palette carries a liquid block.
func (p PaletteDefinition) HasLiquid() bool { return p.LiquidBlock != "" }

// BiomeSlot binds a biome template (and, for overlays, the base biome it
// augments) to a palette slot (spec.md §3).
type BiomeSlot struct {
	TemplateID  BiomeTemplateID
	OverlayID   BiomeTemplateID
	HasOverlay  bool
	PaletteSlot int
	Trees       TreePaletteProfile
}

// validate enforces spec.md §3's BiomeSlot invariants: TemplateID must be a
// base biome, OverlayID (if present) must be an overlay, and PaletteSlot
// must be positive.
func (b BiomeSlot) validate() error {
	if b.TemplateID.IsOverlay() {
		return ErrBadTemplateID
	}
	if b.HasOverlay && !b.OverlayID.IsOverlay() {
		return ErrBadOverlayID
	}
	if b.PaletteSlot <= 0 {
		return ErrInvalidSlot
	}
	return nil
}

// TreePaletteKind identifies which family of tree materials a
// TreePaletteProfile describes (spec.md §3, §9 "closed worlds").
type TreePaletteKind int

const (
	TreeOak TreePaletteKind = iota
	TreeSpruce
	TreeBirch
	TreeJungle
	TreeAcacia
	TreeDarkOak
	TreeMangrove
	TreeCherry
	TreeCrimsonFungus
	TreeWarpedFungus
	TreeChorus
)

// TreePaletteProfile is the set of materials used for a biome's trees,
// parameterized to rewrite feature/structure templates per palette slot
// (spec.md §3, §4.F step 7).
type TreePaletteProfile struct {
	Kind    TreePaletteKind
	Enabled bool

	Log    string
	LogX   string
	LogY   string
	LogZ   string
	Wood   string
	WoodX  string
	WoodZ  string
	Leaves string
}

// PlaceholderMap returns the DIM_TREE_* placeholder substitutions for this
// profile. When Enabled is false, the map is empty — tree features are
// removed rather than remapped, per spec.md §3.
func (p TreePaletteProfile) PlaceholderMap() map[string]string {
	if !p.Enabled {
		return map[string]string{}
	}
	return map[string]string{
		"DIM_TREE_LOG":    p.Log,
		"DIM_TREE_LOG_X":  p.LogX,
		"DIM_TREE_LOG_Y":  p.LogY,
		"DIM_TREE_LOG_Z":  p.LogZ,
		"DIM_TREE_WOOD":   p.Wood,
		"DIM_TREE_WOOD_X": p.WoodX,
		"DIM_TREE_WOOD_Z": p.WoodZ,
		"DIM_TREE_LEAVES": p.Leaves,
	}
}

// TreePaletteDefaults resolves the default TreePaletteProfile for a base
// biome template id, used by portal.resolveSelection (spec.md §4.K) when a
// book-triggered route derives a fresh definition.
func TreePaletteDefaults(base BiomeTemplateID) TreePaletteProfile {
	if profile, ok := defaultTreeProfiles[base]; ok {
		return profile
	}
	return TreePaletteProfile{Enabled: false}
}

var defaultTreeProfiles = map[BiomeTemplateID]TreePaletteProfile{
	BiomePlains: {
		Kind: TreeOak, Enabled: true,
		Log: "minecraft:oak_log", LogX: "minecraft:oak_log[axis=x]", LogY: "minecraft:oak_log[axis=y]", LogZ: "minecraft:oak_log[axis=z]",
		Wood: "minecraft:oak_wood", WoodX: "minecraft:oak_wood[axis=x]", WoodZ: "minecraft:oak_wood[axis=z]",
		Leaves: "minecraft:oak_leaves",
	},
	BiomeForest: {
		Kind: TreeBirch, Enabled: true,
		Log: "minecraft:birch_log", LogX: "minecraft:birch_log[axis=x]", LogY: "minecraft:birch_log[axis=y]", LogZ: "minecraft:birch_log[axis=z]",
		Wood: "minecraft:birch_wood", WoodX: "minecraft:birch_wood[axis=x]", WoodZ: "minecraft:birch_wood[axis=z]",
		Leaves: "minecraft:birch_leaves",
	},
	BiomeJungle: {
		Kind: TreeJungle, Enabled: true,
		Log: "minecraft:jungle_log", LogX: "minecraft:jungle_log[axis=x]", LogY: "minecraft:jungle_log[axis=y]", LogZ: "minecraft:jungle_log[axis=z]",
		Wood: "minecraft:jungle_wood", WoodX: "minecraft:jungle_wood[axis=x]", WoodZ: "minecraft:jungle_wood[axis=z]",
		Leaves: "minecraft:jungle_leaves",
	},
	BiomeDesert:      {Enabled: false},
	BiomeBadlands:    {Enabled: false},
	BiomeOcean:       {Enabled: false},
	BiomeIceSpikes:   {Enabled: false},
	BiomeMushroom:    {Enabled: false},
	BiomeFeatureless: {Enabled: false},
	BiomeNetherWastes: {
		Kind: TreeCrimsonFungus, Enabled: true,
		Log: "minecraft:crimson_stem", LogX: "minecraft:crimson_stem[axis=x]", LogY: "minecraft:crimson_stem[axis=y]", LogZ: "minecraft:crimson_stem[axis=z]",
		Wood: "minecraft:crimson_hyphae", WoodX: "minecraft:crimson_hyphae[axis=x]", WoodZ: "minecraft:crimson_hyphae[axis=z]",
		Leaves: "minecraft:nether_wart_block",
	},
	BiomeCrimsonForest: {
		Kind: TreeCrimsonFungus, Enabled: true,
		Log: "minecraft:crimson_stem", LogX: "minecraft:crimson_stem[axis=x]", LogY: "minecraft:crimson_stem[axis=y]", LogZ: "minecraft:crimson_stem[axis=z]",
		Wood: "minecraft:crimson_hyphae", WoodX: "minecraft:crimson_hyphae[axis=x]", WoodZ: "minecraft:crimson_hyphae[axis=z]",
		Leaves: "minecraft:nether_wart_block",
	},
	BiomeWarpedForest: {
		Kind: TreeWarpedFungus, Enabled: true,
		Log: "minecraft:warped_stem", LogX: "minecraft:warped_stem[axis=x]", LogY: "minecraft:warped_stem[axis=y]", LogZ: "minecraft:warped_stem[axis=z]",
		Wood: "minecraft:warped_hyphae", WoodX: "minecraft:warped_hyphae[axis=x]", WoodZ: "minecraft:warped_hyphae[axis=z]",
		Leaves: "minecraft:warped_wart_block",
	},
	BiomeSoulSandValley: {Enabled: false},
	BiomeTheEnd:         {Enabled: false},
	BiomeEndHighlands: {
		Kind: TreeChorus, Enabled: true,
		Log: "minecraft:chorus_plant", LogX: "minecraft:chorus_plant", LogY: "minecraft:chorus_plant", LogZ: "minecraft:chorus_plant",
		Wood: "minecraft:chorus_plant", WoodX: "minecraft:chorus_plant", WoodZ: "minecraft:chorus_plant",
		Leaves: "minecraft:chorus_flower",
	},
}

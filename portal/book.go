package portal

import (
	"math/rand"

	"github.com/endlessdimensions/core/dimension"
)

const (
	minBookBiomes = 1
	maxBookBiomes = 4

	shuffleSaltXOR = int64(0x9E3779B97F4A7C15)

	surfaceSalt = int32(11)
	stoneSalt   = int32(23)
	liquidSalt  = int32(37)
)

// paletteOptions lists the fixed surface/stone/liquid candidates
// buildPaletteForSlot draws from for a given shell (spec.md §4.K). Only
// OverworldOpen is exercised by the book-resolution path today; other
// shells fall back to the same list rather than leaving slots unbuildable.
var paletteOptions = map[dimension.ShellType]struct {
	surface []string
	stone   []string
	liquid  []string
}{
	dimension.OverworldOpen: {
		surface: []string{"minecraft:grass_block", "minecraft:sand", "minecraft:podzol", "minecraft:mycelium", "minecraft:red_sand"},
		stone:   []string{"minecraft:stone", "minecraft:granite", "minecraft:diorite", "minecraft:andesite", "minecraft:deepslate"},
		liquid:  []string{"minecraft:water", "", "minecraft:lava"},
	},
}

func paletteOptionsFor(shell dimension.ShellType) (surface, stone, liquid []string) {
	opts, ok := paletteOptions[shell]
	if !ok {
		opts = paletteOptions[dimension.OverworldOpen]
	}
	return opts.surface, opts.stone, opts.liquid
}

// floorMod is Euclidean modulo: the result always shares b's sign (here,
// always non-negative for a positive b), matching the spec's floorMod
// semantics for buildPaletteForSlot's index arithmetic.
func floorMod(a, b int64) int64 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// mixIndex computes the deterministic selection index from spec.md §4.K:
// ((((int)seed XOR slot*0x9E3779B9 XOR salt*0x85EBCA6B) * 1664525 +
// 1013904223) mod numOptions), with 32-bit truncation of seed matching the
// "(int)seed" cast the spec calls out.
func mixIndex(seed int64, slot int, salt int32, numOptions int) int {
	if numOptions <= 0 {
		return 0
	}
	s := int32(seed) ^ int32(slot)*int32(0x9E3779B9) ^ salt*int32(0x85EBCA6B)
	mixed := s*1664525 + 1013904223
	return int(floorMod(int64(mixed), int64(numOptions)))
}

// buildPaletteForSlot derives a fully-determined PaletteDefinition for slot
// from seed using three independently-salted draws (spec.md §4.K).
func buildPaletteForSlot(shell dimension.ShellType, seed int64, slot int) dimension.PaletteDefinition {
	surface, stone, liquid := paletteOptionsFor(shell)

	surfaceBlock := surface[mixIndex(seed, slot, surfaceSalt, len(surface))]
	stoneBlock := stone[mixIndex(seed, slot, stoneSalt, len(stone))]
	liquidBlock := liquid[mixIndex(seed, slot, liquidSalt, len(liquid))]

	return dimension.PaletteDefinition{
		SurfaceBlock:    surfaceBlock,
		SubsurfaceBlock: stoneBlock,
		StoneBlock:      stoneBlock,
		LiquidBlock:     liquidBlock,
	}
}

// biomeSubset draws a deterministic, seed-derived subset of shell's biome
// pool: a count in [minBiomes,maxBiomes] from one seeded draw, then the
// first `count` entries of the pool after an independently-seeded shuffle
// (spec.md §4.K).
func biomeSubset(shell dimension.ShellType, seed int64) []dimension.BiomeTemplateID {
	countRNG := rand.New(rand.NewSource(seed))
	count := minBookBiomes + countRNG.Intn(maxBookBiomes-minBookBiomes+1)

	pool := append([]dimension.BiomeTemplateID(nil), shell.BiomePool()...)
	shuffleRNG := rand.New(rand.NewSource(seed ^ shuffleSaltXOR))
	shuffleRNG.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	if count > len(pool) {
		count = len(pool)
	}
	return pool[:count]
}

// resolveSelection expands one chosen biome-pool entry into a concrete
// BiomeSlot: if template is an overlay, a base biome is drawn uniformly
// from shell's base pool and template becomes the overlay; otherwise
// template is the base with no overlay. Tree-palette defaults follow the
// resolved base (spec.md §4.K).
func resolveSelection(shell dimension.ShellType, template dimension.BiomeTemplateID, rng *rand.Rand, slot int) dimension.BiomeSlot {
	base := template
	var overlay *dimension.BiomeTemplateID
	if template.IsOverlay() {
		basePool := shell.BasePool()
		base = basePool[rng.Intn(len(basePool))]
		t := template
		overlay = &t
	}

	biome := dimension.BiomeSlot{
		TemplateID:  base,
		PaletteSlot: slot,
		Trees:       dimension.TreePaletteDefaults(base),
	}
	if overlay != nil {
		biome.OverlayID = *overlay
		biome.HasOverlay = true
	}
	return biome
}

// DeriveBiomesAndPalettes builds the full, deterministic biomes/palettes
// pair for a non-custom DimensionDefinition (spec.md §4.K). Exported so
// offline tooling (cmd/packtool) can preview a book text's outcome without
// going through a running Router.
func DeriveBiomesAndPalettes(shell dimension.ShellType, seed int64) ([]dimension.BiomeSlot, map[int]dimension.PaletteDefinition) {
	subset := biomeSubset(shell, seed)
	rng := rand.New(rand.NewSource(seed))

	biomes := make([]dimension.BiomeSlot, 0, len(subset))
	palettes := make(map[int]dimension.PaletteDefinition, len(subset))
	for i, template := range subset {
		slot := i + 1
		biomes = append(biomes, resolveSelection(shell, template, rng, slot))
		palettes[slot] = buildPaletteForSlot(shell, seed, slot)
	}
	return biomes, palettes
}

package dimension

// BiomeTemplateID is the closed enum of biome templates from spec.md §3:
// base biomes plus the two overlay ids. Invariant: exactly the overlay
// variants return true for IsOverlay.
type BiomeTemplateID int

const (
	BiomePlains BiomeTemplateID = iota
	BiomeForest
	BiomeJungle
	BiomeDesert
	BiomeBadlands
	BiomeOcean
	BiomeIceSpikes
	BiomeMushroom
	BiomeFeatureless
	BiomeNetherWastes
	BiomeSoulSandValley
	BiomeCrimsonForest
	BiomeWarpedForest
	BiomeTheEnd
	BiomeEndHighlands
	// SpecialBetween and SpecialShapes are the two overlay variants.
	SpecialBetween
	SpecialShapes
)

var biomeNames = map[BiomeTemplateID]string{
	BiomePlains:         "PLAINS",
	BiomeForest:         "FOREST",
	BiomeJungle:         "JUNGLE",
	BiomeDesert:         "DESERT",
	BiomeBadlands:       "BADLANDS",
	BiomeOcean:          "OCEAN",
	BiomeIceSpikes:      "ICE_SPIKES",
	BiomeMushroom:       "MUSHROOM",
	BiomeFeatureless:    "FEATURELESS",
	BiomeNetherWastes:   "NETHER_WASTES",
	BiomeSoulSandValley: "SOUL_SAND_VALLEY",
	BiomeCrimsonForest:  "CRIMSON_FOREST",
	BiomeWarpedForest:   "WARPED_FOREST",
	BiomeTheEnd:         "THE_END",
	BiomeEndHighlands:   "END_HIGHLANDS",
	SpecialBetween:      "SPECIAL_BETWEEN",
	SpecialShapes:       "SPECIAL_SHAPES",
}

var biomeByName = func() map[string]BiomeTemplateID {
	m := make(map[string]BiomeTemplateID, len(biomeNames))
	for id, name := range biomeNames {
		m[name] = id
	}
	return m
}()

// String returns the stable name used in persisted JSON.
func (b BiomeTemplateID) String() string {
	if name, ok := biomeNames[b]; ok {
		return name
	}
	return "UNKNOWN"
}

// BiomeTemplateIDFromString parses a stable biome name back into its id.
func BiomeTemplateIDFromString(s string) (BiomeTemplateID, bool) {
	id, ok := biomeByName[s]
	return id, ok
}

// IsOverlay reports whether b is one of the two overlay variants
// (SPECIAL_BETWEEN, SPECIAL_SHAPES). Every other id is a base biome.
func (b BiomeTemplateID) IsOverlay() bool {
	return b == SpecialBetween || b == SpecialShapes
}

// TerraBiomeID returns the id used to locate this biome's template file
// under <pack>/biomes/ (§4.F step 5): "dim_template_<lowercase name>".
func (b BiomeTemplateID) TerraBiomeID() string {
	return "dim_template_" + lower(b.String())
}

// TerraOverlayID returns the id used to locate this overlay's template
// file under <pack>/biome_overlays/. Only meaningful when IsOverlay is
// true.
func (b BiomeTemplateID) TerraOverlayID() string {
	return "dim_overlay_" + lower(b.String())
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

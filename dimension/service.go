package dimension

import (
	"fmt"

	"github.com/endlessdimensions/core/customkey"
	"github.com/endlessdimensions/core/hashkey"
)

// DefinitionService composes the Registry with the CustomKeyRegistry and
// Resolver, per spec.md §4.E.
type DefinitionService struct {
	registry   *Registry
	customKeys *customkey.Registry
	resolver   *Resolver
}

// NewDefinitionService wires the three collaborators together.
func NewDefinitionService(registry *Registry, customKeys *customkey.Registry, resolver *Resolver) *DefinitionService {
	return &DefinitionService{registry: registry, customKeys: customKeys, resolver: resolver}
}

// ResolveOrCreate returns the Definition for text, creating and registering
// one if it does not yet exist. If the resolved id already exists, the
// stored record is returned verbatim and (shell, biomes, palettes) are
// ignored — deliberately, for determinism (spec.md §4.E, §9 Open Question:
// "the first registration wins").
func (s *DefinitionService) ResolveOrCreate(text string, shell ShellType, biomes []BiomeSlot, palettes map[int]PaletteDefinition) (Definition, ResolvedKey, error) {
	resolved := s.resolver.Resolve(text)
	if existing, ok := s.registry.Get(resolved.DimensionID); ok {
		return existing, resolved, nil
	}
	def, err := New(resolved.DimensionID, resolved.Seed, shell, biomes, palettes)
	if err != nil {
		return Definition{}, resolved, err
	}
	registered, err := s.registry.Register(def)
	return registered, resolved, err
}

// Resolve classifies text without creating or persisting anything — the
// cheap, in-memory-only half of ResolveOrCreate, used by callers (such as
// instance.Service) that need the resulting dimension id as a cache/
// coalescing key before committing to the I/O-bound build path.
func (s *DefinitionService) Resolve(text string) ResolvedKey {
	return s.resolver.Resolve(text)
}

// ResolveExisting looks up an already-registered Definition by dimension
// id, without creating one. Used by instance.Service's by-id build path,
// which fails with UnknownDefinition if nothing is registered (spec.md
// §4.G, §7).
func (s *DefinitionService) ResolveExisting(dimensionID string) (Definition, bool) {
	return s.registry.Get(dimensionID)
}

// RegisterCustomDefinition mints a fresh custom key, derives the id and
// seed from its normalized form, registers both the custom-key mapping and
// the Definition, and returns the minted key to the caller (spec.md §4.E).
func (s *DefinitionService) RegisterCustomDefinition(shell ShellType, biomes []BiomeSlot, palettes map[int]PaletteDefinition) (string, Definition, error) {
	key, err := s.customKeys.GenerateKey()
	if err != nil {
		return "", Definition{}, fmt.Errorf("dimension: mint custom key: %w", err)
	}
	dimensionID := customkey.DimensionIDFor(key)
	// Spec.md §4.E: derive the id and seed from the *normalized* key, not
	// the Resolver's GENERATED branch (which intentionally hashes raw text).
	seed := hashkey.Seed64(hashkey.Normalize(key))

	def, err := New(dimensionID, seed, shell, biomes, palettes)
	if err != nil {
		return "", Definition{}, err
	}
	if _, err := s.registry.Register(def); err != nil {
		return "", Definition{}, err
	}
	if err := s.customKeys.Register(key, dimensionID); err != nil {
		return "", Definition{}, fmt.Errorf("dimension: persist custom key mapping: %w", err)
	}
	return key, def, nil
}

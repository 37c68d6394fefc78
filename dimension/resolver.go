package dimension

import (
	"github.com/endlessdimensions/core/customkey"
	"github.com/endlessdimensions/core/easteregg"
	"github.com/endlessdimensions/core/hashkey"
)

// KeyType classifies how a ResolvedKey's id was derived (spec.md §3).
type KeyType int

const (
	Custom KeyType = iota
	EasterEgg
	Generated
)

func (t KeyType) String() string {
	switch t {
	case Custom:
		return "CUSTOM"
	case EasterEgg:
		return "EASTER_EGG"
	case Generated:
		return "GENERATED"
	default:
		return "UNKNOWN"
	}
}

// ResolvedKey is the output of Resolver.Resolve (spec.md §3).
type ResolvedKey struct {
	NormalizedKey string
	DimensionID   string
	Seed          int64
	Type          KeyType
}

// Resolver classifies free-form text into CUSTOM, EASTER_EGG, or GENERATED
// and derives the resulting dimension id and seed, per spec.md §4.D.
type Resolver struct {
	customKeys *customkey.Registry
}

// NewResolver builds a Resolver backed by the given CustomKeyRegistry.
func NewResolver(customKeys *customkey.Registry) *Resolver {
	return &Resolver{customKeys: customKeys}
}

// Resolve classifies text in the order spec.md §4.D prescribes: CUSTOM
// first, then EASTER_EGG, and only then GENERATED — the one branch that
// hashes the raw (non-normalized) text, so that differently-cased spellings
// of the same word produce different GENERATED dimensions while sharing a
// CUSTOM or EASTER_EGG one.
func (r *Resolver) Resolve(text string) ResolvedKey {
	normalized := hashkey.Normalize(text)

	if id, ok := r.customKeys.Resolve(normalized); ok {
		return ResolvedKey{
			NormalizedKey: normalized,
			DimensionID:   id,
			Seed:          hashkey.Seed64(normalized),
			Type:          Custom,
		}
	}
	if easteregg.IsEasterEgg(normalized) {
		return ResolvedKey{
			NormalizedKey: normalized,
			DimensionID:   easteregg.DimensionIDFor(normalized),
			Seed:          hashkey.Seed64(normalized),
			Type:          EasterEgg,
		}
	}
	seed := hashkey.Seed64(text)
	return ResolvedKey{
		NormalizedKey: normalized,
		DimensionID:   hashkey.DimensionIDFromSeed(seed),
		Seed:          seed,
		Type:          Generated,
	}
}

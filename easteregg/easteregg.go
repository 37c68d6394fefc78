// Package easteregg implements the closed catalog of curated keys described
// in spec.md §4.B — 47 literal, lowercase English words that resolve to a
// stable EASTER_EGG dimension instead of a procedurally generated one.
package easteregg

import "github.com/endlessdimensions/core/internal/idsanitize"

const dimensionPrefix = "endlessdimensions:easter_"

// keys is the fixed, 47-entry set from spec.md's GLOSSARY. It is never
// extended at runtime — see spec.md §9 "closed worlds that never add
// members at runtime".
var keys = map[string]struct{}{
	"ant": {}, "library": {}, "credits": {}, "cherry": {}, "bones": {}, "busy": {},
	"colors": {}, "custom": {}, "darkness": {}, "decay": {}, "desert": {}, "end": {},
	"fleet": {}, "garden": {}, "hole": {}, "island": {}, "liquids": {}, "lucky": {},
	"map": {}, "message": {}, "missing": {}, "mushroom": {}, "ocean": {}, "origin": {},
	"pattern": {}, "perfect": {}, "pillar": {}, "pizza": {}, "prison": {}, "quarry": {},
	"red": {}, "rooms": {}, "shapes": {}, "sky": {}, "slime": {}, "snow": {}, "source": {},
	"spiral": {}, "sports": {}, "stone": {}, "suite": {}, "temples": {}, "tunnels": {},
	"wall": {}, "water": {}, "wind": {}, "zoo": {},
}

// IsEasterEgg reports whether normalized (already produced by
// hashkey.Normalize) is one of the 47 curated keys.
func IsEasterEgg(normalized string) bool {
	_, ok := keys[normalized]
	return ok
}

// DimensionIDFor computes the EASTER_EGG dimension id for a normalized key,
// per spec.md §4.B.
func DimensionIDFor(normalized string) string {
	return dimensionPrefix + idsanitize.Sanitize(normalized, "unknown")
}

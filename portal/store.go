package portal

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/df-mc/jsonc"
	"github.com/google/uuid"

	"github.com/endlessdimensions/core/internal/atomicfile"
)

const storeVersion = 2

const (
	bindingsFileName      = "portal-bindings.json"
	legacyBindingsSubpath = "plugin-data/portal-bindings.json"
)

type fileJSON struct {
	Version  int           `json:"version"`
	Bindings []bindingJSON `json:"bindings"`
	Legacy   []legacyJSON  `json:"legacy,omitempty"`
}

type coordJSON struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type fromJSON struct {
	Dimension string    `json:"dimension"`
	Axis      string    `json:"axis"`
	Min       coordJSON `json:"min"`
	Max       coordJSON `json:"max"`
}

type portalRefJSON struct {
	Dimension string    `json:"dimension"`
	Axis      string    `json:"axis"`
	Min       coordJSON `json:"min"`
	Max       coordJSON `json:"max"`
}

type toJSON struct {
	Dimension string         `json:"dimension"`
	X         float64        `json:"x"`
	Y         float64        `json:"y"`
	Z         float64        `json:"z"`
	Yaw       float32        `json:"yaw"`
	Pitch     float32        `json:"pitch"`
	Portal    *portalRefJSON `json:"portal,omitempty"`
}

type bindingJSON struct {
	From   fromJSON `json:"from"`
	Type   string   `json:"type"`
	LinkID string   `json:"linkId"`
	To     toJSON   `json:"to"`
}

// legacyJSON tolerates both documented v1 shapes: a nested
// {"from":{dimension,x,z}} object, or a flat {dimensionKey,blockX,blockZ}
// object (spec.md §4.J).
type legacyJSON struct {
	From         *legacyFromJSON `json:"from,omitempty"`
	ToDimension  string          `json:"toDimension,omitempty"`
	DimensionKey string          `json:"dimensionKey,omitempty"`
	BlockX       *int            `json:"blockX,omitempty"`
	BlockZ       *int            `json:"blockZ,omitempty"`
	DimensionID  string          `json:"dimensionId,omitempty"`
}

type legacyFromJSON struct {
	Dimension string `json:"dimension"`
	X         int    `json:"x"`
	Z         int    `json:"z"`
}

func axisFromString(s string) (Axis, bool) {
	switch s {
	case "X":
		return AxisX, true
	case "Z":
		return AxisZ, true
	default:
		return 0, false
	}
}

func linkTypeFromString(s string) (LinkType, bool) {
	switch s {
	case "DEFAULT":
		return Default, true
	case "BOOK_LINKED":
		return BookLinked, true
	default:
		return 0, false
	}
}

// loadFile locates and parses the portal bindings file, falling back to
// the legacy path if the primary one is missing (spec.md §4.J). It returns
// the decoded links and legacy bindings, skipping (with a warning) any
// entry that fails to parse rather than failing the whole load.
func loadFile(dataDir string, log *slog.Logger) (links map[Key]Link, legacy map[LegacyKey]LegacyLink, err error) {
	links = make(map[Key]Link)
	legacy = make(map[LegacyKey]LegacyLink)

	primary := filepath.Join(dataDir, bindingsFileName)
	raw, readErr := os.ReadFile(primary)
	if readErr != nil {
		if !os.IsNotExist(readErr) {
			return nil, nil, fmt.Errorf("portal: read %s: %w", primary, readErr)
		}
		fallback := filepath.Join(dataDir, legacyBindingsSubpath)
		raw, readErr = os.ReadFile(fallback)
		if readErr != nil {
			if os.IsNotExist(readErr) {
				return links, legacy, nil
			}
			return nil, nil, fmt.Errorf("portal: read %s: %w", fallback, readErr)
		}
		log.Warn("portal bindings loaded from legacy location", "path", fallback)
	}

	var file fileJSON
	if err := json.Unmarshal(jsonc.ToJSON(raw), &file); err != nil {
		return nil, nil, fmt.Errorf("portal: parse bindings file: %w", err)
	}

	if file.Version >= 2 {
		for _, b := range file.Bindings {
			k, l, ok := decodeBinding(b, log)
			if !ok {
				continue
			}
			links[k] = l
		}
		for _, le := range file.Legacy {
			lk, ll, ok := decodeLegacy(le, log)
			if !ok {
				continue
			}
			legacy[lk] = ll
		}
		return links, legacy, nil
	}

	// version < 2: the whole file is legacy-shaped bindings.
	for _, le := range file.Legacy {
		lk, ll, ok := decodeLegacy(le, log)
		if !ok {
			continue
		}
		legacy[lk] = ll
	}
	return links, legacy, nil
}

func decodeBinding(b bindingJSON, log *slog.Logger) (Key, Link, bool) {
	axis, ok := axisFromString(b.From.Axis)
	if !ok {
		log.Warn("skipping portal binding with unknown axis", "axis", b.From.Axis)
		return Key{}, Link{}, false
	}
	typ, ok := linkTypeFromString(b.Type)
	if !ok {
		log.Warn("skipping portal binding with unknown type", "type", b.Type)
		return Key{}, Link{}, false
	}
	id, err := uuid.Parse(b.LinkID)
	if err != nil {
		log.Warn("skipping portal binding with invalid linkId", "linkId", b.LinkID, "error", err)
		return Key{}, Link{}, false
	}

	k := NewKey(b.From.Dimension, axis,
		BlockPos{X: b.From.Min.X, Y: b.From.Min.Y, Z: b.From.Min.Z},
		BlockPos{X: b.From.Max.X, Y: b.From.Max.Y, Z: b.From.Max.Z})

	dest := Destination{
		DimensionID: b.To.Dimension,
		X:           b.To.X,
		Y:           b.To.Y,
		Z:           b.To.Z,
		Yaw:         b.To.Yaw,
		Pitch:       b.To.Pitch,
	}
	if b.To.Portal != nil {
		pAxis, ok := axisFromString(b.To.Portal.Axis)
		if ok {
			pk := NewKey(b.To.Portal.Dimension, pAxis,
				BlockPos{X: b.To.Portal.Min.X, Y: b.To.Portal.Min.Y, Z: b.To.Portal.Min.Z},
				BlockPos{X: b.To.Portal.Max.X, Y: b.To.Portal.Max.Y, Z: b.To.Portal.Max.Z})
			dest.Portal = &pk
		}
	}

	return k, Link{Type: typ, LinkID: id, Destination: dest}, true
}

func decodeLegacy(le legacyJSON, log *slog.Logger) (LegacyKey, LegacyLink, bool) {
	if le.From != nil {
		return LegacyKey{DimensionID: le.From.Dimension, BlockX: le.From.X, BlockZ: le.From.Z},
			LegacyLink{ToDimensionID: le.ToDimension}, true
	}
	if le.DimensionKey != "" && le.BlockX != nil && le.BlockZ != nil {
		return LegacyKey{DimensionID: le.DimensionKey, BlockX: *le.BlockX, BlockZ: *le.BlockZ},
			LegacyLink{ToDimensionID: le.DimensionID}, true
	}
	log.Warn("skipping unrecognized legacy portal binding shape")
	return LegacyKey{}, LegacyLink{}, false
}

// saveFile writes links and legacy out in the current (v2) schema via
// temp-file + atomic-rename (spec.md §4.J, §9).
func saveFile(dataDir string, links map[Key]Link, legacy map[LegacyKey]LegacyLink) error {
	file := fileJSON{Version: storeVersion}

	for k, l := range links {
		b := bindingJSON{
			From: fromJSON{
				Dimension: k.DimensionID,
				Axis:      k.Axis.String(),
				Min:       coordJSON{X: k.Min.X, Y: k.Min.Y, Z: k.Min.Z},
				Max:       coordJSON{X: k.Max.X, Y: k.Max.Y, Z: k.Max.Z},
			},
			Type:   l.Type.String(),
			LinkID: l.LinkID.String(),
			To: toJSON{
				Dimension: l.Destination.DimensionID,
				X:         l.Destination.X,
				Y:         l.Destination.Y,
				Z:         l.Destination.Z,
				Yaw:       l.Destination.Yaw,
				Pitch:     l.Destination.Pitch,
			},
		}
		if p := l.Destination.Portal; p != nil {
			b.To.Portal = &portalRefJSON{
				Dimension: p.DimensionID,
				Axis:      p.Axis.String(),
				Min:       coordJSON{X: p.Min.X, Y: p.Min.Y, Z: p.Min.Z},
				Max:       coordJSON{X: p.Max.X, Y: p.Max.Y, Z: p.Max.Z},
			}
		}
		file.Bindings = append(file.Bindings, b)
	}
	for lk, ll := range legacy {
		file.Legacy = append(file.Legacy, legacyJSON{
			From:        &legacyFromJSON{Dimension: lk.DimensionID, X: lk.BlockX, Z: lk.BlockZ},
			ToDimension: ll.ToDimensionID,
		})
	}

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("portal: marshal bindings: %w", err)
	}
	path := filepath.Join(dataDir, bindingsFileName)
	if err := atomicfile.Write(path, raw, 0o644); err != nil {
		return fmt.Errorf("portal: write %s: %w", path, err)
	}
	return nil
}

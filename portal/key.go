// Package portal implements the persistent, bidirectional portal-link graph
// from spec.md §4.H-§4.K: flood-fill portal detection, a chunk-indexed
// lookup, versioned JSON persistence with legacy migration, and the router
// that drives player/book/block-update traversal.
package portal

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Axis is the horizontal direction a portal's rectangular plane extends
// along (spec.md §3's PortalAxis); the frame's normal runs perpendicular.
type Axis int

const (
	AxisX Axis = iota
	AxisZ
)

func (a Axis) String() string {
	if a == AxisX {
		return "X"
	}
	return "Z"
}

// BlockPos is an integer block coordinate.
type BlockPos struct {
	X, Y, Z int
}

// Key is the canonical identity of a physical portal: a dimension id, the
// axis its plane extends along, and its normalized (min ≤ max componentwise)
// bounding corners (spec.md §3's PortalKey).
type Key struct {
	DimensionID string
	Axis        Axis
	Min, Max    BlockPos
}

// NewKey normalizes two opposite corners of a detected portal into a Key.
// NewKey(a, b) == NewKey(b, a) for any two corners of the same portal.
func NewKey(dimensionID string, axis Axis, a, b BlockPos) Key {
	return Key{
		DimensionID: dimensionID,
		Axis:        axis,
		Min: BlockPos{
			X: min(a.X, b.X),
			Y: min(a.Y, b.Y),
			Z: min(a.Z, b.Z),
		},
		Max: BlockPos{
			X: max(a.X, b.X),
			Y: max(a.Y, b.Y),
			Z: max(a.Z, b.Z),
		},
	}
}

// Contains reports whether (x,y,z) lies within this portal's footprint,
// using the axis-aware test from spec.md §4.K: a Z-axis portal lives on a
// fixed z plane and spans x and y; an X-axis portal lives on a fixed x
// plane and spans z and y.
func (k Key) Contains(x, y, z int) bool {
	if y < k.Min.Y || y > k.Max.Y {
		return false
	}
	switch k.Axis {
	case AxisZ:
		return z == k.Min.Z && x >= k.Min.X && x <= k.Max.X
	default:
		return x == k.Min.X && z >= k.Min.Z && z <= k.Max.Z
	}
}

// Center returns the floating-point block-center position of this portal's
// bounding box.
func (k Key) Center() mgl64.Vec3 {
	return mgl64.Vec3{
		float64(k.Min.X+k.Max.X)/2 + 0.5,
		float64(k.Min.Y+k.Max.Y)/2 + 0.5,
		float64(k.Min.Z+k.Max.Z)/2 + 0.5,
	}
}

// LinkType classifies a PortalLink (spec.md §3).
type LinkType int

const (
	Default LinkType = iota
	BookLinked
)

func (t LinkType) String() string {
	if t == BookLinked {
		return "BOOK_LINKED"
	}
	return "DEFAULT"
}

// Destination is a fully-resolved teleport target: a position and look
// angles in a dimension, optionally anchored to a specific physical portal
// (spec.md §3's DestinationRef). If Portal is set, Portal.DimensionID must
// equal DimensionID.
type Destination struct {
	DimensionID string
	X, Y, Z     float64
	Yaw, Pitch  float32
	Portal      *Key
}

// Link binds a source portal to a Destination (spec.md §3's PortalLink).
type Link struct {
	Type        LinkType
	LinkID      uuid.UUID
	Destination Destination
}

// LegacyKey identifies a pre-v2, single-column portal binding (spec.md §3).
type LegacyKey struct {
	DimensionID string
	BlockX, BlockZ int
}

// LegacyLink is the read-only legacy binding LegacyKey resolves to, upgraded
// to a full Link on first traversal (spec.md §4.J, §4.K).
type LegacyLink struct {
	ToDimensionID string
}

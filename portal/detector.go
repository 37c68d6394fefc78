package portal

// World is the narrow read-only surface PortalDetector needs from an
// Instance to classify and flood-fill a portal (spec.md §4.H). It mirrors
// instance.Tx/Instance but stays decoupled from the instance package so
// portal has no import-time dependency on the engine binding.
type World interface {
	IsPortalBlock(pos BlockPos) bool
	MinY() int
	MaxY() int
}

// directions returns the 4-neighbor offsets BFS may step along for the
// given axis: the two horizontal directions the portal's plane spans, plus
// ±Y. An AxisZ portal sits on a fixed z and spans x; an AxisX portal sits on
// a fixed x and spans z. A flood-fill restricted to that plane never crosses
// into a neighboring, differently-aligned frame.
func directions(axis Axis) []BlockPos {
	if axis == AxisX {
		return []BlockPos{{Z: 1}, {Z: -1}, {Y: 1}, {Y: -1}}
	}
	return []BlockPos{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}}
}

// Detect flood-fills the portal block group containing start and returns
// its normalized Key, or ok=false if start is not itself a portal block
// (spec.md §4.H).
func Detect(w World, dimensionID string, start BlockPos) (key Key, ok bool) {
	if !w.IsPortalBlock(start) {
		return Key{}, false
	}

	axis := detectAxis(w, start)

	visited := map[BlockPos]bool{start: true}
	queue := []BlockPos{start}
	min, max := start, start

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.X < min.X {
			min.X = cur.X
		}
		if cur.Y < min.Y {
			min.Y = cur.Y
		}
		if cur.Z < min.Z {
			min.Z = cur.Z
		}
		if cur.X > max.X {
			max.X = cur.X
		}
		if cur.Y > max.Y {
			max.Y = cur.Y
		}
		if cur.Z > max.Z {
			max.Z = cur.Z
		}

		for _, d := range directions(axis) {
			next := BlockPos{X: cur.X + d.X, Y: cur.Y + d.Y, Z: cur.Z + d.Z}
			if visited[next] {
				continue
			}
			if !w.IsPortalBlock(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	return NewKey(dimensionID, axis, min, max), true
}

// detectAxis picks the initial axis per spec.md §4.H: if a ±X neighbor is
// also a portal block the frame spans Z; else if a ±Z neighbor is a
// portal block it spans X; a single isolated block defaults to Z.
//
// Open question (spec.md, Open Questions): the source does not specify
// intended behavior for a degenerate single-block portal with no
// horizontal neighbors. The default-to-Z behavior is preserved as
// documented rather than guessed at.
func detectAxis(w World, start BlockPos) Axis {
	plusX := BlockPos{X: start.X + 1, Y: start.Y, Z: start.Z}
	minusX := BlockPos{X: start.X - 1, Y: start.Y, Z: start.Z}
	if w.IsPortalBlock(plusX) || w.IsPortalBlock(minusX) {
		return AxisZ
	}
	plusZ := BlockPos{X: start.X, Y: start.Y, Z: start.Z + 1}
	minusZ := BlockPos{X: start.X, Y: start.Y, Z: start.Z - 1}
	if w.IsPortalBlock(plusZ) || w.IsPortalBlock(minusZ) {
		return AxisX
	}
	return AxisZ
}

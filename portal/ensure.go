package portal

import "github.com/endlessdimensions/core/instance"

// ensureDestinationPortal implements spec.md §4.K's ensureDestinationPortal:
// reuse preferredPortal if still valid, else search the preferred chunks
// for a reusable unlinked/DEFAULT portal, else build a fresh one.
func (r *Router) ensureDestinationPortal(dest Instance, dimensionID string, preferredPos BlockPos, axis Axis, preferredPortal *Key, allowReuse bool) (Key, error) {
	if preferredPortal != nil {
		loadChunks(dest, chunksOf(*preferredPortal))
		if portalStillExists(dest, *preferredPortal) {
			r.index.Insert(*preferredPortal)
			return *preferredPortal, nil
		}
		dest.RebuildFrame(*preferredPortal)
		r.index.Insert(*preferredPortal)
		return *preferredPortal, nil
	}

	cr := chunkRangeAround(preferredPos, reusePadding)
	loadChunks(dest, chunkRangeCoords(cr))

	if allowReuse {
		for _, candidate := range r.index.GetRange(dimensionID, cr.MinX, cr.MaxX, cr.MinZ, cr.MaxZ) {
			link, ok := r.registry.Link(candidate)
			if !ok || link.Type == Default {
				return candidate, nil
			}
		}
		if k, ok := scanForPortal(dest, dimensionID, cr); ok {
			r.index.Insert(k)
			return k, nil
		}
	}

	key := dest.PlaceFrame(preferredPos, axis)
	r.index.Insert(key)
	return key, nil
}

// portalStillExists re-runs the flood-fill from k's minimum corner and
// checks it still yields the same bounding box; any mismatch (including the
// corner no longer being a portal block at all) means the frame is gone.
func portalStillExists(dest Instance, k Key) bool {
	got, ok := Detect(dest, k.DimensionID, k.Min)
	if !ok {
		return false
	}
	return got.Min == k.Min && got.Max == k.Max && got.Axis == k.Axis
}

func chunkRangeAround(pos BlockPos, padding int) ChunkRange {
	cx, cz := floorDivChunk(pos.X), floorDivChunk(pos.Z)
	return ChunkRange{MinX: cx - padding, MaxX: cx + padding, MinZ: cz - padding, MaxZ: cz + padding}
}

func chunkRangeCoords(cr ChunkRange) []struct{ X, Z int } {
	var out []struct{ X, Z int }
	for cx := cr.MinX; cx <= cr.MaxX; cx++ {
		for cz := cr.MinZ; cz <= cr.MaxZ; cz++ {
			out = append(out, struct{ X, Z int }{cx, cz})
		}
	}
	return out
}

func loadChunks(dest Instance, coords []struct{ X, Z int }) {
	for _, c := range coords {
		dest.LoadChunk(instance.ChunkXZ{X: c.X, Z: c.Z})
	}
}

// scanForPortal walks every block in cr's chunk range, at every Y level in
// dest's build range, looking for the first portal block; if found, it
// flood-fills from there and returns the resulting Key. This mirrors
// spec.md §4.K's "scan the chunks by Y-range... detecting portals with the
// flood-fill" reuse fallback.
func scanForPortal(dest Instance, dimensionID string, cr ChunkRange) (Key, bool) {
	minY, maxY := dest.MinY(), dest.MaxY()
	for cx := cr.MinX; cx <= cr.MaxX; cx++ {
		for cz := cr.MinZ; cz <= cr.MaxZ; cz++ {
			baseX, baseZ := cx*16, cz*16
			for dx := 0; dx < 16; dx++ {
				for dz := 0; dz < 16; dz++ {
					for y := minY; y <= maxY; y++ {
						pos := BlockPos{X: baseX + dx, Y: y, Z: baseZ + dz}
						if !dest.IsPortalBlock(pos) {
							continue
						}
						if k, ok := Detect(dest, dimensionID, pos); ok {
							return k, true
						}
					}
				}
			}
		}
	}
	return Key{}, false
}

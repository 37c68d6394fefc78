package portal

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// chunkKey packs a chunk coordinate pair into the single int64 the spec
// calls packedChunkKey (spec.md §4.I).
func chunkKey(chunkX, chunkZ int) int64 {
	return int64((uint64(uint32(chunkX)) << 32) | uint64(uint32(chunkZ)))
}

// floorDivChunk converts a block coordinate to its containing chunk
// coordinate, matching Minecraft's floorDiv(coord, 16).
func floorDivChunk(coord int) int {
	if coord >= 0 {
		return coord >> 4
	}
	return -(((-coord - 1) >> 4) + 1)
}

// keyID is a stable int64 identity for a Key, used as the element stored
// in each chunk's portal-key set and as the reverse lookup into a
// dimensionIndex's registry. Collisions are astronomically unlikely for
// the number of portals any single server will ever register — the same
// tradeoff hashkey.Seed64 already makes for dimension ids.
func keyID(k Key) int64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(k.Axis))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(k.Min.X))^uint64(int64(k.Min.Y))<<16^uint64(int64(k.Min.Z))<<32)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(int64(k.Max.X))^uint64(int64(k.Max.Y))<<16^uint64(int64(k.Max.Z))<<32)

	h := xxhash.New()
	_, _ = h.Write(buf[:])
	_, _ = h.WriteString(k.DimensionID)
	return int64(h.Sum64())
}

// dimensionIndex is the per-dimension half of Index: a chunk-keyed set of
// portal-key ids, plus the reverse id→Key table needed to turn a chunk
// bucket's members back into full Keys.
type dimensionIndex struct {
	chunks   map[int64]map[int64]struct{}
	registry map[int64]Key
}

func newDimensionIndex() *dimensionIndex {
	return &dimensionIndex{
		chunks:   make(map[int64]map[int64]struct{}),
		registry: make(map[int64]Key),
	}
}

// Index is the concurrency-safe, two-level chunk-keyed PortalKey lookup
// from spec.md §4.I: DimensionKey → packedChunkKey → set<PortalKey>.
type Index struct {
	mu   sync.RWMutex
	dims map[string]*dimensionIndex
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{dims: make(map[string]*dimensionIndex)}
}

// chunksOf returns every chunk coordinate a portal's bounding box
// intersects.
func chunksOf(k Key) []struct{ X, Z int } {
	minCX, maxCX := floorDivChunk(k.Min.X), floorDivChunk(k.Max.X)
	minCZ, maxCZ := floorDivChunk(k.Min.Z), floorDivChunk(k.Max.Z)
	var out []struct{ X, Z int }
	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			out = append(out, struct{ X, Z int }{cx, cz})
		}
	}
	return out
}

// Insert adds k to every chunk bucket its bounding box covers.
func (idx *Index) Insert(k Key) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	d, ok := idx.dims[k.DimensionID]
	if !ok {
		d = newDimensionIndex()
		idx.dims[k.DimensionID] = d
	}
	id := keyID(k)
	d.registry[id] = k

	for _, c := range chunksOf(k) {
		ck := chunkKey(c.X, c.Z)
		bucket, ok := d.chunks[ck]
		if !ok {
			bucket = make(map[int64]struct{})
			d.chunks[ck] = bucket
		}
		bucket[id] = struct{}{}
	}
}

// Remove drops k from every chunk bucket it was inserted into; empty
// per-chunk buckets and empty per-dimension maps are collapsed.
func (idx *Index) Remove(k Key) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	d, ok := idx.dims[k.DimensionID]
	if !ok {
		return
	}
	id := keyID(k)
	delete(d.registry, id)

	for _, c := range chunksOf(k) {
		ck := chunkKey(c.X, c.Z)
		bucket, ok := d.chunks[ck]
		if !ok {
			continue
		}
		delete(bucket, id)
		if len(bucket) == 0 {
			delete(d.chunks, ck)
		}
	}
	if len(d.chunks) == 0 {
		delete(idx.dims, k.DimensionID)
	}
}

// Get returns every PortalKey registered in dimensionID's chunk (chunkX,
// chunkZ) bucket.
func (idx *Index) Get(dimensionID string, chunkX, chunkZ int) []Key {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.dims[dimensionID]
	if !ok {
		return nil
	}
	bucket, ok := d.chunks[chunkKey(chunkX, chunkZ)]
	if !ok {
		return nil
	}
	out := make([]Key, 0, len(bucket))
	for id := range bucket {
		if k, ok := d.registry[id]; ok {
			out = append(out, k)
		}
	}
	return out
}

// GetRange returns every PortalKey registered in any chunk covered by the
// rectangle of chunk coordinates [minCX,maxCX]×[minCZ,maxCZ], deduplicated.
func (idx *Index) GetRange(dimensionID string, minCX, maxCX, minCZ, maxCZ int) []Key {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.dims[dimensionID]
	if !ok {
		return nil
	}
	seen := make(map[int64]bool)
	var out []Key
	for cx := minCX; cx <= maxCX; cx++ {
		for cz := minCZ; cz <= maxCZ; cz++ {
			bucket, ok := d.chunks[chunkKey(cx, cz)]
			if !ok {
				continue
			}
			for id := range bucket {
				if seen[id] {
					continue
				}
				seen[id] = true
				if k, ok := d.registry[id]; ok {
					out = append(out, k)
				}
			}
		}
	}
	return out
}

// ContainingChunk locates any registered Key covering block (x,y,z), by
// scanning the chunk that block falls in and testing each candidate with
// Key.Contains. Returns ok=false if none matches.
func (idx *Index) ContainingChunk(dimensionID string, x, y, z int) (Key, bool) {
	for _, k := range idx.Get(dimensionID, floorDivChunk(x), floorDivChunk(z)) {
		if k.Contains(x, y, z) {
			return k, true
		}
	}
	return Key{}, false
}

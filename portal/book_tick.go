package portal

import (
	"github.com/google/uuid"

	"github.com/endlessdimensions/core/dimension"
)

// newDimensionSpawn is the anchor book-created destination portals are
// centered on: nothing in the source material pins this to a specific
// coordinate, so a fixed near-surface point is used for every freshly
// materialized book dimension.
var newDimensionSpawn = BlockPos{X: 0, Y: 64, Z: 0}

// bookShell is the ShellType assigned to book-resolved, non-custom
// dimensions. The distilled source doesn't expose a way to pick a shell
// from free text, so every book-triggered GENERATED/EASTER_EGG dimension
// uses the one fully fleshed-out shell.
const bookShell = dimension.OverworldOpen

// HandleBookTick implements spec.md §4.K's item-entity-tick event: a
// written/writable book at a portal, read by a nearby player, resolves to
// (and bidirectionally links to) a new or existing dimension.
func (r *Router) HandleBookTick(world Instance, sourceDimensionID string, book Book) {
	if _, done := r.processedBooks.Load(book.UUID()); done {
		return
	}

	if _, ok := book.NearbyPlayer(bookRadius); !ok {
		return
	}

	sourceKey, ok := Detect(world, sourceDimensionID, book.BlockPosition())
	if !ok {
		return
	}
	r.index.Insert(sourceKey)

	text, ok := book.Text()
	if !ok || text == "" {
		return
	}

	resolved := r.defs.Resolve(text)

	var dest Instance
	var err error
	if resolved.Type == dimension.Custom {
		dest, err = r.instances.ResolveOrBuildByID(resolved.DimensionID)
	} else {
		biomes, palettes := DeriveBiomesAndPalettes(bookShell, resolved.Seed)
		dest, err = r.instances.CreateOrResolveInstance(text, bookShell, biomes, palettes)
	}
	if err != nil {
		r.log.Warn("portal: failed to resolve book destination instance", "error", err)
		return
	}

	destKey, err := r.ensureDestinationPortal(dest, resolved.DimensionID, newDimensionSpawn, sourceKey.Axis, nil, false)
	if err != nil {
		r.log.Warn("portal: failed to create book destination portal", "error", err)
		return
	}

	// Both directions of a book-triggered link share one linkId (spec.md
	// §4.K: "both directions' links share the same linkId").
	linkID := uuid.New()

	fc := destKey.Center()
	forward := Link{
		Type:   BookLinked,
		LinkID: linkID,
		Destination: Destination{
			DimensionID: resolved.DimensionID,
			X:           fc[0], Y: fc[1], Z: fc[2],
			Portal: &destKey,
		},
	}
	r.registry.PutLink(sourceKey, forward)

	rc := sourceKey.Center()
	reverse := Link{
		Type:   BookLinked,
		LinkID: linkID,
		Destination: Destination{
			DimensionID: sourceDimensionID,
			X:           rc[0], Y: rc[1], Z: rc[2],
			Portal: &sourceKey,
		},
	}
	r.registry.PutLink(destKey, reverse)
	r.registry.Save()

	book.Consume()
	r.processedBooks.Store(book.UUID(), struct{}{})
}

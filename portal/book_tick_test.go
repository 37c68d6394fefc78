package portal_test

import (
	"testing"

	"github.com/endlessdimensions/core/customkey"
	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/portal"
)

func newTestDefinitionService(t *testing.T) *dimension.DefinitionService {
	t.Helper()
	dir := t.TempDir()
	customKeys, err := customkey.Load(dir, discardLogger())
	if err != nil {
		t.Fatalf("customkey.Load: %v", err)
	}
	registry, err := dimension.LoadRegistry(dir, discardLogger())
	if err != nil {
		t.Fatalf("dimension.LoadRegistry: %v", err)
	}
	resolver := dimension.NewResolver(customKeys)
	return dimension.NewDefinitionService(registry, customKeys, resolver)
}

func TestHandleBookTickCreatesBidirectionalLinkedDimension(t *testing.T) {
	source := newFakeInstanceWorld()
	sourceFrame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(sourceFrame)

	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	reg, err := portal.LoadRegistry(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	idx := portal.NewIndex()
	defs := newTestDefinitionService(t)
	router := portal.NewRouter(reg, idx, instances, baseWorlds, defs, discardLogger())

	reader := newFakePlayer(portal.BlockPos{X: 0, Y: 64, Z: 0})
	book := &fakeBook{
		blockAt: portal.BlockPos{X: 0, Y: 64, Z: 0},
		text:    "a whispering library of forgotten stories",
		hasText: true,
		nearby:  reader,
		hasNear: true,
	}

	router.HandleBookTick(source, "minecraft:overworld", book)

	if !book.consumed {
		t.Fatalf("expected the book to be consumed")
	}
	if len(instances.createCalls) != 1 {
		t.Fatalf("expected exactly one generated-dimension instance to be created, got %d", len(instances.createCalls))
	}

	forward, ok := reg.Link(sourceFrame)
	if !ok {
		t.Fatalf("expected a forward link from the source portal")
	}
	if forward.Type != portal.BookLinked {
		t.Fatalf("expected a BOOK_LINKED forward link, got %v", forward.Type)
	}
	if forward.Destination.Portal == nil {
		t.Fatalf("expected the forward link to anchor a specific destination portal")
	}

	dest := instances.byID["generated"]
	reverse, ok := reg.Link(*forward.Destination.Portal)
	if !ok {
		t.Fatalf("expected a reverse link from the destination portal")
	}
	if reverse.Destination.DimensionID != "minecraft:overworld" {
		t.Fatalf("expected the reverse link to point back at the source dimension, got %q", reverse.Destination.DimensionID)
	}
	if forward.LinkID != reverse.LinkID {
		t.Fatalf("expected both directions of a book-triggered link to share the same linkId, got %s and %s", forward.LinkID, reverse.LinkID)
	}
	if len(dest.placed) != 1 {
		t.Fatalf("expected exactly one destination portal to be placed in the new dimension, got %d", len(dest.placed))
	}
}

func TestHandleBookTickSkipsAlreadyProcessedBook(t *testing.T) {
	source := newFakeInstanceWorld()
	sourceFrame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(sourceFrame)

	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	reg, err := portal.LoadRegistry(t.TempDir(), discardLogger())
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	idx := portal.NewIndex()
	defs := newTestDefinitionService(t)
	router := portal.NewRouter(reg, idx, instances, baseWorlds, defs, discardLogger())

	reader := newFakePlayer(portal.BlockPos{X: 0, Y: 64, Z: 0})
	book := &fakeBook{
		blockAt: portal.BlockPos{X: 0, Y: 64, Z: 0},
		text:    "a whispering library of forgotten stories",
		hasText: true,
		nearby:  reader,
		hasNear: true,
	}

	router.HandleBookTick(source, "minecraft:overworld", book)
	router.HandleBookTick(source, "minecraft:overworld", book)

	if len(instances.createCalls) != 1 {
		t.Fatalf("expected the second tick on an already-processed book to be a no-op, got %d creations", len(instances.createCalls))
	}
}

func TestHandleBookTickDoesNothingWithoutNearbyPlayer(t *testing.T) {
	source := newFakeInstanceWorld()
	sourceFrame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(sourceFrame)

	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	router, _, _ := newTestRouter(t, instances, baseWorlds)

	book := &fakeBook{
		blockAt: portal.BlockPos{X: 0, Y: 64, Z: 0},
		text:    "a whispering library",
		hasText: true,
		hasNear: false,
	}

	router.HandleBookTick(source, "minecraft:overworld", book)

	if book.consumed {
		t.Fatalf("expected the book to remain unconsumed without a nearby player")
	}
	if len(instances.createCalls) != 0 {
		t.Fatalf("expected no dimension to be created without a nearby player")
	}
}

package portal_test

import (
	"testing"

	"github.com/endlessdimensions/core/portal"
)

func TestHandleBlockUpdateReindexesNewPortalBlock(t *testing.T) {
	world := newFakeInstanceWorld()
	key := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	world.fillFrame(key)

	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	router, _, idx := newTestRouter(t, instances, baseWorlds)

	router.HandleBlockUpdate(world, "minecraft:overworld", portal.BlockPos{X: 0, Y: 64, Z: 0})

	if _, ok := idx.ContainingChunk("minecraft:overworld", 0, 64, 0); !ok {
		t.Fatalf("expected the portal block update to index the detected frame")
	}
}

func TestHandleBlockUpdateRemovesLinkWhenPortalBroken(t *testing.T) {
	world := newFakeInstanceWorld()
	key := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	world.fillFrame(key)

	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	router, registry, idx := newTestRouter(t, instances, baseWorlds)

	idx.Insert(key)
	registry.PutLink(key, portal.Link{Type: portal.Default, Destination: portal.Destination{DimensionID: "minecraft:the_nether"}})
	registry.Save()

	world.breakFrame(key)

	router.HandleBlockUpdate(world, "minecraft:overworld", portal.BlockPos{X: 0, Y: 64, Z: 0})

	if _, ok := registry.Link(key); ok {
		t.Fatalf("expected the link to be removed once the frame no longer validates")
	}
	if _, ok := idx.ContainingChunk("minecraft:overworld", 0, 64, 0); ok {
		t.Fatalf("expected the index entry to be removed once the frame no longer validates")
	}
}

func TestHandleBlockUpdateIgnoresUnrelatedNonPortalBlock(t *testing.T) {
	world := newFakeInstanceWorld()
	instances := newFakeInstanceProvider()
	baseWorlds := newFakeBaseWorldProvider()
	router, registry, idx := newTestRouter(t, instances, baseWorlds)

	router.HandleBlockUpdate(world, "minecraft:overworld", portal.BlockPos{X: 50, Y: 70, Z: 50})

	if registry.Dirty() {
		t.Fatalf("expected an unrelated block update to leave the registry untouched")
	}
	if _, ok := idx.ContainingChunk("minecraft:overworld", 50, 70, 50); ok {
		t.Fatalf("expected no index entry for an unrelated block update")
	}
}

package portal_test

import (
	"testing"

	"github.com/endlessdimensions/core/portal"
)

func TestHandlePlayerTickRoutesDefaultAndPersistsLink(t *testing.T) {
	source := newFakeInstanceWorld()
	frame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(frame)

	dest := newFakeInstanceWorld()
	baseWorlds := newFakeBaseWorldProvider()
	baseWorlds.worlds["minecraft:the_nether"] = dest

	instances := newFakeInstanceProvider()
	router, registry, _ := newTestRouter(t, instances, baseWorlds)

	player := newFakePlayer(portal.BlockPos{X: 0, Y: 64, Z: 0})
	router.HandlePlayerTick(source, "minecraft:overworld", player)

	if player.setInto != dest {
		t.Fatalf("expected player to be teleported into the nether base world instance")
	}
	if len(dest.placed) != 1 {
		t.Fatalf("expected exactly one destination portal frame to be placed, got %d", len(dest.placed))
	}

	link, ok := registry.Link(frame)
	if !ok {
		t.Fatalf("expected a link to be persisted for the source portal")
	}
	if link.Type != portal.Default {
		t.Fatalf("expected a DEFAULT link, got %v", link.Type)
	}
	if link.Destination.DimensionID != "minecraft:the_nether" {
		t.Fatalf("unexpected destination dimension id %q", link.Destination.DimensionID)
	}
}

func TestHandlePlayerTickRespectsCooldown(t *testing.T) {
	source := newFakeInstanceWorld()
	frame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(frame)

	dest := newFakeInstanceWorld()
	baseWorlds := newFakeBaseWorldProvider()
	baseWorlds.worlds["minecraft:the_nether"] = dest

	instances := newFakeInstanceProvider()
	router, _, _ := newTestRouter(t, instances, baseWorlds)

	player := newFakePlayer(portal.BlockPos{X: 0, Y: 64, Z: 0})
	router.HandlePlayerTick(source, "minecraft:overworld", player)
	router.HandlePlayerTick(source, "minecraft:overworld", player)

	if player.setCount != 1 {
		t.Fatalf("expected the second tick within the cooldown window to be a no-op, got %d teleports", player.setCount)
	}
}

func TestHandlePlayerTickReusesExistingLinkedPortal(t *testing.T) {
	source := newFakeInstanceWorld()
	sourceFrame := portal.NewKey("minecraft:overworld", portal.AxisZ,
		portal.BlockPos{X: 0, Y: 63, Z: 0}, portal.BlockPos{X: 1, Y: 65, Z: 0})
	source.fillFrame(sourceFrame)

	dest := newFakeInstanceWorld()
	destFrame := portal.NewKey("endlessdimensions:gen_abc", portal.AxisZ,
		portal.BlockPos{X: 10, Y: 63, Z: 10}, portal.BlockPos{X: 11, Y: 65, Z: 10})
	dest.fillFrame(destFrame)

	instances := newFakeInstanceProvider()
	instances.byID["endlessdimensions:gen_abc"] = dest
	baseWorlds := newFakeBaseWorldProvider()
	router, registry, _ := newTestRouter(t, instances, baseWorlds)

	fc := destFrame.Center()
	registry.PutLink(sourceFrame, portal.Link{
		Type: portal.BookLinked,
		Destination: portal.Destination{
			DimensionID: "endlessdimensions:gen_abc",
			X:           fc[0], Y: fc[1], Z: fc[2],
			Portal: &destFrame,
		},
	})
	registry.Save()

	player := newFakePlayer(portal.BlockPos{X: 0, Y: 64, Z: 0})
	router.HandlePlayerTick(source, "minecraft:overworld", player)

	if player.setInto != dest {
		t.Fatalf("expected player to be routed to the linked custom dimension instance")
	}
	if len(dest.placed) != 0 {
		t.Fatalf("expected the existing destination portal to be reused, not rebuilt")
	}
}

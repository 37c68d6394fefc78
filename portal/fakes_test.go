package portal_test

import (
	"log/slog"
	"io"

	"github.com/google/uuid"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/instance"
	"github.com/endlessdimensions/core/portal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTx always reports a solid floor at y=63, matching fakeInstanceWorld's
// fixed ground level.
type fakeTx struct{}

func (fakeTx) FloorSolid(pos instance.BlockPos) bool { return pos.Y == 63 }
func (fakeTx) AirAt(pos instance.BlockPos) bool      { return pos.Y > 63 }

// fakeInstanceWorld is a portal.Instance test double: a sparse set of
// portal blocks plus recorded LoadChunk/PlaceFrame/RebuildFrame calls.
type fakeInstanceWorld struct {
	portalBlocks map[portal.BlockPos]bool
	minY, maxY   int

	loaded  []instance.ChunkXZ
	placed  []portal.Key
	rebuilt []portal.Key
}

func newFakeInstanceWorld() *fakeInstanceWorld {
	return &fakeInstanceWorld{
		portalBlocks: make(map[portal.BlockPos]bool),
		minY:         -64, maxY: 320,
	}
}

func (w *fakeInstanceWorld) NextTick(f func(instance.Tx)) <-chan struct{} {
	c := make(chan struct{})
	f(fakeTx{})
	close(c)
	return c
}
func (w *fakeInstanceWorld) MinY() int { return w.minY }
func (w *fakeInstanceWorld) MaxY() int { return w.maxY }
func (w *fakeInstanceWorld) LoadChunk(pos instance.ChunkXZ) {
	w.loaded = append(w.loaded, pos)
}
func (w *fakeInstanceWorld) IsPortalBlock(pos portal.BlockPos) bool { return w.portalBlocks[pos] }

// PlaceFrame builds a 2-wide, 3-tall frame of portal blocks centered on
// center, matching the shape detector_test.go's fakes already assume.
func (w *fakeInstanceWorld) PlaceFrame(center portal.BlockPos, axis portal.Axis) portal.Key {
	var a, b portal.BlockPos
	switch axis {
	case portal.AxisZ:
		a = portal.BlockPos{X: center.X, Y: center.Y - 1, Z: center.Z}
		b = portal.BlockPos{X: center.X + 1, Y: center.Y + 1, Z: center.Z}
	default:
		a = portal.BlockPos{X: center.X, Y: center.Y - 1, Z: center.Z}
		b = portal.BlockPos{X: center.X, Y: center.Y + 1, Z: center.Z + 1}
	}
	key := portal.NewKey("placed", axis, a, b)
	w.fillFrame(key)
	w.placed = append(w.placed, key)
	return key
}

func (w *fakeInstanceWorld) RebuildFrame(k portal.Key) {
	w.fillFrame(k)
	w.rebuilt = append(w.rebuilt, k)
}

func (w *fakeInstanceWorld) fillFrame(k portal.Key) {
	for y := k.Min.Y; y <= k.Max.Y; y++ {
		if k.Axis == portal.AxisZ {
			for x := k.Min.X; x <= k.Max.X; x++ {
				w.portalBlocks[portal.BlockPos{X: x, Y: y, Z: k.Min.Z}] = true
			}
		} else {
			for z := k.Min.Z; z <= k.Max.Z; z++ {
				w.portalBlocks[portal.BlockPos{X: k.Min.X, Y: y, Z: z}] = true
			}
		}
	}
}

func (w *fakeInstanceWorld) breakFrame(k portal.Key) {
	for y := k.Min.Y; y <= k.Max.Y; y++ {
		if k.Axis == portal.AxisZ {
			for x := k.Min.X; x <= k.Max.X; x++ {
				delete(w.portalBlocks, portal.BlockPos{X: x, Y: y, Z: k.Min.Z})
			}
		} else {
			for z := k.Min.Z; z <= k.Max.Z; z++ {
				delete(w.portalBlocks, portal.BlockPos{X: k.Min.X, Y: y, Z: z})
			}
		}
	}
}

type fakePlayer struct {
	id      uuid.UUID
	blockAt portal.BlockPos
	x, y, z float64

	setInto  instance.Instance
	setPos   instance.Position
	setCount int
}

func newFakePlayer(at portal.BlockPos) *fakePlayer {
	return &fakePlayer{id: uuid.New(), blockAt: at, x: float64(at.X), y: float64(at.Y), z: float64(at.Z)}
}

func (p *fakePlayer) UUID() uuid.UUID             { return p.id }
func (p *fakePlayer) BlockPosition() portal.BlockPos { return p.blockAt }
func (p *fakePlayer) Position() (x, y, z float64, yaw, pitch float32) {
	return p.x, p.y, p.z, 0, 0
}
func (p *fakePlayer) SetInstance(inst instance.Instance, pos instance.Position) {
	p.setInto = inst
	p.setPos = pos
	p.setCount++
}

type fakeBook struct {
	id      uuid.UUID
	blockAt portal.BlockPos
	text    string
	hasText bool
	nearby  portal.Player
	hasNear bool

	consumed bool
}

func (b *fakeBook) UUID() uuid.UUID                { return b.id }
func (b *fakeBook) BlockPosition() portal.BlockPos { return b.blockAt }
func (b *fakeBook) Text() (string, bool)           { return b.text, b.hasText }
func (b *fakeBook) NearbyPlayer(float64) (portal.Player, bool) { return b.nearby, b.hasNear }
func (b *fakeBook) Consume()                       { b.consumed = true }

type fakeInstanceProvider struct {
	byID map[string]*fakeInstanceWorld

	createCalls []string
}

func newFakeInstanceProvider() *fakeInstanceProvider {
	return &fakeInstanceProvider{byID: make(map[string]*fakeInstanceWorld)}
}

func (p *fakeInstanceProvider) CreateOrResolveInstance(text string, shell dimension.ShellType, biomes []dimension.BiomeSlot, palettes map[int]dimension.PaletteDefinition) (portal.Instance, error) {
	p.createCalls = append(p.createCalls, text)
	w := newFakeInstanceWorld()
	p.byID["generated"] = w
	return w, nil
}

func (p *fakeInstanceProvider) ResolveOrBuildByID(dimensionID string) (portal.Instance, error) {
	if w, ok := p.byID[dimensionID]; ok {
		return w, nil
	}
	w := newFakeInstanceWorld()
	p.byID[dimensionID] = w
	return w, nil
}

type fakeBaseWorldProvider struct {
	worlds map[string]*fakeInstanceWorld
}

func newFakeBaseWorldProvider() *fakeBaseWorldProvider {
	return &fakeBaseWorldProvider{worlds: make(map[string]*fakeInstanceWorld)}
}

func (p *fakeBaseWorldProvider) BaseWorld(vanillaDimensionID string) (portal.Instance, bool) {
	w, ok := p.worlds[vanillaDimensionID]
	return w, ok
}

func newTestRouter(t interface {
	TempDir() string
}, instances *fakeInstanceProvider, baseWorlds *fakeBaseWorldProvider) (*portal.Router, *portal.Registry, *portal.Index) {
	reg, err := portal.LoadRegistry(t.TempDir(), discardLogger())
	if err != nil {
		panic(err)
	}
	idx := portal.NewIndex()
	return portal.NewRouter(reg, idx, instances, baseWorlds, nil, discardLogger()), reg, idx
}

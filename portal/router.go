package portal

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/instance"
)

const (
	teleportCooldown = 3 * time.Second
	bookRadius       = 6.0
	reusePadding     = 1 // chunk radius around the preferred position to search/load (3x3)
)

// ChunkRange describes the square of chunk coordinates ensureDestinationPortal
// loads and searches around a preferred position.
type ChunkRange struct {
	MinX, MaxX, MinZ, MaxZ int
}

// Instance is the portal package's view of a world an event can happen in:
// instance.Instance's tick/attach surface, plus the block-level operations
// PortalDetector and portal placement need (spec.md §4.H, §4.K).
type Instance interface {
	instance.Instance
	IsPortalBlock(pos BlockPos) bool
	MaxY() int
	// PlaceFrame builds a new 2x3 obsidian-framed portal centered on center,
	// with the block axis property set per spec.md §4.K's inversion rule,
	// and returns its normalized Key.
	PlaceFrame(center BlockPos, axis Axis) Key
	// RebuildFrame restores a portal whose frame previously existed at k but
	// no longer does (spec.md §7's PortalMissing).
	RebuildFrame(k Key)
}

// Player is the narrow player surface the router acts on.
type Player interface {
	instance.Player
	UUID() uuid.UUID
	BlockPosition() BlockPos
	Position() (x, y, z float64, yaw, pitch float32)
}

// Book is a written/writable book item-entity at a portal, eligible for the
// book-traversal event (spec.md §4.K).
type Book interface {
	UUID() uuid.UUID
	BlockPosition() BlockPos
	Text() (string, bool)
	NearbyPlayer(radius float64) (Player, bool)
	Consume()
}

// InstanceProvider resolves or creates custom-dimension Instances
// (spec.md §4.G's DimensionService, viewed through the portal Instance
// interface).
type InstanceProvider interface {
	CreateOrResolveInstance(text string, shell dimension.ShellType, biomes []dimension.BiomeSlot, palettes map[int]dimension.PaletteDefinition) (Instance, error)
	ResolveOrBuildByID(dimensionID string) (Instance, error)
}

// BaseWorldProvider resolves the always-on vanilla base-world instances
// (overworld, nether, ...) a default (non-custom) portal routes between.
type BaseWorldProvider interface {
	BaseWorld(vanillaDimensionID string) (Instance, bool)
}

// Router is the PortalRouter from spec.md §4.K: it drives per-tick player
// traversal, book-triggered dimension creation, and block-update
// invalidation, all against a shared Registry and Index.
type Router struct {
	registry   *Registry
	index      *Index
	instances  InstanceProvider
	baseWorlds BaseWorldProvider
	defs       *dimension.DefinitionService
	log        *slog.Logger

	cooldowns      sync.Map // uuid.UUID -> time.Time
	processedBooks sync.Map // uuid.UUID -> struct{}
}

// NewRouter wires a Router's collaborators together.
func NewRouter(registry *Registry, index *Index, instances InstanceProvider, baseWorlds BaseWorldProvider, defs *dimension.DefinitionService, log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{registry: registry, index: index, instances: instances, baseWorlds: baseWorlds, defs: defs, log: log}
}

func (r *Router) onCooldown(id uuid.UUID) bool {
	v, ok := r.cooldowns.Load(id)
	if !ok {
		return false
	}
	return time.Since(v.(time.Time)) < teleportCooldown
}

func (r *Router) markCooldown(id uuid.UUID) {
	r.cooldowns.Store(id, time.Now())
}

// HandlePlayerTick implements spec.md §4.K's per-entity-tick player event.
func (r *Router) HandlePlayerTick(world Instance, sourceDimensionID string, player Player) {
	if r.onCooldown(player.UUID()) {
		return
	}

	key, ok := Detect(world, sourceDimensionID, player.BlockPosition())
	if !ok {
		return
	}
	r.index.Insert(key)

	if link, ok := r.registry.Link(key); ok {
		r.routeLinked(key, link, player)
		r.markCooldown(player.UUID())
		return
	}

	legacyKey := LegacyKey{DimensionID: sourceDimensionID, BlockX: key.Min.X, BlockZ: key.Min.Z}
	if ll, ok := r.registry.Legacy(legacyKey); ok {
		c := key.Center()
		link := Link{
			Type:   BookLinked,
			LinkID: uuid.New(),
			Destination: Destination{
				DimensionID: ll.ToDimensionID,
				X:           c[0], Y: c[1], Z: c[2],
			},
		}
		r.registry.PutLink(key, link)
		r.registry.RemoveLegacy(legacyKey)
		r.registry.Save()
		r.routeLinked(key, link, player)
		r.markCooldown(player.UUID())
		return
	}

	r.routeDefault(sourceDimensionID, key, player)
	r.markCooldown(player.UUID())
}

func (r *Router) routeLinked(source Key, link Link, player Player) {
	dest, err := r.resolveDestinationInstance(link.Destination.DimensionID)
	if err != nil {
		r.log.Warn("portal: failed to resolve linked destination instance", "dimension", link.Destination.DimensionID, "error", err)
		return
	}

	preferred := link.Destination.Portal
	axis := source.Axis
	if preferred != nil {
		axis = preferred.Axis
	}
	destKey, err := r.ensureDestinationPortal(dest, link.Destination.DimensionID, blockPosOf(link.Destination), axis, preferred, true)
	if err != nil {
		r.log.Warn("portal: failed to ensure destination portal", "error", err)
		return
	}
	if preferred == nil {
		link.Destination.Portal = &destKey
		r.registry.PutLink(source, link)
		r.registry.Save()
	}

	c := destKey.Center()
	instance.TeleportExact(dest, player, instance.Position{X: c[0], Y: c[1], Z: c[2]})
}

func (r *Router) routeDefault(sourceDimensionID string, source Key, player Player) {
	targetVanilla := "minecraft:the_nether"
	if sourceDimensionID != "minecraft:overworld" {
		targetVanilla = "minecraft:overworld"
	}
	dest, ok := r.baseWorlds.BaseWorld(targetVanilla)
	if !ok {
		r.log.Warn("portal: no base-world instance for default route target", "target", targetVanilla)
		return
	}

	destKey, err := r.ensureDestinationPortal(dest, targetVanilla, source.Min, source.Axis, nil, true)
	if err != nil {
		r.log.Warn("portal: failed to ensure default destination portal", "error", err)
		return
	}
	c := destKey.Center()
	instance.Teleport(dest, player, instance.Position{X: c[0], Y: c[1], Z: c[2]})

	link := Link{Type: Default, LinkID: uuid.New(), Destination: Destination{DimensionID: targetVanilla, X: c[0], Y: c[1], Z: c[2], Portal: &destKey}}
	r.registry.PutLink(source, link)
	r.registry.Save()
}

func blockPosOf(d Destination) BlockPos {
	return BlockPos{X: int(d.X), Y: int(d.Y), Z: int(d.Z)}
}

func (r *Router) resolveDestinationInstance(dimensionID string) (Instance, error) {
	if isCustomDimensionID(dimensionID) {
		return r.instances.ResolveOrBuildByID(dimensionID)
	}
	if w, ok := r.baseWorlds.BaseWorld(dimensionID); ok {
		return w, nil
	}
	return r.instances.ResolveOrBuildByID(dimensionID)
}

func isCustomDimensionID(id string) bool {
	return len(id) > len("endlessdimensions:") && id[:len("endlessdimensions:")] == "endlessdimensions:"
}

package instance_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/endlessdimensions/core/customkey"
	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/hashkey"
	"github.com/endlessdimensions/core/instance"
)

type fakeTx struct{}

func (fakeTx) FloorSolid(pos instance.BlockPos) bool { return pos.Y == 63 }
func (fakeTx) AirAt(pos instance.BlockPos) bool      { return pos.Y > 63 }

type fakeInstance struct {
	id     string
	minY   int
	loaded []instance.ChunkXZ
	mu     sync.Mutex
}

func (f *fakeInstance) NextTick(fn func(instance.Tx)) <-chan struct{} {
	c := make(chan struct{})
	fn(fakeTx{})
	close(c)
	return c
}
func (f *fakeInstance) MinY() int { return f.minY }
func (f *fakeInstance) LoadChunk(pos instance.ChunkXZ) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loaded = append(f.loaded, pos)
}

type fakeScheduler struct{}

func (fakeScheduler) RunNextTick(f func()) { f() }

type fakeRegistry struct {
	mu         sync.Mutex
	attached   int
	attachHook func()
}

func (r *fakeRegistry) Attach(dimensionID string, seed int64, packDir string) (instance.Instance, error) {
	r.mu.Lock()
	r.attached++
	r.mu.Unlock()
	if r.attachHook != nil {
		r.attachHook()
	}
	return &fakeInstance{id: dimensionID, minY: -64}, nil
}

func newTestService(t *testing.T, registry *fakeRegistry) *instance.Service {
	t.Helper()
	dataDir := t.TempDir()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	keys, err := customkey.Load(dataDir, log)
	if err != nil {
		t.Fatalf("customkey.Load: %v", err)
	}
	registryDefs, err := dimension.LoadRegistry(dataDir, log)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	resolver := dimension.NewResolver(keys)
	defs := dimension.NewDefinitionService(registryDefs, keys, resolver)

	// Minimal template tree: pack.Materialize needs a top-level pack.yml and
	// the template of every biome the definitions below use.
	templatesDir := t.TempDir()
	for rel, content := range map[string]string{
		"pack.yml":                       "id: PLACEHOLDER\n",
		"biomes/dim_template_plains.yml": "id: dim_template_plains\n",
	} {
		path := filepath.Join(templatesDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o777); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("WriteFile %s: %v", rel, err)
		}
	}

	return instance.NewService(defs, templatesDir, t.TempDir(), registry, fakeScheduler{}, log)
}

func validBiomesAndPalettes() ([]dimension.BiomeSlot, map[int]dimension.PaletteDefinition) {
	biomes := []dimension.BiomeSlot{{TemplateID: dimension.BiomePlains, PaletteSlot: 1}}
	palettes := map[int]dimension.PaletteDefinition{1: {SurfaceBlock: "minecraft:grass_block", StoneBlock: "minecraft:stone"}}
	return biomes, palettes
}

func TestServiceCreateOrResolveInstanceCachesResult(t *testing.T) {
	registry := &fakeRegistry{}
	svc := newTestService(t, registry)
	biomes, palettes := validBiomesAndPalettes()

	first, err := svc.CreateOrResolveInstance("hello world", dimension.OverworldOpen, biomes, palettes)
	if err != nil {
		t.Fatalf("CreateOrResolveInstance: %v", err)
	}
	second, err := svc.CreateOrResolveInstance("hello world", dimension.OverworldOpen, biomes, palettes)
	if err != nil {
		t.Fatalf("CreateOrResolveInstance (second): %v", err)
	}
	if first != second {
		t.Fatalf("expected cached instance to be reused")
	}
	if registry.attached != 1 {
		t.Fatalf("expected exactly one Attach call, got %d", registry.attached)
	}
}

func TestServiceCoalescesConcurrentBuilds(t *testing.T) {
	var attaching atomic.Int32
	registry := &fakeRegistry{attachHook: func() {
		attaching.Add(1)
		time.Sleep(20 * time.Millisecond)
	}}
	svc := newTestService(t, registry)
	biomes, palettes := validBiomesAndPalettes()

	const n = 8
	var wg sync.WaitGroup
	results := make([]instance.Instance, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.CreateOrResolveInstance("concurrent text", dimension.OverworldOpen, biomes, palettes)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("expected all callers to receive the same coalesced instance")
		}
	}
	if registry.attached != 1 {
		t.Fatalf("expected single-flight coalescing to produce exactly one Attach call, got %d", registry.attached)
	}
}

func TestServiceByIDFailsForUnknownDefinition(t *testing.T) {
	svc := newTestService(t, &fakeRegistry{})
	if _, err := svc.ResolveOrBuildByID("endlessdimensions:generated_999"); err == nil {
		t.Fatal("expected error for unregistered dimension id")
	}
}

func TestServiceByIDReusesExistingDefinition(t *testing.T) {
	registry := &fakeRegistry{}
	svc := newTestService(t, registry)
	biomes, palettes := validBiomesAndPalettes()

	created, err := svc.CreateOrResolveInstance("by id text", dimension.OverworldOpen, biomes, palettes)
	if err != nil {
		t.Fatalf("CreateOrResolveInstance: %v", err)
	}
	id := hashkey.DimensionIDFromSeed(hashkey.Seed64("by id text"))

	byID, err := svc.ResolveOrBuildByID(id)
	if err != nil {
		t.Fatalf("ResolveOrBuildByID: %v", err)
	}
	if byID != created {
		t.Fatalf("expected by-id lookup to reuse the same cached instance")
	}
	if registry.attached != 1 {
		t.Fatalf("expected no additional Attach call, got %d total", registry.attached)
	}
}

package instance

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/endlessdimensions/core/dimension"
	"github.com/endlessdimensions/core/pack"
)

// ErrUnknownDefinition is returned by the by-id build path when no
// DimensionDefinition is registered for the requested id (spec.md §4.G).
var ErrUnknownDefinition = errors.New("instance: no DimensionDefinition registered for id")

type buildRequest struct {
	def    dimension.Definition
	result chan<- buildResult
}

type buildResult struct {
	inst Instance
	err  error
}

// Service is the DimensionService from spec.md §4.G: it coalesces
// concurrent requests for the same dimension id onto a single build. The
// DimensionDefinition is looked up or created (and persisted) on the
// requesting goroutine before the build request is queued; pack
// materialization then runs on a dedicated pack-builder goroutine, and
// attachment is finalized on the engine's own tick thread.
type Service struct {
	defs         *dimension.DefinitionService
	templatesDir string
	packsRoot    string
	registry     BaseWorldRegistry
	scheduler    EngineScheduler
	log          *slog.Logger

	mu     sync.RWMutex
	cached map[string]Instance

	group    singleflight.Group
	requests chan buildRequest
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// NewService wires the DimensionService and starts its pack-builder
// goroutine. templatesDir/packsRoot are passed straight through to
// pack.Materialize.
func NewService(defs *dimension.DefinitionService, templatesDir, packsRoot string, registry BaseWorldRegistry, scheduler EngineScheduler, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		defs:         defs,
		templatesDir: templatesDir,
		packsRoot:    packsRoot,
		registry:     registry,
		scheduler:    scheduler,
		log:          log,
		cached:       make(map[string]Instance),
		requests:     make(chan buildRequest),
		shutdown:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.runBuilder()
	return s
}

// CreateOrResolveInstance resolves text to a dimension id, creating and
// registering a DimensionDefinition if none exists yet, and returns the
// attached Instance for it — building and caching it first if necessary
// (spec.md §4.G).
func (s *Service) CreateOrResolveInstance(text string, shell dimension.ShellType, biomes []dimension.BiomeSlot, palettes map[int]dimension.PaletteDefinition) (Instance, error) {
	resolved := s.defs.Resolve(text)
	return s.resolveOrBuild(resolved.DimensionID, func() (dimension.Definition, error) {
		def, _, err := s.defs.ResolveOrCreate(text, shell, biomes, palettes)
		return def, err
	})
}

// ResolveOrBuildByID builds (or returns the cached) Instance for an
// already-registered dimension id, failing with ErrUnknownDefinition if
// nothing is registered under it (spec.md §4.G, "a by-id variant").
func (s *Service) ResolveOrBuildByID(dimensionID string) (Instance, error) {
	return s.resolveOrBuild(dimensionID, func() (dimension.Definition, error) {
		def, ok := s.defs.ResolveExisting(dimensionID)
		if !ok {
			return dimension.Definition{}, fmt.Errorf("%w: %s", ErrUnknownDefinition, dimensionID)
		}
		return def, nil
	})
}

func (s *Service) resolveOrBuild(id string, ensureDef func() (dimension.Definition, error)) (Instance, error) {
	if inst, ok := s.lookupCached(id); ok {
		return inst, nil
	}

	v, err, _ := s.group.Do(id, func() (interface{}, error) {
		if inst, ok := s.lookupCached(id); ok {
			return inst, nil
		}

		def, err := ensureDef()
		if err != nil {
			return nil, err
		}

		result := make(chan buildResult, 1)
		select {
		case s.requests <- buildRequest{def: def, result: result}:
		case <-s.shutdown:
			return nil, errors.New("instance: service is shutting down")
		}

		res := <-result
		if res.err != nil {
			return nil, res.err
		}

		s.mu.Lock()
		s.cached[id] = res.inst
		s.mu.Unlock()
		return res.inst, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Instance), nil
}

func (s *Service) lookupCached(id string) (Instance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inst, ok := s.cached[id]
	return inst, ok
}

// runBuilder is the dedicated single-threaded pack-builder executor: every
// build request — across every concurrently-requested dimension id — is
// materialized one at a time on this goroutine, which waits for each
// request's on-tick attach before taking the next one.
func (s *Service) runBuilder() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.requests:
			s.build(req)
		case <-s.shutdown:
			return
		}
	}
}

func (s *Service) build(req buildRequest) {
	packDir, err := pack.Materialize(s.templatesDir, s.packsRoot, req.def)
	if err != nil {
		req.result <- buildResult{err: fmt.Errorf("instance: materialize pack for %s: %w", req.def.DimensionID, err)}
		return
	}

	done := make(chan buildResult, 1)
	s.scheduler.RunNextTick(func() {
		inst, err := s.registry.Attach(req.def.DimensionID, req.def.Seed, packDir)
		if err != nil {
			done <- buildResult{err: fmt.Errorf("instance: attach %s: %w", req.def.DimensionID, err)}
			return
		}
		done <- buildResult{inst: inst}
	})
	req.result <- <-done
}

// Shutdown stops accepting new build requests and waits up to grace for the
// pack-builder goroutine to drain in-flight work before returning; it does
// not block past grace.
func (s *Service) Shutdown(grace time.Duration) {
	close(s.shutdown)
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		s.log.Warn("instance service shutdown grace period elapsed; forcing termination")
	}
}

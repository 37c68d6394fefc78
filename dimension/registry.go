package dimension

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/df-mc/jsonc"

	"github.com/endlessdimensions/core/internal/atomicfile"
)

// Registry is the persistent catalog of Definitions described in spec.md
// §4.E: one JSON file per dimension under <data>/dimensions/, an
// insertion-ordered in-memory index, and atomic writes.
type Registry struct {
	mu  sync.RWMutex
	dir string
	log *slog.Logger

	order []string
	byID  map[string]Definition
}

// LoadRegistry loads every *.json file under <dataDir>/dimensions/. A file
// whose version exceeds CurrentVersion is skipped with a logged warning
// (spec.md §7 UnsupportedVersion is load-time fatal for that file only);
// every other file continues to load.
func LoadRegistry(dataDir string, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	dir := filepath.Join(dataDir, "dimensions")
	r := &Registry{dir: dir, log: log, byID: make(map[string]Definition)}

	if err := os.MkdirAll(dir, 0o777); err != nil {
		return nil, fmt.Errorf("dimension: create %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dimension: read %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("failed to read dimension definition", "path", path, "error", err)
			continue
		}
		def, err := UnmarshalDefinition(jsonc.ToJSON(raw))
		if err != nil {
			if errors.Is(err, ErrUnsupportedVersion) {
				log.Error("dimension definition has an unsupported schema version; skipping", "path", path, "error", err)
			} else {
				log.Warn("failed to parse dimension definition; skipping", "path", path, "error", err)
			}
			continue
		}
		r.order = append(r.order, def.DimensionID)
		r.byID[def.DimensionID] = def
	}
	return r, nil
}

// Get looks up a registered Definition by dimension id.
func (r *Registry) Get(dimensionID string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.byID[dimensionID]
	return def, ok
}

// All returns every registered Definition in insertion order.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Register persists def and adds it to the in-memory index. If a
// Definition is already registered for def.DimensionID, the stored record
// is returned unchanged — re-registration is a no-op by design (spec.md
// §3: "once registered, a DimensionDefinition is immutable").
func (r *Registry) Register(def Definition) (Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[def.DimensionID]; ok {
		return existing, nil
	}

	encoded, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return Definition{}, fmt.Errorf("dimension: encode %s: %w", def.DimensionID, err)
	}
	path := r.pathFor(def.DimensionID)
	if err := atomicfile.Write(path, encoded, 0o644); err != nil {
		return Definition{}, fmt.Errorf("dimension: persist %s: %w", def.DimensionID, err)
	}

	r.order = append(r.order, def.DimensionID)
	r.byID[def.DimensionID] = def
	return def, nil
}

func (r *Registry) pathFor(dimensionID string) string {
	safe := strings.ReplaceAll(dimensionID, ":", "_")
	return filepath.Join(r.dir, safe+".json")
}

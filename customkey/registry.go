// Package customkey persists the user-minted opaque key → dimension id
// mapping described in spec.md §4.C.
package customkey

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/df-mc/jsonc"

	"github.com/endlessdimensions/core/hashkey"
	"github.com/endlessdimensions/core/internal/atomicfile"
	"github.com/endlessdimensions/core/internal/idsanitize"
)

const (
	fileName       = "custom-dimensions.json"
	schemaVersion  = 1
	dimensionPref  = "endlessdimensions:custom_"
	keyAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	keyBodyLength  = 6
	generateRetry  = 1000
)

// fileSchema mirrors the on-disk JSON shape from spec.md §6:
// {"version":1,"entries":{"<normalizedKey>":"<dimensionId>", ...}}.
type fileSchema struct {
	Version int               `json:"version"`
	Entries map[string]string `json:"entries"`
}

// Registry is the persistent, normalized-key → dimension-id map described
// in spec.md §4.C. Custom keys are written once on craft and never
// mutated; Registry only ever adds entries.
type Registry struct {
	mu   sync.RWMutex
	path string
	log  *slog.Logger

	entries map[string]string
}

// Load reads the registry from <dataDir>/custom-dimensions.json. A missing
// file starts an empty registry; a malformed file is logged and treated as
// empty, per spec.md §4.C.
func Load(dataDir string, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		path:    filepath.Join(dataDir, fileName),
		log:     log,
		entries: make(map[string]string),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) load() error {
	raw, err := readFileTolerant(r.path)
	if err != nil {
		return fmt.Errorf("customkey: read %s: %w", r.path, err)
	}
	if raw == nil {
		return nil
	}
	stripped := jsonc.ToJSON(raw)
	var data fileSchema
	if err := json.Unmarshal(stripped, &data); err != nil {
		r.log.Warn("custom-dimensions.json is malformed; treating as empty", "path", r.path, "error", err)
		return nil
	}
	if data.Entries == nil {
		data.Entries = make(map[string]string)
	}
	r.entries = data.Entries
	return nil
}

// Register records entries[normalize(key)] = dimensionId and persists the
// registry.
func (r *Registry) Register(key, dimensionID string) error {
	normalized := hashkey.Normalize(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[normalized] = dimensionID
	return r.saveLocked()
}

// Resolve looks up the dimension id registered for key, if any.
func (r *Registry) Resolve(key string) (string, bool) {
	normalized := hashkey.Normalize(key)
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.entries[normalized]
	return id, ok
}

// Contains reports whether key (after normalization) is registered.
func (r *Registry) Contains(key string) bool {
	_, ok := r.Resolve(key)
	return ok
}

// GenerateKey mints a fresh, unregistered custom key of the form
// "ED-XXXXXX" using the confusable-free alphabet [A-HJ-NP-Z2-9], resampling
// until the result is not already present. It gives up with an error after
// generateRetry (1000) samples that were all already registered.
func (r *Registry) GenerateKey() (string, error) {
	for i := 0; i < generateRetry; i++ {
		candidate, err := randomKey()
		if err != nil {
			return "", fmt.Errorf("customkey: generate key: %w", err)
		}
		if !r.Contains(candidate) {
			return candidate, nil
		}
	}
	return "", errors.New("customkey: exhausted retries generating a unique key")
}

// DimensionIDFor computes the CUSTOM dimension id for key, with the same
// sanitizer as easteregg.DimensionIDFor but a "custom" fallback.
func DimensionIDFor(key string) string {
	return dimensionPref + idsanitize.Sanitize(hashkey.Normalize(key), "custom")
}

func (r *Registry) saveLocked() error {
	data := fileSchema{Version: schemaVersion, Entries: r.entries}
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("customkey: encode %s: %w", r.path, err)
	}
	if err := atomicfile.Write(r.path, encoded, 0o644); err != nil {
		r.log.Error("failed to persist custom-dimensions.json", "path", r.path, "error", err)
		return err
	}
	return nil
}

func randomKey() (string, error) {
	body := make([]byte, keyBodyLength)
	buf := make([]byte, keyBodyLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		body[i] = keyAlphabet[int(b)%len(keyAlphabet)]
	}
	return "ED-" + string(body), nil
}

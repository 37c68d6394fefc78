package portal

import (
	"log/slog"
	"sync"
)

// Registry composes the on-disk store with in-memory links/legacy maps and
// a dirty flag callers use to decide when to persist (spec.md §4.J).
type Registry struct {
	dataDir string
	log     *slog.Logger

	mu     sync.RWMutex
	links  map[Key]Link
	legacy map[LegacyKey]LegacyLink
	dirty  bool
}

// LoadRegistry reads the bindings file (falling back to the legacy
// location, per loadFile) and returns a ready-to-use Registry.
func LoadRegistry(dataDir string, log *slog.Logger) (*Registry, error) {
	if log == nil {
		log = slog.Default()
	}
	links, legacy, err := loadFile(dataDir, log)
	if err != nil {
		return nil, err
	}
	return &Registry{dataDir: dataDir, log: log, links: links, legacy: legacy}, nil
}

// Link returns the PortalLink registered for k, if any.
func (r *Registry) Link(k Key) (Link, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.links[k]
	return l, ok
}

// Legacy returns the LegacyLink registered for lk, if any.
func (r *Registry) Legacy(lk LegacyKey) (LegacyLink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ll, ok := r.legacy[lk]
	return ll, ok
}

// PutLink records (or replaces) the link for k and marks the registry
// dirty.
func (r *Registry) PutLink(k Key, l Link) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links[k] = l
	r.dirty = true
}

// RemoveLink drops the link for k, if present, and marks the registry
// dirty.
func (r *Registry) RemoveLink(k Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[k]; !ok {
		return
	}
	delete(r.links, k)
	r.dirty = true
}

// RemoveLegacy drops lk from the legacy table and marks the registry
// dirty; used once a legacy binding has been migrated to a real Link.
func (r *Registry) RemoveLegacy(lk LegacyKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.legacy[lk]; !ok {
		return
	}
	delete(r.legacy, lk)
	r.dirty = true
}

// Dirty reports whether any mutation has occurred since the last
// successful Save.
func (r *Registry) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dirty
}

// Save persists the registry if dirty. Failures are logged and leave the
// dirty flag set, so the next mutation re-attempts the write (spec.md §7:
// "Registry persistence errors are logged and do not prevent in-memory
// mutation").
func (r *Registry) Save() {
	r.mu.Lock()
	if !r.dirty {
		r.mu.Unlock()
		return
	}
	links := make(map[Key]Link, len(r.links))
	for k, v := range r.links {
		links[k] = v
	}
	legacy := make(map[LegacyKey]LegacyLink, len(r.legacy))
	for k, v := range r.legacy {
		legacy[k] = v
	}
	r.mu.Unlock()

	if err := saveFile(r.dataDir, links, legacy); err != nil {
		r.log.Warn("failed to persist portal bindings; will retry on next mutation", "error", err)
		return
	}

	r.mu.Lock()
	r.dirty = false
	r.mu.Unlock()
}

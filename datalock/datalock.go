// Package datalock enforces the single-writer assumption spec.md §1 and §5
// describe in prose ("the design assumes a single process authoritative
// over its data directory") with an actual advisory lock, so two server
// processes pointed at the same data directory fail fast instead of
// corrupting each other's JSON stores.
package datalock

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an advisory lock on a data directory. The lock is released by
// calling Close, which also happens automatically when the owning process
// exits.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive, non-blocking advisory lock on dataDir by
// flock'ing a ".lock" file inside it. It returns an error immediately if
// another process already holds the lock, rather than blocking — a second
// server instance pointed at the same data directory should fail to start,
// not queue up behind the first.
func Acquire(dataDir string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0o777); err != nil {
		return nil, fmt.Errorf("datalock: create data directory: %w", err)
	}
	path := dataDir + string(os.PathSeparator) + ".lock"
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("datalock: open lock file: %w", err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("datalock: %s is already locked by another process: %w", dataDir, err)
	}
	return &Lock{f: f}, nil
}

// Close releases the lock.
func (l *Lock) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	return l.f.Close()
}

// Package leaderlock implements the exclusive mutual-exclusion primitive:
// an origin-scoped lock named "sqlite-database" that at most one context
// holds at a time: open-or-create a lock file, flock it exclusively
// non-blocking, and on success overwrite its contents with a small JSON
// record identifying the holder.
package leaderlock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrBusy is returned by TryAcquire when another process already holds the lock.
var ErrBusy = errors.New("leaderlock: held by another process")

// Info is the metadata written into the lock file by its holder.
type Info struct {
	InstanceID string    `json:"instance_id"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
}

// Lock represents a held exclusive lock. Closing it releases the flock,
// which is also released automatically by the OS if the process exits or
// crashes without calling Close — the Go-native equivalent of a browser
// closing a tab and the Web Locks API releasing the hold.
type Lock struct {
	file *os.File
	path string
}

// Path returns the filesystem path backing this lock.
func (l *Lock) Path() string { return l.path }

// Close releases the lock. Idempotent.
func (l *Lock) Close() error {
	if l.file == nil {
		return nil
	}
	_ = flockUnlock(l.file)
	err := l.file.Close()
	l.file = nil
	return err
}

// TryAcquire attempts to acquire the named lock in dataDir without blocking.
// Returns ErrBusy if another process already holds it.
func TryAcquire(dataDir, lockName, instanceID string) (*Lock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("leaderlock: create data dir: %w", err)
	}
	lockPath := filepath.Join(dataDir, lockName+".lock")

	// #nosec G304 - controlled path derived from configuration
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("leaderlock: open lock file: %w", err)
	}

	if err := flockExclusiveNonBlocking(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrBusy) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("leaderlock: flock: %w", err)
	}

	info := Info{InstanceID: instanceID, PID: os.Getpid(), StartedAt: time.Now().UTC()}
	_ = f.Truncate(0)
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("leaderlock: seek: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("leaderlock: write lock info: %w", err)
	}
	_ = f.Sync()

	return &Lock{file: f, path: lockPath}, nil
}

// ReadInfo reads the holder metadata without attempting to acquire the lock.
// Used only by `coordbd status` for diagnostics.
func ReadInfo(dataDir, lockName string) (*Info, error) {
	lockPath := filepath.Join(dataDir, lockName+".lock")
	data, err := os.ReadFile(lockPath) // #nosec G304
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("leaderlock: decode lock info: %w", err)
	}
	return &info, nil
}

// Package election implements the blocking leader-acquisition loop. It
// generalizes a fail-fast-on-contention lock-acquisition helper into an
// Elector that instead waits indefinitely for the lock to become free.
package election

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rainlanguage/sqlite-web/internal/leaderlock"
	"github.com/rainlanguage/sqlite-web/internal/logging"
)

var log = logging.New("election")

// Elector blocks a context's goroutine until it becomes the leader for a
// given data directory, then tracks that status until the lock is released.
type Elector struct {
	dataDir    string
	lockName   string
	instanceID string

	mu       sync.RWMutex
	lock     *leaderlock.Lock
	isLeader bool

	resigned chan struct{}
	once     sync.Once
}

// New creates an Elector for the given origin (dataDir) and logical lock
// name (by convention "sqlite-database").
func New(dataDir, lockName, instanceID string) *Elector {
	return &Elector{
		dataDir:    dataDir,
		lockName:   lockName,
		instanceID: instanceID,
		resigned:   make(chan struct{}),
	}
}

// Acquire blocks until this Elector becomes the leader, polling
// leaderlock.TryAcquire with exponential backoff between attempts. It never
// returns (other than via error) until the lock is acquired or ctx is
// canceled, mirroring a blocking Web Locks API request: a blocking flock(2)
// call cannot be interrupted when ctx is canceled, so the non-blocking form
// is polled instead.
func (e *Elector) Acquire(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 0 // retry forever; ctx governs cancellation

	bctx := backoff.WithContext(b, ctx)

	var lock *leaderlock.Lock
	op := func() error {
		l, err := leaderlock.TryAcquire(e.dataDir, e.lockName, e.instanceID)
		if err != nil {
			if errors.Is(err, leaderlock.ErrBusy) {
				return err // retryable
			}
			return backoff.Permanent(err)
		}
		lock = l
		return nil
	}

	if err := backoff.Retry(op, bctx); err != nil {
		if errors.Is(err, leaderlock.ErrBusy) {
			// ctx was canceled while still contended.
			return ctx.Err()
		}
		return err
	}

	e.mu.Lock()
	e.lock = lock
	e.isLeader = true
	e.mu.Unlock()

	log.Infof("acquired leadership for %s (instance %s)", e.dataDir, e.instanceID)
	return nil
}

// IsLeader reports whether this Elector currently holds the lock.
func (e *Elector) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isLeader
}

// Resigned returns a channel closed when Release gives up leadership. Loss
// of the lock by any other means is not detected. Diagnostics only; the
// protocol does not depend on it — there is no explicit heartbeat.
func (e *Elector) Resigned() <-chan struct{} {
	return e.resigned
}

// Release gives up leadership, closing the underlying flock so the next
// waiter in line (in this process or another) can acquire it.
func (e *Elector) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isLeader {
		return nil
	}
	e.isLeader = false
	err := e.lock.Close()
	e.lock = nil
	e.once.Do(func() { close(e.resigned) })
	return err
}

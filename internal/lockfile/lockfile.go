// SPDX-License-Identifier: Apache-2.0

// Package lockfile coordinates concurrent "keg migrate" invocations against
// the same database with an on-disk advisory lock, so two processes racing
// to apply migrations don't interleave.
package lockfile

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

// pollInterval is how often Acquire retries the lock while waiting.
const pollInterval = 250 * time.Millisecond

// Lock wraps a flock advisory file lock.
type Lock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock backed by the file at path. The file is created on
// first acquisition if it does not already exist; it is never removed.
func New(path string) *Lock {
	return &Lock{flock: flock.New(path), path: path}
}

// Acquire blocks until the lock is held or ctx is done, polling every
// pollInterval.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.flock.TryLockContext(ctx, pollInterval)
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", l.path, err)
	}
	if !ok {
		return fmt.Errorf("acquiring lock %s: %w", l.path, ctx.Err())
	}
	return nil
}

// TryAcquire attempts to take the lock without blocking. A false result with
// a nil error means another process currently holds it.
func (l *Lock) TryAcquire() (bool, error) {
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("trying lock %s: %w", l.path, err)
	}
	return ok, nil
}

// Release gives up the lock.
func (l *Lock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("releasing lock %s: %w", l.path, err)
	}
	return nil
}

// Package lockfile provides a blocking advisory lock over a lock file path,
// used for the installer-frontend lock and the index-cache lock, so that two
// invocations of the tool never mutate the same state concurrently.
package lockfile

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/theckman/go-flock"
)

// pollInterval is the spin delay between failed TryLock attempts.
const pollInterval = time.Millisecond

// Lock wraps a flock.Flock with a blocking Acquire that polls TryLock
// instead of parking on a blocking syscall.
type Lock struct {
	f *flock.Flock
}

// New returns a Lock over path. The file is created on first acquisition if
// it does not already exist.
func New(path string) *Lock {
	return &Lock{f: flock.NewFlock(path)}
}

// Path returns the underlying lock file path.
func (l *Lock) Path() string {
	return l.f.Path()
}

// Acquire blocks until the lock is held or ctx is done. On the first failed
// attempt it enters a polling loop, retrying at pollInterval until the lock
// is granted or the context is cancelled.
func (l *Lock) Acquire(ctx context.Context) error {
	ok, err := l.f.TryLock()
	if err != nil {
		return errors.Wrapf(err, "acquiring lock %s", l.f.Path())
	}
	if ok {
		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "waiting for lock %s", l.f.Path())
		case <-ticker.C:
			ok, err := l.f.TryLock()
			if err != nil {
				return errors.Wrapf(err, "acquiring lock %s", l.f.Path())
			}
			if ok {
				return nil
			}
		}
	}
}

// Release drops the lock. It is a no-op if the lock is not currently held.
func (l *Lock) Release() error {
	if !l.f.Locked() {
		return nil
	}
	return errors.Wrapf(l.f.Unlock(), "releasing lock %s", l.f.Path())
}

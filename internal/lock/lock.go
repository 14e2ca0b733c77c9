// Package lock serializes generation batches across processes sharing a
// workspace.
package lock

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// FileName is the lock file created at the workspace root.
const FileName = ".repowiki.lock"

// retryDelay is the polling interval of AcquireContext.
const retryDelay = 200 * time.Millisecond

// ErrLocked is returned when another process holds the workspace lock.
var ErrLocked = errors.New("another repowiki batch is running in this workspace")

// Lock is a held workspace lock.
type Lock struct {
	fl *flock.Flock
}

// Path returns the lock file path for a workspace.
func Path(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, FileName)
}

// Acquire takes the workspace lock without waiting.
func Acquire(workspaceRoot string) (*Lock, error) {
	fl := flock.New(Path(workspaceRoot))
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held: %s)", ErrLocked, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// AcquireContext waits for the workspace lock until ctx is done.
func AcquireContext(ctx context.Context, workspaceRoot string) (*Lock, error) {
	fl := flock.New(Path(workspaceRoot))
	locked, err := fl.TryLockContext(ctx, retryDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrLocked, ctx.Err())
		}
		return nil, fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock held: %s)", ErrLocked, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

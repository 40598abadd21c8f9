// Package concurrency provides inter-process synchronization so that only one
// gitsync process works on a repository at a time.
package concurrency

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const retryDelay = 100 * time.Millisecond

type InterProcessMutex struct {
	mu *flock.Flock
}

// New returns a mutex backed by the lock file at path, creating its directory.
func New(path string) (*InterProcessMutex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	mu := flock.New(path)

	return &InterProcessMutex{mu: mu}, nil
}

func (m *InterProcessMutex) Lock() error {
	return m.mu.Lock()
}

// LockContext waits for the lock until ctx is done.
func (m *InterProcessMutex) LockContext(ctx context.Context) error {
	locked, err := m.mu.TryLockContext(ctx, retryDelay)
	if err != nil {
		return err
	}
	if !locked {
		return fmt.Errorf("could not acquire lock %s", m.mu.Path())
	}
	return nil
}

func (m *InterProcessMutex) Unlock() error {
	return m.mu.Unlock()
}

func (m *InterProcessMutex) TryLock() (bool, error) {
	return m.mu.TryLock()
}

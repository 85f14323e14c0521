// Package lock serialises seeder operations per (ledger table, environment).
package lock

import (
	"context"
	"errors"
	"sync"

	"github.com/getpup/seeder"
)

// Release frees a held lock. It is safe to call more than once.
type Release func() error

// Locker acquires an exclusive advisory lock for key, blocking until the lock
// is free or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

// Key builds the lock key for a ledger table and environment.
func Key(table, env string) string {
	return table + ":" + env
}

// Local is an in-process Locker. It protects against concurrent operations
// inside one process only and is used where the database offers no advisory
// locks (SQLite, the in-memory ledger).
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

var _ Locker = (*Local)(nil)

// NewLocal creates an in-process locker.
func NewLocal() *Local {
	return &Local{
		held: make(map[string]chan struct{}),
	}
}

// Acquire implements Locker.
func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			released = make(chan struct{})
			l.held[key] = released
			l.mu.Unlock()
			return l.releaser(key, released), nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return nil, ContextError(ctx)
		}
	}
}

func (l *Local) releaser(key string, released chan struct{}) Release {
	var once sync.Once
	return func() error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(released)
		})
		return nil
	}
}

// ContextError maps an expired acquisition context to seeder.ErrLockTimeout.
func ContextError(ctx context.Context) error {
	err := ctx.Err()
	if errors.Is(err, context.DeadlineExceeded) {
		return seeder.ErrLockTimeout
	}
	return err
}

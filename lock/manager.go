package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/getpup/seeder"
)

// Config holds configuration for the lock Manager.
type Config struct {
	// Locker acquires the underlying lock (default: a new Local locker).
	Locker Locker

	// Timeout bounds how long Hold waits for the lock (default: 30s).
	Timeout time.Duration

	// Logger is for observability (optional).
	Logger seeder.Logger
}

// Manager holds a lock for the duration of a single seeder operation.
type Manager struct {
	config Config
}

// NewManager creates a lock Manager with the given configuration.
// Applies default values for Locker and Timeout if not set.
func NewManager(cfg Config) *Manager {
	if cfg.Locker == nil {
		cfg.Locker = NewLocal()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Manager{
		config: cfg,
	}
}

// Hold acquires the lock for key, runs fn, and releases the lock on every exit path.
// Only the acquisition is bounded by the timeout; fn runs with the caller's ctx.
func (m *Manager) Hold(ctx context.Context, key string, fn func(ctx context.Context) error) (err error) {
	acquireCtx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	release, err := m.config.Locker.Acquire(acquireCtx, key)
	cancel()
	if err != nil {
		if m.config.Logger != nil {
			m.config.Logger.Error(ctx, "failed to acquire seeder lock", "key", key, "error", err)
		}
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	if m.config.Logger != nil {
		m.config.Logger.Debug(ctx, "seeder lock acquired", "key", key)
	}

	defer func() {
		if releaseErr := release(); releaseErr != nil {
			if m.config.Logger != nil {
				m.config.Logger.Error(ctx, "failed to release seeder lock", "key", key, "error", releaseErr)
			}
			if err == nil {
				err = fmt.Errorf("failed to release lock %s: %w", key, releaseErr)
			}
			return
		}
		if m.config.Logger != nil {
			m.config.Logger.Debug(ctx, "seeder lock released", "key", key)
		}
	}()

	return fn(ctx)
}

// Timeout returns the configured acquisition timeout.
func (m *Manager) Timeout() time.Duration {
	return m.config.Timeout
}

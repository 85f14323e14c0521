// Package migrator applies and reverses seed units against a ledger.
//
// The Migrator composes three narrow collaborators: a store.LedgerStore that
// records which seeds ran in which environment, a Source that lists and
// resolves seed units, and an executor.Runner that invokes them. Every
// operation is scoped to one environment passed explicitly by the caller.
//
// Apply always proceeds in ascending identifier order and reverse in
// descending order, so reversal undoes units in the opposite order they were
// applied. A failing unit aborts the operation: units processed before it stay
// recorded, the failing unit and those after it are left untouched.
package migrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/executor"
	"github.com/getpup/seeder/lock"
	"github.com/getpup/seeder/store"
	"github.com/google/uuid"
)

// Source scans seed paths into a catalog of resolvable units.
// *discovery.Discovery implements it. Each operation resolves units only
// through the catalog of its own scan.
type Source interface {
	Scan(paths []string) (seeder.Catalog, error)
}

// Config holds configuration for the Migrator.
type Config struct {
	// Store is the seed ledger (required).
	Store store.LedgerStore

	// Source lists and resolves seed units (required).
	Source Source

	// DB is the data store units execute against. It is used to build the
	// default Runner and ignored when Runner is set.
	DB seeder.Execer

	// Runner is an optional custom runner for executing units.
	// If nil, a default executor is created using DB.
	Runner executor.Runner

	// Locker serializes mutating operations per (table, environment)
	// (default: an in-process lock).
	Locker lock.Locker

	// LockTimeout bounds how long an operation waits for the lock (default: 30s).
	LockTimeout time.Duration

	// Table is the ledger table name used in the lock key (default: "seeders").
	Table string

	// AutoInstall provisions a missing ledger before use (default: true).
	// When false, operations fail with seeder.ErrLedgerNotInstalled instead.
	AutoInstall *bool

	// Logger is for observability (optional).
	Logger seeder.Logger

	// Listener receives progress notifications (optional).
	Listener seeder.Listener

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	// Set to false explicitly to disable metrics.
	MetricsEnabled *bool
}

// Migrator runs seed operations. It is safe for concurrent use; mutating
// operations on the same environment are serialized by the configured lock,
// and every operation resolves units from its own scan.
type Migrator struct {
	config         Config
	locks          *lock.Manager
	runner         executor.Runner
	autoInstall    bool
	metricsEnabled bool
	newRunID       func() string
}

var _ seeder.Migrator = (*Migrator)(nil)

// New creates a new Migrator with the given configuration.
// Applies default values for unset optional fields.
func New(cfg Config) (*Migrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("migrator: store is required")
	}
	if cfg.Source == nil {
		return nil, errors.New("migrator: source is required")
	}

	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = 30 * time.Second
	}
	if cfg.Table == "" {
		cfg.Table = "seeders"
	}
	if cfg.Locker == nil {
		cfg.Locker = lock.NewLocal()
	}

	runner := cfg.Runner
	if runner == nil {
		runner = executor.New(executor.Config{
			DB:     cfg.DB,
			Logger: cfg.Logger,
		})
	}

	autoInstall := true
	if cfg.AutoInstall != nil {
		autoInstall = *cfg.AutoInstall
	}
	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}

	return &Migrator{
		config: cfg,
		locks: lock.NewManager(lock.Config{
			Locker:  cfg.Locker,
			Timeout: cfg.LockTimeout,
			Logger:  cfg.Logger,
		}),
		runner:         runner,
		autoInstall:    autoInstall,
		metricsEnabled: metricsEnabled,
		newRunID:       func() string { return uuid.NewString() },
	}, nil
}

// Install provisions the ledger if it does not exist.
func (m *Migrator) Install(ctx context.Context) error {
	exists, err := m.config.Store.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check ledger: %w", err)
	}
	if exists {
		return nil
	}

	if err := m.config.Store.Create(ctx); err != nil {
		return fmt.Errorf("failed to install ledger: %w", err)
	}
	if m.config.Logger != nil {
		m.config.Logger.Info(ctx, "seed ledger installed", "table", m.config.Table)
	}
	return nil
}

// Run applies every pending seed found in paths, in ascending order, as one
// new batch. It returns the seeds processed before any failure; in pretend
// mode, the seeds that would be applied. Every pending seed is resolved before
// the first is applied, so one that cannot be resolved means none run.
func (m *Migrator) Run(ctx context.Context, env string, paths []string, opts seeder.Options) ([]string, error) {
	op, err := m.begin(ctx, "run", env, opts)
	if err != nil {
		return nil, err
	}

	var applied []string
	err = m.hold(ctx, op, func(ctx context.Context) error {
		var runErr error
		applied, runErr = m.runPending(ctx, op, paths, nil)
		return runErr
	})
	return applied, op.finish(ctx, err)
}

// Rollback reverses the seeds of the last batch in descending order.
func (m *Migrator) Rollback(ctx context.Context, env string, paths []string, opts seeder.Options) ([]string, error) {
	op, err := m.begin(ctx, "rollback", env, opts)
	if err != nil {
		return nil, err
	}

	var reversed []string
	err = m.hold(ctx, op, func(ctx context.Context) error {
		entries, err := m.lastBatch(ctx, op)
		if err != nil {
			return err
		}
		seeds := make([]string, len(entries))
		for i, entry := range entries {
			seeds[i] = entry.Seed
		}

		var rollbackErr error
		reversed, rollbackErr = m.reverse(ctx, op, paths, seeds)
		return rollbackErr
	})
	return reversed, op.finish(ctx, err)
}

// Reset reverses every applied seed of the environment in descending order,
// regardless of batch.
func (m *Migrator) Reset(ctx context.Context, env string, paths []string, opts seeder.Options) ([]string, error) {
	op, err := m.begin(ctx, "reset", env, opts)
	if err != nil {
		return nil, err
	}

	var reversed []string
	err = m.hold(ctx, op, func(ctx context.Context) error {
		var resetErr error
		reversed, resetErr = m.resetAll(ctx, op, paths)
		return resetErr
	})
	return reversed, op.finish(ctx, err)
}

// Refresh resets the environment and then runs every seed again, holding the
// lock across both phases. In pretend mode the run phase reports every seed
// the reset would have reversed as pending.
func (m *Migrator) Refresh(ctx context.Context, env string, paths []string, opts seeder.Options) (reversed []string, applied []string, err error) {
	op, err := m.begin(ctx, "refresh", env, opts)
	if err != nil {
		return nil, nil, err
	}

	err = m.hold(ctx, op, func(ctx context.Context) error {
		var phaseErr error
		reversed, phaseErr = m.resetAll(ctx, op, paths)
		if phaseErr != nil {
			return phaseErr
		}

		var forget []string
		if op.pretend {
			forget = reversed
		}
		applied, phaseErr = m.runPending(ctx, op, paths, forget)
		return phaseErr
	})
	return reversed, applied, op.finish(ctx, err)
}

// Status reports, for every discovered seed in ascending order, whether it
// has been applied in the environment and in which batch.
func (m *Migrator) Status(ctx context.Context, env string, paths []string) ([]seeder.Status, error) {
	op, err := m.begin(ctx, "status", env, seeder.Options{})
	if err != nil {
		return nil, err
	}

	installed, err := m.prepare(ctx, op)
	if err != nil {
		return nil, err
	}

	_, candidates, err := m.scan(paths)
	if err != nil {
		return nil, err
	}

	batches := make(map[string]int)
	if installed {
		entries, err := m.config.Store.Entries(ctx, env)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		for _, entry := range entries {
			batches[entry.Seed] = entry.Batch
		}
	}

	statuses := make([]seeder.Status, 0, len(candidates))
	pending := 0
	for _, seed := range candidates {
		batch, applied := batches[seed]
		if !applied {
			pending++
		}
		statuses = append(statuses, seeder.Status{Seed: seed, Applied: applied, Batch: batch})
	}

	if op.collector != nil {
		op.collector.SetPending(pending)
	}
	return statuses, nil
}

// hold runs fn under the lock for the operation's environment.
// Pretend operations never write, so they run without the lock.
func (m *Migrator) hold(ctx context.Context, op *operation, fn func(ctx context.Context) error) error {
	if op.pretend {
		return fn(ctx)
	}

	start := time.Now()
	return m.locks.Hold(ctx, lock.Key(m.config.Table, op.env), func(ctx context.Context) error {
		if op.collector != nil {
			op.collector.ObserveLockWait(time.Since(start).Seconds())
		}
		return fn(ctx)
	})
}

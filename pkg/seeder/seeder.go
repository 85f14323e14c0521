// Package seeder is the high-level entry point for applications that embed
// seed migrations.
//
// It wires a SQL ledger, directory discovery and the default executor behind
// functional options, and binds the seed root so callers only name the
// environment:
//
//	s, err := seeder.New(
//	    seeder.WithDatabase(db, sqlstore.Postgres),
//	    seeder.WithDirectory("db/seeders"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	applied, err := s.Run(ctx, "staging", rootpkg.Options{})
package seeder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	rootpkg "github.com/getpup/seeder"
	"github.com/getpup/seeder/discovery"
	"github.com/getpup/seeder/executor"
	"github.com/getpup/seeder/lock"
	"github.com/getpup/seeder/migrator"
	"github.com/getpup/seeder/store"
	"github.com/getpup/seeder/store/sqlstore"
	"github.com/spf13/afero"
)

// Re-export core types from the root package.
type (
	// Options controls a single operation.
	Options = rootpkg.Options

	// Status reports whether a discovered seed has been applied.
	Status = rootpkg.Status

	// Unit is one reversible data-seeding operation.
	Unit = rootpkg.Unit

	// Event is a progress notification.
	Event = rootpkg.Event
)

// DefaultDirectory is the seed root used when WithDirectory is not given.
const DefaultDirectory = "seeders"

// Option configures a Seeder.
type Option func(*config)

type config struct {
	db             *sql.DB
	dialect        sqlstore.Dialect
	table          string
	directory      string
	fs             afero.Fs
	registry       *discovery.Registry
	ledger         store.LedgerStore
	runner         executor.Runner
	locker         lock.Locker
	lockTimeout    time.Duration
	autoInstall    *bool
	logger         rootpkg.Logger
	listener       rootpkg.Listener
	metricsEnabled *bool
}

// Seeder runs seed operations for the environments under one seed root.
type Seeder struct {
	migrator  rootpkg.Migrator
	directory string
}

// New creates a Seeder with the given options.
//
// Required options:
//   - WithDatabase: database connection and dialect
//     (or both WithLedgerStore and WithRunner)
//
// Optional configuration (with defaults):
//   - WithDirectory: seed root containing one directory per environment (default: "seeders")
//   - WithTable: ledger table name (default: "seeders")
//   - WithFs: filesystem seed files are read from (default: the OS filesystem)
//   - WithRegistry: registry of compiled Go units (default: discovery.DefaultRegistry)
//   - WithLedgerStore: custom ledger store (default: SQL store on the database)
//   - WithRunner: custom runner for units (default: executor.New)
//   - WithLocker: custom lock (default: the ledger's advisory lock)
//   - WithLockTimeout: how long to wait for the lock (default: 30s)
//   - WithAutoInstall: create a missing ledger on first use (default: true)
//   - WithLogger: logger for observability (default: nil)
//   - WithListener: progress listener (default: nil)
//   - WithMetricsEnabled: enable Prometheus metrics (default: true)
//
// Returns an error if a required option is missing or the table name is unsafe.
func New(opts ...Option) (*Seeder, error) {
	cfg := &config{
		table:     sqlstore.DefaultTable,
		directory: DefaultDirectory,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.db == nil && (cfg.ledger == nil || cfg.runner == nil) {
		return nil, fmt.Errorf("database is required: use WithDatabase option")
	}
	if cfg.directory == "" {
		return nil, fmt.Errorf("seed directory cannot be empty")
	}

	if cfg.ledger == nil {
		ledger, err := sqlstore.NewWithConfig(cfg.db, cfg.dialect, sqlstore.TableConfig{Table: cfg.table})
		if err != nil {
			return nil, fmt.Errorf("failed to create ledger store: %w", err)
		}
		cfg.ledger = ledger
		if cfg.locker == nil {
			cfg.locker = ledger
		}
	}

	migratorConfig := migrator.Config{
		Store: cfg.ledger,
		Source: discovery.New(discovery.Config{
			Fs:       cfg.fs,
			Registry: cfg.registry,
			Logger:   cfg.logger,
		}),
		Runner:         cfg.runner,
		Locker:         cfg.locker,
		LockTimeout:    cfg.lockTimeout,
		Table:          cfg.table,
		AutoInstall:    cfg.autoInstall,
		Logger:         cfg.logger,
		Listener:       cfg.listener,
		MetricsEnabled: cfg.metricsEnabled,
	}
	if cfg.db != nil {
		migratorConfig.DB = cfg.db
	}

	m, err := migrator.New(migratorConfig)
	if err != nil {
		return nil, err
	}

	return &Seeder{migrator: m, directory: cfg.directory}, nil
}

// Migrator returns the underlying migrator for callers that pass explicit paths.
func (s *Seeder) Migrator() rootpkg.Migrator {
	return s.migrator
}

// Directory returns the seed root.
func (s *Seeder) Directory() string {
	return s.directory
}

// Paths returns the directories scanned for env.
func (s *Seeder) Paths(env string) []string {
	return discovery.EnvironmentPaths(s.directory, env)
}

// Install provisions the ledger if it does not exist.
func (s *Seeder) Install(ctx context.Context) error {
	return s.migrator.Install(ctx)
}

// Run applies every pending seed for env as one new batch.
func (s *Seeder) Run(ctx context.Context, env string, opts Options) ([]string, error) {
	return s.migrator.Run(ctx, env, s.Paths(env), opts)
}

// Rollback reverses the last batch applied in env.
func (s *Seeder) Rollback(ctx context.Context, env string, opts Options) ([]string, error) {
	return s.migrator.Rollback(ctx, env, s.Paths(env), opts)
}

// Reset reverses every seed applied in env.
func (s *Seeder) Reset(ctx context.Context, env string, opts Options) ([]string, error) {
	return s.migrator.Reset(ctx, env, s.Paths(env), opts)
}

// Refresh resets env and then runs all of its seeds again.
func (s *Seeder) Refresh(ctx context.Context, env string, opts Options) (reversed []string, applied []string, err error) {
	return s.migrator.Refresh(ctx, env, s.Paths(env), opts)
}

// Status reports, for every seed discovered for env, whether it is applied.
func (s *Seeder) Status(ctx context.Context, env string) ([]Status, error) {
	return s.migrator.Status(ctx, env, s.Paths(env))
}

// WithDatabase sets the database that holds the ledger and that units execute against.
func WithDatabase(db *sql.DB, dialect sqlstore.Dialect) Option {
	return func(c *config) {
		c.db = db
		c.dialect = dialect
	}
}

// WithDirectory sets the seed root. Each environment reads <root>/all and <root>/<env>.
func WithDirectory(directory string) Option {
	return func(c *config) {
		c.directory = directory
	}
}

// WithTable sets a custom ledger table name.
func WithTable(table string) Option {
	return func(c *config) {
		c.table = table
	}
}

// WithFs sets the filesystem seed files are read from.
func WithFs(fs afero.Fs) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// WithRegistry sets the registry compiled Go units are looked up in.
func WithRegistry(registry *discovery.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithLedgerStore sets a custom ledger store.
// Use this if you want to provide your own implementation of store.LedgerStore.
func WithLedgerStore(ledger store.LedgerStore) Option {
	return func(c *config) {
		c.ledger = ledger
	}
}

// WithRunner sets a custom runner for executing units.
// Use this if you want to provide your own implementation of executor.Runner.
func WithRunner(runner executor.Runner) Option {
	return func(c *config) {
		c.runner = runner
	}
}

// WithLocker sets the lock that serializes operations per environment.
func WithLocker(locker lock.Locker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithLockTimeout sets how long an operation waits for the lock.
func WithLockTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.lockTimeout = timeout
	}
}

// WithAutoInstall controls whether a missing ledger is created on first use.
func WithAutoInstall(enabled bool) Option {
	return func(c *config) {
		c.autoInstall = &enabled
	}
}

// WithLogger sets the logger for observability.
func WithLogger(logger rootpkg.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithListener sets the progress listener.
func WithListener(listener rootpkg.Listener) Option {
	return func(c *config) {
		c.listener = listener
	}
}

// WithMetricsEnabled enables or disables Prometheus metrics collection.
func WithMetricsEnabled(enabled bool) Option {
	return func(c *config) {
		c.metricsEnabled = &enabled
	}
}

// Install creates the ledger table on db if it does not exist.
//
// This should typically be run once during application deployment, or
// replaced by the migration written with pkg/migrations.
func Install(ctx context.Context, db *sql.DB, dialect sqlstore.Dialect, table string) error {
	ledger, err := sqlstore.NewWithConfig(db, dialect, sqlstore.TableConfig{Table: table})
	if err != nil {
		return err
	}

	if err := ledger.Create(ctx); err != nil {
		return fmt.Errorf("failed to install seed ledger: %w", err)
	}

	return nil
}

package seeder

import (
	"context"
	"database/sql"
)

// Execer executes a statement against the data store.
// *sql.DB, *sql.Tx and *sql.Conn satisfy it, as does the pretend recorder.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Unit is one discrete, named, reversible data-seeding operation.
// Units hold no execution state; whether they ran lives in the ledger.
type Unit interface {
	// Apply seeds the data.
	Apply(ctx context.Context, db Execer) error

	// Reverse removes what Apply seeded.
	Reverse(ctx context.Context, db Execer) error
}

// Describer is implemented by units that can describe their statements
// without being executed. Pretend mode prefers it over recording.
type Describer interface {
	Describe(direction Direction) []string
}

// Catalog is the result of scanning seed paths: the identifiers found and
// the units they resolve to. A Catalog does not change after it is built.
type Catalog interface {
	// IDs returns the scanned identifiers in ascending order.
	IDs() []string

	// Resolve returns the unit for id, or an error wrapping ErrUnitNotFound.
	Resolve(id string) (Unit, error)
}

// Logger is the structured logger used across the seeder packages.
// Args are alternating key/value pairs. A nil Logger disables logging.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
}

// Migrator applies and reverses seed units for one environment at a time.
//
// Every operation takes the environment explicitly; ledger reads and writes
// are scoped to it. Paths are scanned in order, conventionally the "all"
// directory first and then the environment's own directory.
type Migrator interface {
	// Install provisions the ledger if it does not exist.
	Install(ctx context.Context) error

	// Run applies every pending seed in ascending order as one new batch.
	// It returns the seeds processed before any failure. Pending seeds are
	// all resolved first; an unresolvable seed means none are applied.
	Run(ctx context.Context, env string, paths []string, opts Options) ([]string, error)

	// Rollback reverses the last batch in descending order.
	Rollback(ctx context.Context, env string, paths []string, opts Options) ([]string, error)

	// Reset reverses every applied seed in descending order.
	Reset(ctx context.Context, env string, paths []string, opts Options) ([]string, error)

	// Refresh resets and then runs all seeds again.
	Refresh(ctx context.Context, env string, paths []string, opts Options) (reversed []string, applied []string, err error)

	// Status reports, for every discovered seed in ascending order, whether it is applied.
	Status(ctx context.Context, env string, paths []string) ([]Status, error)
}

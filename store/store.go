package store

import (
	"context"

	"github.com/getpup/seeder"
)

// LedgerStore persists which seeds have been applied, per environment and batch.
// Every read and write is scoped to the environment it is given; entries of
// other environments are never visible or affected.
type LedgerStore interface {
	// Exists reports whether the backing ledger table exists.
	Exists(ctx context.Context) (bool, error)

	// Create provisions the ledger table with columns seed, env and batch.
	// Calling it on an existing ledger is a no-op.
	Create(ctx context.Context) error

	// Applied returns every seed with an entry for env. Order is unspecified.
	Applied(ctx context.Context, env string) ([]string, error)

	// Entries returns every entry for env ordered by batch, then seed.
	Entries(ctx context.Context, env string) ([]seeder.Entry, error)

	// LastBatch returns the entries of the highest batch for env, ordered by
	// seed descending. Returns an empty slice if env has no entries.
	LastBatch(ctx context.Context, env string) ([]seeder.Entry, error)

	// NextBatchNumber returns the highest batch for env plus one, or 1.
	NextBatchNumber(ctx context.Context, env string) (int, error)

	// Log records that seed was applied in env as part of batch.
	// Returns seeder.ErrEntryExists if (seed, env) is already logged.
	Log(ctx context.Context, seed, env string, batch int) error

	// Delete removes the entry for (seed, env). Deleting an absent entry is not an error.
	Delete(ctx context.Context, seed, env string) error
}

package sqlstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/lock"
	"github.com/getpup/seeder/store"
	"github.com/getpup/seeder/store/storetest"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openSQLite opens a throwaway SQLite database limited to one connection.
func openSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	return db
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()

	s := New(openSQLite(t), SQLite)
	require.NoError(t, s.Create(context.Background()))
	return s
}

func TestStore_SQLiteContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.LedgerStore {
		return newSQLiteStore(t)
	})
}

func TestExists_BeforeAndAfterCreate(t *testing.T) {
	s := New(openSQLite(t), SQLite)
	ctx := context.Background()

	exists, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Create(ctx))

	exists, err = s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCustomTableName(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	s, err := NewWithConfig(db, SQLite, TableConfig{Table: "seed_ledger"})
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx))
	require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM seed_ledger WHERE env = 'staging'`).Scan(&count))
	assert.Equal(t, 1, count)
	assert.Equal(t, "seed_ledger", s.Table())
}

func TestNewWithConfig_RejectsUnsafeTableName(t *testing.T) {
	tests := []string{"", "1seeders", "seeders; DROP TABLE users", "seed-ers", "seeders.x"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewWithConfig(nil, SQLite, TableConfig{Table: name})
			assert.ErrorIs(t, err, store.ErrInvalidTableName)
		})
	}
}

func TestLog_UniqueIndexReportsEntryExists(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	// Bypass the pre-check so the unique index raises the conflict.
	_, err := s.db.ExecContext(ctx, `INSERT INTO seeders (seed, env, batch) VALUES ('a', 'staging', 1)`)
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `INSERT INTO seeders (seed, env, batch) VALUES ('a', 'staging', 2)`)
	require.Error(t, err)
	assert.True(t, isUniqueViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Run("postgres unique violation", func(t *testing.T) {
		assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	})

	t.Run("postgres other error", func(t *testing.T) {
		assert.False(t, isUniqueViolation(&pq.Error{Code: "42P01"}))
	})

	t.Run("unrelated error", func(t *testing.T) {
		assert.False(t, isUniqueViolation(sql.ErrNoRows))
	})
}

func TestLog_RejectsZeroBatch(t *testing.T) {
	s := newSQLiteStore(t)

	err := s.Log(context.Background(), "20240101000000_a", "staging", 0)
	assert.ErrorIs(t, err, store.ErrInvalidBatch)
}

func TestLog_DuplicateLeavesOriginalBatch(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
	err := s.Log(ctx, "20240101000000_a", "staging", 5)
	require.ErrorIs(t, err, seeder.ErrEntryExists)

	next, err := s.NextBatchNumber(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

func TestAcquire_SQLiteUsesProcessLock(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	release, err := s.Acquire(ctx, lock.Key("seeders", "staging"))
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(waitCtx, lock.Key("seeders", "staging"))
	assert.ErrorIs(t, err, seeder.ErrLockTimeout)

	require.NoError(t, release())

	again, err := s.Acquire(ctx, lock.Key("seeders", "staging"))
	require.NoError(t, err)
	require.NoError(t, again())
}

func TestAdvisoryLockID(t *testing.T) {
	a := advisoryLockID("seeders:staging")
	b := advisoryLockID("seeders:production")

	assert.Equal(t, a, advisoryLockID("seeders:staging"))
	assert.NotEqual(t, a, b)
}

package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/lock"
	"github.com/getpup/seeder/store"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateTableName ensures a table name contains only characters that are
// safe to interpolate into SQL.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", store.ErrInvalidTableName)
	}
	if !identifierRegex.MatchString(name) {
		return fmt.Errorf("%w: must start with a letter and contain only letters, numbers, and underscores (got: %s)", store.ErrInvalidTableName, name)
	}
	return nil
}

// Store is a database/sql implementation of store.LedgerStore.
// It also implements lock.Locker using the database's advisory locks.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	local   *lock.Local
}

var (
	_ store.LedgerStore = (*Store)(nil)
	_ lock.Locker       = (*Store)(nil)
)

// New creates a ledger store with the default table name.
func New(db *sql.DB, dialect Dialect) *Store {
	s, _ := NewWithConfig(db, dialect, DefaultTableConfig())
	return s
}

// NewWithConfig creates a ledger store with a custom table name.
// Returns store.ErrInvalidTableName if the name is unsafe.
func NewWithConfig(db *sql.DB, dialect Dialect, config TableConfig) (*Store, error) {
	if err := ValidateTableName(config.Table); err != nil {
		return nil, err
	}

	return &Store{
		db:      db,
		dialect: dialect,
		table:   config.Table,
		local:   lock.NewLocal(),
	}, nil
}

// Table returns the ledger table name.
func (s *Store) Table() string {
	return s.table
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// Exists reports whether the ledger table exists.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExistsQuery(), s.table).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check ledger table: %w", err)
	}

	return count > 0, nil
}

// Create provisions the ledger table and its indexes if they do not exist.
func (s *Store) Create(ctx context.Context) error {
	for _, statement := range CreateStatements(s.dialect, TableConfig{Table: s.table}) {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to create ledger table: %w", err)
		}
	}

	return nil
}

// Applied returns every seed logged for env.
func (s *Store) Applied(ctx context.Context, env string) (seeds []string, err error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT seed
		FROM %s
		WHERE env = ?
		ORDER BY seed ASC
	`, s.table))

	rows, err := s.db.QueryContext(ctx, query, env)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied seeds: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	seeds = make([]string, 0)
	for rows.Next() {
		var seed string
		if err := rows.Scan(&seed); err != nil {
			return nil, fmt.Errorf("failed to scan seed: %w", err)
		}
		seeds = append(seeds, seed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seeds: %w", err)
	}

	return seeds, nil
}

// Entries returns every entry for env ordered by batch, then seed.
func (s *Store) Entries(ctx context.Context, env string) ([]seeder.Entry, error) {
	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT seed, env, batch
		FROM %s
		WHERE env = ?
		ORDER BY batch ASC, seed ASC
	`, s.table))

	return s.queryEntries(ctx, "failed to get ledger entries", query, env)
}

// LastBatch returns the entries of the highest batch for env, seed descending.
func (s *Store) LastBatch(ctx context.Context, env string) ([]seeder.Entry, error) {
	last, err := s.maxBatch(ctx, env)
	if err != nil {
		return nil, err
	}
	if last == 0 {
		return []seeder.Entry{}, nil
	}

	query := s.dialect.rebind(fmt.Sprintf(`
		SELECT seed, env, batch
		FROM %s
		WHERE env = ? AND batch = ?
		ORDER BY seed DESC
	`, s.table))

	return s.queryEntries(ctx, "failed to get last batch", query, env, last)
}

// NextBatchNumber returns the highest batch for env plus one.
func (s *Store) NextBatchNumber(ctx context.Context, env string) (int, error) {
	last, err := s.maxBatch(ctx, env)
	if err != nil {
		return 0, err
	}

	return last + 1, nil
}

// Log inserts a ledger entry. The existence check and the insert share a
// transaction, and a unique-index violation is reported the same way, so an
// existing (seed, env) pair is never overwritten or duplicated.
func (s *Store) Log(ctx context.Context, seed, env string, batch int) error {
	if batch < 1 {
		return store.ErrInvalidBatch
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	countQuery := s.dialect.rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE env = ? AND seed = ?`, s.table))
	var count int
	if err := tx.QueryRowContext(ctx, countQuery, env, seed).Scan(&count); err != nil {
		return fmt.Errorf("failed to check ledger entry: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %s in %s", seeder.ErrEntryExists, seed, env)
	}

	insertQuery := s.dialect.rebind(fmt.Sprintf(`INSERT INTO %s (seed, env, batch) VALUES (?, ?, ?)`, s.table))
	if _, err := tx.ExecContext(ctx, insertQuery, seed, env, batch); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s in %s", seeder.ErrEntryExists, seed, env)
		}
		return fmt.Errorf("failed to log seed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete removes the entry for (seed, env). Deleting an absent entry is not an error.
func (s *Store) Delete(ctx context.Context, seed, env string) error {
	query := s.dialect.rebind(fmt.Sprintf(`DELETE FROM %s WHERE env = ? AND seed = ?`, s.table))

	if _, err := s.db.ExecContext(ctx, query, env, seed); err != nil {
		return fmt.Errorf("failed to delete seed: %w", err)
	}

	return nil
}

func (s *Store) maxBatch(ctx context.Context, env string) (int, error) {
	query := s.dialect.rebind(fmt.Sprintf(`SELECT COALESCE(MAX(batch), 0) FROM %s WHERE env = ?`, s.table))

	var last int
	if err := s.db.QueryRowContext(ctx, query, env).Scan(&last); err != nil {
		return 0, fmt.Errorf("failed to get last batch number: %w", err)
	}

	return last, nil
}

func (s *Store) queryEntries(ctx context.Context, failure, query string, args ...any) (entries []seeder.Entry, err error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", failure, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close rows: %w", closeErr)
		}
	}()

	entries = make([]seeder.Entry, 0)
	for rows.Next() {
		var entry seeder.Entry
		if err := rows.Scan(&entry.Seed, &entry.Env, &entry.Batch); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

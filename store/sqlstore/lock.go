package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"math"
	"time"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/lock"
)

const defaultMySQLLockWait = 30 * time.Second

// Acquire implements lock.Locker. PostgreSQL uses a session-level
// pg_advisory_lock and MySQL uses GET_LOCK, both held on a dedicated
// connection until released. SQLite has no advisory locks, so the lock is
// only held within this process.
func (s *Store) Acquire(ctx context.Context, key string) (lock.Release, error) {
	switch s.dialect {
	case Postgres:
		return s.acquirePostgres(ctx, key)
	case MySQL:
		return s.acquireMySQL(ctx, key)
	default:
		return s.local.Acquire(ctx, key)
	}
}

func (s *Store) acquirePostgres(ctx context.Context, key string) (lock.Release, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lock connection: %w", err)
	}

	id := advisoryLockID(key)
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, id); err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, lock.ContextError(ctx)
		}
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}

	return onceRelease(conn, func(ctx context.Context) error {
		_, err := conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, id)
		return err
	}), nil
}

func (s *Store) acquireMySQL(ctx context.Context, key string) (lock.Release, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get lock connection: %w", err)
	}

	wait := defaultMySQLLockWait
	if deadline, ok := ctx.Deadline(); ok {
		wait = time.Until(deadline)
	}
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 0 {
		seconds = 0
	}

	var acquired sql.NullInt64
	if err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, ?)`, key, seconds).Scan(&acquired); err != nil {
		conn.Close()
		if ctx.Err() != nil {
			return nil, lock.ContextError(ctx)
		}
		return nil, fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	if !acquired.Valid || acquired.Int64 != 1 {
		conn.Close()
		return nil, seeder.ErrLockTimeout
	}

	return onceRelease(conn, func(ctx context.Context) error {
		_, err := conn.ExecContext(ctx, `SELECT RELEASE_LOCK(?)`, key)
		return err
	}), nil
}

// onceRelease unlocks and returns conn to the pool exactly once.
// Unlocking uses a fresh context so that a cancelled operation still releases.
func onceRelease(conn *sql.Conn, unlock func(ctx context.Context) error) lock.Release {
	released := false
	var result error
	return func() error {
		if released {
			return result
		}
		released = true

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := unlock(ctx); err != nil {
			result = fmt.Errorf("failed to release advisory lock: %w", err)
		}
		if err := conn.Close(); err != nil && result == nil {
			result = fmt.Errorf("failed to close lock connection: %w", err)
		}
		return result
	}
}

// advisoryLockID hashes a lock key into PostgreSQL's bigint lock space.
func advisoryLockID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}

// Package storetest provides a behavioural test suite shared by every
// store.LedgerStore implementation.
package storetest

import (
	"context"
	"sync"
	"testing"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, already created ledger for a single subtest.
type Factory func(t *testing.T) store.LedgerStore

// Run exercises the LedgerStore contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Create is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Create(ctx))
		require.NoError(t, s.Create(ctx))

		exists, err := s.Exists(ctx)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("empty ledger", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		applied, err := s.Applied(ctx, "staging")
		require.NoError(t, err)
		assert.Empty(t, applied)

		last, err := s.LastBatch(ctx, "staging")
		require.NoError(t, err)
		assert.Empty(t, last)

		next, err := s.NextBatchNumber(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("Log then Applied", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240102000000_b", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))

		applied, err := s.Applied(ctx, "staging")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"20240101000000_a", "20240102000000_b"}, applied)
	})

	t.Run("Log rejects duplicate entry", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
		err := s.Log(ctx, "20240101000000_a", "staging", 2)
		assert.ErrorIs(t, err, seeder.ErrEntryExists)

		entries, err := s.Entries(ctx, "staging")
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 1, entries[0].Batch)
	})

	t.Run("same seed in two environments", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240101000000_a", "production", 1))

		require.NoError(t, s.Delete(ctx, "20240101000000_a", "staging"))

		staging, err := s.Applied(ctx, "staging")
		require.NoError(t, err)
		assert.Empty(t, staging)

		production, err := s.Applied(ctx, "production")
		require.NoError(t, err)
		assert.Equal(t, []string{"20240101000000_a"}, production)
	})

	t.Run("NextBatchNumber is scoped by environment", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240102000000_b", "staging", 2))
		require.NoError(t, s.Log(ctx, "20240103000000_c", "staging", 3))

		next, err := s.NextBatchNumber(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, 4, next)

		next, err = s.NextBatchNumber(ctx, "production")
		require.NoError(t, err)
		assert.Equal(t, 1, next)
	})

	t.Run("LastBatch returns highest batch seed descending", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240102000000_b", "staging", 2))
		require.NoError(t, s.Log(ctx, "20240104000000_d", "staging", 2))
		require.NoError(t, s.Log(ctx, "20240103000000_c", "staging", 2))
		require.NoError(t, s.Log(ctx, "20240105000000_e", "production", 7))

		last, err := s.LastBatch(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, []seeder.Entry{
			{Seed: "20240104000000_d", Env: "staging", Batch: 2},
			{Seed: "20240103000000_c", Env: "staging", Batch: 2},
			{Seed: "20240102000000_b", Env: "staging", Batch: 2},
		}, last)
	})

	t.Run("Entries ordered by batch then seed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240103000000_c", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 2))
		require.NoError(t, s.Log(ctx, "20240102000000_b", "staging", 1))

		entries, err := s.Entries(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, []seeder.Entry{
			{Seed: "20240102000000_b", Env: "staging", Batch: 1},
			{Seed: "20240103000000_c", Env: "staging", Batch: 1},
			{Seed: "20240101000000_a", Env: "staging", Batch: 2},
		}, entries)
	})

	t.Run("Delete absent entry is a no-op", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		assert.NoError(t, s.Delete(ctx, "20240101000000_a", "staging"))
	})

	t.Run("batch numbers are not reused after deleting everything", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Log(ctx, "20240101000000_a", "staging", 1))
		require.NoError(t, s.Log(ctx, "20240102000000_b", "staging", 2))
		require.NoError(t, s.Delete(ctx, "20240102000000_b", "staging"))

		next, err := s.NextBatchNumber(ctx, "staging")
		require.NoError(t, err)
		assert.Equal(t, 2, next)
	})

	t.Run("concurrent Log calls", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		seeds := []string{"s01", "s02", "s03", "s04", "s05", "s06", "s07", "s08"}
		var wg sync.WaitGroup
		for _, seed := range seeds {
			wg.Add(1)
			go func(seed string) {
				defer wg.Done()
				assert.NoError(t, s.Log(ctx, seed, "staging", 1))
			}(seed)
		}
		wg.Wait()

		applied, err := s.Applied(ctx, "staging")
		require.NoError(t, err)
		assert.ElementsMatch(t, seeds, applied)
	})
}

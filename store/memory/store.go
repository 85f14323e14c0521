package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/store"
)

// Store is an in-memory implementation of store.LedgerStore.
// It provides thread-safe access to ledger entries using a sync.RWMutex.
type Store struct {
	mu      sync.RWMutex
	created bool
	entries map[string]map[string]int // env -> seed -> batch
}

// New creates an in-memory ledger. The ledger reports Exists as false until
// Create is called, mirroring a freshly connected database.
func New() *Store {
	return &Store{
		entries: make(map[string]map[string]int),
	}
}

// NewInstalled creates an in-memory ledger that already exists.
func NewInstalled() *Store {
	s := New()
	s.created = true
	return s
}

// Exists reports whether Create has been called.
func (s *Store) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.created, nil
}

// Create marks the ledger as provisioned. Existing entries are kept.
func (s *Store) Create(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.created = true
	return nil
}

// Applied returns every seed logged for env in ascending order.
func (s *Store) Applied(ctx context.Context, env string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seeds := make([]string, 0, len(s.entries[env]))
	for seed := range s.entries[env] {
		seeds = append(seeds, seed)
	}
	sort.Strings(seeds)

	return seeds, nil
}

// Entries returns every entry for env ordered by batch, then seed.
func (s *Store) Entries(ctx context.Context, env string) ([]seeder.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]seeder.Entry, 0, len(s.entries[env]))
	for seed, batch := range s.entries[env] {
		entries = append(entries, seeder.Entry{Seed: seed, Env: env, Batch: batch})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Batch != entries[j].Batch {
			return entries[i].Batch < entries[j].Batch
		}
		return entries[i].Seed < entries[j].Seed
	})

	return entries, nil
}

// LastBatch returns the entries of the highest batch for env, seed descending.
func (s *Store) LastBatch(ctx context.Context, env string) ([]seeder.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	last := s.maxBatch(env)
	entries := make([]seeder.Entry, 0)
	if last == 0 {
		return entries, nil
	}

	for seed, batch := range s.entries[env] {
		if batch == last {
			entries = append(entries, seeder.Entry{Seed: seed, Env: env, Batch: batch})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Seed > entries[j].Seed
	})

	return entries, nil
}

// NextBatchNumber returns the highest batch for env plus one.
func (s *Store) NextBatchNumber(ctx context.Context, env string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.maxBatch(env) + 1, nil
}

// Log records seed as applied in env.
// Returns seeder.ErrEntryExists if the pair is already logged.
func (s *Store) Log(ctx context.Context, seed, env string, batch int) error {
	if batch < 1 {
		return store.ErrInvalidBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seeds, ok := s.entries[env]
	if !ok {
		seeds = make(map[string]int)
		s.entries[env] = seeds
	}
	if _, exists := seeds[seed]; exists {
		return seeder.ErrEntryExists
	}

	seeds[seed] = batch
	return nil
}

// Delete removes the entry for (seed, env) if present.
func (s *Store) Delete(ctx context.Context, seed, env string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries[env], seed)
	return nil
}

// maxBatch must be called with s.mu held.
func (s *Store) maxBatch(env string) int {
	max := 0
	for _, batch := range s.entries[env] {
		if batch > max {
			max = batch
		}
	}
	return max
}

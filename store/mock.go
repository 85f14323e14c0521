package store

import (
	"context"
	"sync"

	"github.com/getpup/seeder"
)

// MockLedgerStore is a configurable mock implementation of LedgerStore
// for use in tests. Each method calls its Func field when set, otherwise the
// Fallback store when set, otherwise returns an empty result. All calls are
// recorded so tests can assert on them.
type MockLedgerStore struct {
	mu sync.RWMutex

	// Fallback receives calls whose Func field is nil.
	Fallback LedgerStore

	ExistsFunc          func(ctx context.Context) (bool, error)
	CreateFunc          func(ctx context.Context) error
	AppliedFunc         func(ctx context.Context, env string) ([]string, error)
	EntriesFunc         func(ctx context.Context, env string) ([]seeder.Entry, error)
	LastBatchFunc       func(ctx context.Context, env string) ([]seeder.Entry, error)
	NextBatchNumberFunc func(ctx context.Context, env string) (int, error)
	LogFunc             func(ctx context.Context, seed, env string, batch int) error
	DeleteFunc          func(ctx context.Context, seed, env string) error

	// Call tracking
	ExistsCalls          int
	CreateCalls          int
	AppliedCalls         []string
	EntriesCalls         []string
	LastBatchCalls       []string
	NextBatchNumberCalls []string
	LogCalls             []LogCall
	DeleteCalls          []DeleteCall
}

// LogCall records the parameters of a single Log call.
type LogCall struct {
	Seed  string
	Env   string
	Batch int
}

// DeleteCall records the parameters of a single Delete call.
type DeleteCall struct {
	Seed string
	Env  string
}

var _ LedgerStore = (*MockLedgerStore)(nil)

// NewMockLedgerStore creates a mock that forwards unconfigured calls to fallback.
// fallback may be nil.
func NewMockLedgerStore(fallback LedgerStore) *MockLedgerStore {
	return &MockLedgerStore{Fallback: fallback}
}

// Exists implements LedgerStore.
func (m *MockLedgerStore) Exists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	m.ExistsCalls++
	m.mu.Unlock()

	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx)
	}
	if m.Fallback != nil {
		return m.Fallback.Exists(ctx)
	}

	return true, nil
}

// Create implements LedgerStore.
func (m *MockLedgerStore) Create(ctx context.Context) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx)
	}
	if m.Fallback != nil {
		return m.Fallback.Create(ctx)
	}

	return nil
}

// Applied implements LedgerStore.
func (m *MockLedgerStore) Applied(ctx context.Context, env string) ([]string, error) {
	m.mu.Lock()
	m.AppliedCalls = append(m.AppliedCalls, env)
	m.mu.Unlock()

	if m.AppliedFunc != nil {
		return m.AppliedFunc(ctx, env)
	}
	if m.Fallback != nil {
		return m.Fallback.Applied(ctx, env)
	}

	return []string{}, nil
}

// Entries implements LedgerStore.
func (m *MockLedgerStore) Entries(ctx context.Context, env string) ([]seeder.Entry, error) {
	m.mu.Lock()
	m.EntriesCalls = append(m.EntriesCalls, env)
	m.mu.Unlock()

	if m.EntriesFunc != nil {
		return m.EntriesFunc(ctx, env)
	}
	if m.Fallback != nil {
		return m.Fallback.Entries(ctx, env)
	}

	return []seeder.Entry{}, nil
}

// LastBatch implements LedgerStore.
func (m *MockLedgerStore) LastBatch(ctx context.Context, env string) ([]seeder.Entry, error) {
	m.mu.Lock()
	m.LastBatchCalls = append(m.LastBatchCalls, env)
	m.mu.Unlock()

	if m.LastBatchFunc != nil {
		return m.LastBatchFunc(ctx, env)
	}
	if m.Fallback != nil {
		return m.Fallback.LastBatch(ctx, env)
	}

	return []seeder.Entry{}, nil
}

// NextBatchNumber implements LedgerStore.
func (m *MockLedgerStore) NextBatchNumber(ctx context.Context, env string) (int, error) {
	m.mu.Lock()
	m.NextBatchNumberCalls = append(m.NextBatchNumberCalls, env)
	m.mu.Unlock()

	if m.NextBatchNumberFunc != nil {
		return m.NextBatchNumberFunc(ctx, env)
	}
	if m.Fallback != nil {
		return m.Fallback.NextBatchNumber(ctx, env)
	}

	return 1, nil
}

// Log implements LedgerStore.
func (m *MockLedgerStore) Log(ctx context.Context, seed, env string, batch int) error {
	m.mu.Lock()
	m.LogCalls = append(m.LogCalls, LogCall{Seed: seed, Env: env, Batch: batch})
	m.mu.Unlock()

	if m.LogFunc != nil {
		return m.LogFunc(ctx, seed, env, batch)
	}
	if m.Fallback != nil {
		return m.Fallback.Log(ctx, seed, env, batch)
	}

	return nil
}

// Delete implements LedgerStore.
func (m *MockLedgerStore) Delete(ctx context.Context, seed, env string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{Seed: seed, Env: env})
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, seed, env)
	}
	if m.Fallback != nil {
		return m.Fallback.Delete(ctx, seed, env)
	}

	return nil
}

// Reset clears all call tracking data.
func (m *MockLedgerStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ExistsCalls = 0
	m.CreateCalls = 0
	m.AppliedCalls = nil
	m.EntriesCalls = nil
	m.LastBatchCalls = nil
	m.NextBatchNumberCalls = nil
	m.LogCalls = nil
	m.DeleteCalls = nil
}

package executor

import (
	"context"
	"sync"

	"github.com/getpup/seeder"
)

// MockRunner is a mock implementation of Runner for testing.
type MockRunner struct {
	mu       sync.Mutex
	RunFunc  func(ctx context.Context, seed string, unit seeder.Unit, direction seeder.Direction, pretend bool) (seeder.Trace, error)
	RunCalls []RunCall
}

// RunCall records the parameters of a single Run call.
type RunCall struct {
	Seed      string
	Unit      seeder.Unit
	Direction seeder.Direction
	Pretend   bool
}

// NewMockRunner creates a new MockRunner with an empty call history.
func NewMockRunner() *MockRunner {
	return &MockRunner{
		RunCalls: make([]RunCall, 0),
	}
}

// Run implements the Runner interface.
// It records the call parameters, then:
// - If RunFunc is set, calls and returns it
// - Otherwise, returns an empty trace for the seed and a nil error
func (m *MockRunner) Run(ctx context.Context, seed string, unit seeder.Unit, direction seeder.Direction, pretend bool) (seeder.Trace, error) {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, RunCall{
		Seed:      seed,
		Unit:      unit,
		Direction: direction,
		Pretend:   pretend,
	})
	m.mu.Unlock()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, seed, unit, direction, pretend)
	}

	return seeder.Trace{Seed: seed, Direction: direction}, nil
}

// Seeds returns the seed of every recorded call in call order.
func (m *MockRunner) Seeds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	seeds := make([]string, len(m.RunCalls))
	for i, call := range m.RunCalls {
		seeds[i] = call.Seed
	}
	return seeds
}

// Reset clears the call history.
func (m *MockRunner) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunCalls = make([]RunCall, 0)
}

package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getpup/seeder"
)

// ErrNoDatabase is returned when a unit is executed without a configured data store.
var ErrNoDatabase = errors.New("executor: no database configured")

// Config configures the unit executor.
type Config struct {
	// DB is the data store units execute against (required unless every run is a pretend run).
	DB seeder.Execer

	// Logger is an optional logger for observability.
	Logger seeder.Logger
}

// Executor invokes seed units against the configured data store.
type Executor struct {
	config Config
}

// Compile-time check that Executor implements Runner.
var _ Runner = (*Executor)(nil)

// New creates a new Executor with the given configuration.
func New(cfg Config) *Executor {
	return &Executor{
		config: cfg,
	}
}

// Run executes the unit's Apply or Reverse action.
//
// In pretend mode nothing reaches the data store: units implementing
// seeder.Describer are asked for their statements, all others are invoked
// against a Recorder. Failures of the unit are wrapped in *seeder.UnitError.
func (e *Executor) Run(ctx context.Context, seed string, unit seeder.Unit, direction seeder.Direction, pretend bool) (seeder.Trace, error) {
	trace := seeder.Trace{Seed: seed, Direction: direction}

	if pretend {
		statements, err := e.describe(ctx, unit, direction)
		if err != nil {
			return trace, &seeder.UnitError{Seed: seed, Direction: direction, Err: err}
		}
		trace.Statements = statements
		return trace, nil
	}

	if e.config.DB == nil {
		return trace, ErrNoDatabase
	}

	start := time.Now()
	if err := invoke(ctx, unit, direction, e.config.DB); err != nil {
		if e.config.Logger != nil {
			e.config.Logger.Error(ctx, "seed unit failed", "seed", seed, "direction", direction, "error", err)
		}
		return trace, &seeder.UnitError{Seed: seed, Direction: direction, Err: err}
	}

	if e.config.Logger != nil {
		e.config.Logger.Debug(ctx, "seed unit executed", "seed", seed, "direction", direction, "duration", time.Since(start))
	}

	return trace, nil
}

func (e *Executor) describe(ctx context.Context, unit seeder.Unit, direction seeder.Direction) ([]string, error) {
	if describer, ok := unit.(seeder.Describer); ok {
		return describer.Describe(direction), nil
	}

	recorder := NewRecorder()
	if err := invoke(ctx, unit, direction, recorder); err != nil {
		return nil, err
	}
	return recorder.Statements(), nil
}

func invoke(ctx context.Context, unit seeder.Unit, direction seeder.Direction, db seeder.Execer) error {
	switch direction {
	case seeder.DirectionUp:
		return unit.Apply(ctx, db)
	case seeder.DirectionDown:
		return unit.Reverse(ctx, db)
	default:
		return fmt.Errorf("unknown direction %q", direction)
	}
}

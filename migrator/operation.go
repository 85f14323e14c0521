package migrator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/metrics"
)

// operation carries the state of one public Migrator call.
type operation struct {
	m         *Migrator
	name      string
	env       string
	runID     string
	pretend   bool
	collector *metrics.Collector
	started   time.Time
}

func (m *Migrator) begin(ctx context.Context, name, env string, opts seeder.Options) (*operation, error) {
	if env == "" {
		return nil, seeder.ErrEnvironmentRequired
	}
	if env == seeder.AllEnvironments {
		return nil, fmt.Errorf("%w: %q is reserved for shared seeds", seeder.ErrEnvironmentRequired, env)
	}

	op := &operation{
		m:       m,
		name:    name,
		env:     env,
		runID:   m.newRunID(),
		pretend: opts.Pretend,
		started: time.Now(),
	}
	if m.metricsEnabled {
		op.collector = metrics.NewCollector(env)
	}

	if m.config.Logger != nil && name != "status" {
		m.config.Logger.Info(ctx, "seeder operation started",
			"operation", name,
			"env", env,
			"run_id", op.runID,
			"pretend", opts.Pretend)
	}
	return op, nil
}

// finish logs the outcome of a mutating operation and returns err unchanged.
func (op *operation) finish(ctx context.Context, err error) error {
	logger := op.m.config.Logger
	if logger == nil {
		return err
	}

	if err != nil {
		logger.Error(ctx, "seeder operation failed",
			"operation", op.name,
			"env", op.env,
			"run_id", op.runID,
			"error", err)
		return err
	}

	logger.Info(ctx, "seeder operation completed",
		"operation", op.name,
		"env", op.env,
		"run_id", op.runID,
		"duration", time.Since(op.started))
	return nil
}

func (op *operation) emit(event seeder.Event) {
	if op.m.config.Listener == nil {
		return
	}
	event.RunID = op.runID
	event.Env = op.env
	op.m.config.Listener(event)
}

// prepare makes sure the ledger exists and reports whether it does.
// Pretend operations never create it and treat a missing ledger as empty.
func (m *Migrator) prepare(ctx context.Context, op *operation) (bool, error) {
	exists, err := m.config.Store.Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check ledger: %w", err)
	}
	if exists {
		return true, nil
	}
	if op.pretend {
		return false, nil
	}
	if !m.autoInstall {
		return false, seeder.ErrLedgerNotInstalled
	}

	if err := m.Install(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// scan returns the catalog for paths and its identifiers sorted ascending.
func (m *Migrator) scan(paths []string) (seeder.Catalog, []string, error) {
	catalog, err := m.config.Source.Scan(paths)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan seed paths: %w", err)
	}
	ids := catalog.IDs()
	sort.Strings(ids)
	return catalog, ids, nil
}

func (m *Migrator) lastBatch(ctx context.Context, op *operation) ([]seeder.Entry, error) {
	installed, err := m.prepare(ctx, op)
	if err != nil || !installed {
		return nil, err
	}

	entries, err := m.config.Store.LastBatch(ctx, op.env)
	if err != nil {
		return nil, fmt.Errorf("failed to read last batch: %w", err)
	}
	return entries, nil
}

// runPending applies the seeds in paths that have no ledger entry. Seeds in
// forget are treated as not applied; refresh uses it to simulate a reset.
func (m *Migrator) runPending(ctx context.Context, op *operation, paths []string, forget []string) ([]string, error) {
	installed, err := m.prepare(ctx, op)
	if err != nil {
		return nil, err
	}

	catalog, candidates, err := m.scan(paths)
	if err != nil {
		return nil, err
	}

	applied := make(map[string]struct{})
	if installed {
		seeds, err := m.config.Store.Applied(ctx, op.env)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
		for _, seed := range seeds {
			applied[seed] = struct{}{}
		}
	}
	for _, seed := range forget {
		delete(applied, seed)
	}

	pending := make([]string, 0, len(candidates))
	for _, seed := range candidates {
		if _, ok := applied[seed]; !ok {
			pending = append(pending, seed)
		}
	}

	if op.collector != nil {
		op.collector.SetPending(len(pending))
	}
	if len(pending) == 0 {
		op.emit(seeder.Event{Kind: seeder.EventNothingToRun})
		return []string{}, nil
	}

	units, err := m.resolveAll(catalog, pending, nil)
	if err != nil {
		return nil, err
	}

	batch := 1
	if installed {
		batch, err = m.config.Store.NextBatchNumber(ctx, op.env)
		if err != nil {
			return nil, fmt.Errorf("failed to get next batch number: %w", err)
		}
	}

	processed := make([]string, 0, len(pending))
	for i, seed := range pending {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		op.emit(seeder.Event{Kind: seeder.EventSeeding, Seed: seed, Batch: batch})
		if err := m.execute(ctx, op, seed, units[i], seeder.DirectionUp, batch); err != nil {
			return processed, err
		}
		processed = append(processed, seed)

		if op.collector != nil && !op.pretend {
			op.collector.SetPending(len(pending) - len(processed))
		}
	}

	if op.collector != nil && !op.pretend {
		op.collector.IncBatches("run")
	}
	return processed, nil
}

// resetAll reverses every applied seed, treating them as one batch.
func (m *Migrator) resetAll(ctx context.Context, op *operation, paths []string) ([]string, error) {
	installed, err := m.prepare(ctx, op)
	if err != nil {
		return nil, err
	}

	seeds := []string{}
	if installed {
		seeds, err = m.config.Store.Applied(ctx, op.env)
		if err != nil {
			return nil, fmt.Errorf("failed to read ledger: %w", err)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(seeds)))

	return m.reverse(ctx, op, paths, seeds)
}

// reverse runs the down action of seeds in the given order and deletes their
// ledger entries. Every seed must resolve before any is reversed, so a missing
// definition leaves the ledger unchanged.
func (m *Migrator) reverse(ctx context.Context, op *operation, paths []string, seeds []string) ([]string, error) {
	if len(seeds) == 0 {
		op.emit(seeder.Event{Kind: seeder.EventNothingToRollback})
		return []string{}, nil
	}

	catalog, candidates, err := m.scan(paths)
	if err != nil {
		return nil, err
	}
	discovered := make(map[string]struct{}, len(candidates))
	for _, seed := range candidates {
		discovered[seed] = struct{}{}
	}

	units, err := m.resolveAll(catalog, seeds, discovered)
	if err != nil {
		return nil, err
	}

	processed := make([]string, 0, len(seeds))
	for i, seed := range seeds {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		op.emit(seeder.Event{Kind: seeder.EventRollingBack, Seed: seed})
		if err := m.execute(ctx, op, seed, units[i], seeder.DirectionDown, 0); err != nil {
			return processed, err
		}
		processed = append(processed, seed)
	}

	if op.collector != nil && !op.pretend {
		op.collector.IncBatches(op.name)
	}
	return processed, nil
}

// resolveAll resolves every seed up front. When discovered is non-nil, a seed
// missing from it, or one that cannot be resolved, is a missing definition.
func (m *Migrator) resolveAll(catalog seeder.Catalog, seeds []string, discovered map[string]struct{}) ([]seeder.Unit, error) {
	units := make([]seeder.Unit, len(seeds))
	for i, seed := range seeds {
		if discovered != nil {
			if _, ok := discovered[seed]; !ok {
				return nil, seeder.MissingDefinitionError(seed)
			}
		}

		unit, err := catalog.Resolve(seed)
		if err != nil {
			if discovered != nil {
				return nil, fmt.Errorf("%w: %w", seeder.MissingDefinitionError(seed), err)
			}
			return nil, fmt.Errorf("failed to resolve seed %s: %w", seed, err)
		}
		units[i] = unit
	}
	return units, nil
}

// execute runs one unit and records the outcome in the ledger.
func (m *Migrator) execute(ctx context.Context, op *operation, seed string, unit seeder.Unit, direction seeder.Direction, batch int) error {
	start := time.Now()
	trace, err := m.runner.Run(ctx, seed, unit, direction, op.pretend)
	if err != nil {
		if op.collector != nil {
			op.collector.IncFailures(direction)
		}
		op.emit(seeder.Event{Kind: seeder.EventFailed, Seed: seed, Batch: batch, Err: err})
		return err
	}

	if op.pretend {
		op.emit(seeder.Event{Kind: seeder.EventPretend, Seed: seed, Batch: batch, Trace: &trace})
		return nil
	}

	if direction == seeder.DirectionUp {
		if err := m.config.Store.Log(ctx, seed, op.env, batch); err != nil {
			err = fmt.Errorf("failed to log seed %s: %w", seed, err)
			op.emit(seeder.Event{Kind: seeder.EventFailed, Seed: seed, Batch: batch, Err: err})
			return err
		}
	} else {
		if err := m.config.Store.Delete(ctx, seed, op.env); err != nil {
			err = fmt.Errorf("failed to delete seed %s: %w", seed, err)
			op.emit(seeder.Event{Kind: seeder.EventFailed, Seed: seed, Err: err})
			return err
		}
	}

	if op.collector != nil {
		op.collector.ObserveUnitDuration(direction, time.Since(start).Seconds())
		if direction == seeder.DirectionUp {
			op.collector.IncApplied()
		} else {
			op.collector.IncReversed()
		}
	}

	if direction == seeder.DirectionUp {
		op.emit(seeder.Event{Kind: seeder.EventSeeded, Seed: seed, Batch: batch})
	} else {
		op.emit(seeder.Event{Kind: seeder.EventRolledBack, Seed: seed})
	}
	return nil
}

package seeder

import (
	"errors"
	"fmt"
)

var (
	// ErrUnitNotFound indicates no executable unit is registered or on disk for a seed identifier.
	ErrUnitNotFound = errors.New("seed unit not found")

	// ErrMissingDefinition indicates a ledger entry references a seed that discovery cannot find.
	// Rollback and reset refuse to proceed in that case and leave the ledger unchanged.
	ErrMissingDefinition = errors.New("missing definition")

	// ErrLedgerNotInstalled indicates the ledger table does not exist.
	ErrLedgerNotInstalled = errors.New("seed ledger not installed")

	// ErrEnvironmentRequired indicates an operation was invoked without an environment.
	ErrEnvironmentRequired = errors.New("environment is required")

	// ErrDuplicateSeed indicates two seed units share an identifier.
	ErrDuplicateSeed = errors.New("duplicate seed identifier")

	// ErrEntryExists indicates the ledger already holds an entry for (seed, env).
	ErrEntryExists = errors.New("ledger entry already exists")

	// ErrLockTimeout indicates the advisory lock could not be acquired in time.
	ErrLockTimeout = errors.New("timed out acquiring seeder lock")

	// ErrUnitFailed indicates a unit's apply or reverse action returned an error.
	ErrUnitFailed = errors.New("seed unit execution failed")
)

// UnitError wraps a failure raised by a unit's Apply or Reverse action.
type UnitError struct {
	Seed      string
	Direction Direction
	Err       error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("seed %s (%s) failed: %v", e.Seed, e.Direction, e.Err)
}

// Unwrap exposes the cause.
func (e *UnitError) Unwrap() error {
	return e.Err
}

// Is reports ErrUnitFailed so callers can match any unit failure.
func (e *UnitError) Is(target error) bool {
	return target == ErrUnitFailed
}

// MissingDefinitionError returns an error naming the seed that cannot be resolved.
func MissingDefinitionError(seed string) error {
	return fmt.Errorf("%w for %s", ErrMissingDefinition, seed)
}

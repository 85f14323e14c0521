package executor

import (
	"context"

	"github.com/getpup/seeder"
)

// Runner executes one half of a seed unit.
// This interface allows for mock implementations in tests.
type Runner interface {
	Run(ctx context.Context, seed string, unit seeder.Unit, direction seeder.Direction, pretend bool) (seeder.Trace, error)
}

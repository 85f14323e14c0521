package seeder

// AllEnvironments is the pseudo-environment whose seed directory is scanned
// in addition to the target environment's directory. Ledger entries are never
// tagged with it.
const AllEnvironments = "all"

// Direction identifies which half of a seed unit is executed.
type Direction string

const (
	// DirectionUp applies a seed unit.
	DirectionUp Direction = "up"

	// DirectionDown reverses a seed unit.
	DirectionDown Direction = "down"
)

// Entry is one row of the seed ledger. Its presence means the seed has been
// applied in Env and has not since been reversed.
type Entry struct {
	// Seed is the seed identifier, derived from the unit's file name.
	Seed string

	// Env is the concrete environment the seed was applied in.
	Env string

	// Batch is the run invocation the seed was applied in (1-based).
	Batch int
}

// Status reports whether a discovered seed has been applied.
type Status struct {
	// Seed is the seed identifier.
	Seed string `json:"seed" yaml:"seed"`

	// Applied is true when a ledger entry exists for the seed.
	Applied bool `json:"applied" yaml:"applied"`

	// Batch is the batch the seed was applied in, or 0 when not applied.
	Batch int `json:"batch,omitempty" yaml:"batch,omitempty"`
}

// Options controls a single migrator operation.
type Options struct {
	// Pretend reports the statements each unit would execute without
	// touching the data store or the ledger.
	Pretend bool
}

// Trace is the description of what a unit would execute in pretend mode.
type Trace struct {
	Seed       string
	Direction  Direction
	Statements []string
}

// EventKind classifies a progress notification emitted by the migrator.
type EventKind string

const (
	EventSeeding           EventKind = "seeding"
	EventSeeded            EventKind = "seeded"
	EventRollingBack       EventKind = "rolling_back"
	EventRolledBack        EventKind = "rolled_back"
	EventPretend           EventKind = "pretend"
	EventNothingToRun      EventKind = "nothing_to_run"
	EventNothingToRollback EventKind = "nothing_to_rollback"
	EventFailed            EventKind = "failed"
)

// Event is a progress notification. Seed is empty for operation-level events.
type Event struct {
	Kind  EventKind
	RunID string
	Env   string
	Seed  string
	Batch int

	// Trace is set for EventPretend.
	Trace *Trace

	// Err is set for EventFailed.
	Err error
}

// Listener receives progress notifications synchronously.
type Listener func(Event)

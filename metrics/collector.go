package metrics

import "github.com/getpup/seeder"

// Collector wraps metrics and provides helper methods with pre-filled labels.
type Collector struct {
	environment string
}

// NewCollector creates a new Collector for the given environment.
func NewCollector(environment string) *Collector {
	return &Collector{environment: environment}
}

// IncApplied increments the applied units counter.
func (c *Collector) IncApplied() {
	UnitsAppliedTotal.WithLabelValues(c.environment).Inc()
}

// IncReversed increments the reversed units counter.
func (c *Collector) IncReversed() {
	UnitsReversedTotal.WithLabelValues(c.environment).Inc()
}

// IncFailures increments the unit failures counter for a direction.
func (c *Collector) IncFailures(direction seeder.Direction) {
	UnitFailuresTotal.WithLabelValues(c.environment, string(direction)).Inc()
}

// IncBatches increments the batches counter for an operation (run, rollback, reset).
func (c *Collector) IncBatches(operation string) {
	BatchesTotal.WithLabelValues(c.environment, operation).Inc()
}

// SetPending sets the pending units gauge.
func (c *Collector) SetPending(count int) {
	PendingUnits.WithLabelValues(c.environment).Set(float64(count))
}

// ObserveUnitDuration records a unit execution duration observation.
func (c *Collector) ObserveUnitDuration(direction seeder.Direction, seconds float64) {
	UnitDuration.WithLabelValues(c.environment, string(direction)).Observe(seconds)
}

// ObserveLockWait records a lock acquisition duration observation.
func (c *Collector) ObserveLockWait(seconds float64) {
	LockWaitDuration.WithLabelValues(c.environment).Observe(seconds)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// UnitsAppliedTotal tracks the total number of seed units applied.
var UnitsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seeder_units_applied_total",
		Help: "Total seed units applied",
	},
	[]string{"environment"},
)

// UnitsReversedTotal tracks the total number of seed units reversed.
var UnitsReversedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seeder_units_reversed_total",
		Help: "Total seed units reversed",
	},
	[]string{"environment"},
)

// UnitFailuresTotal tracks the total number of failed unit executions.
var UnitFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seeder_unit_failures_total",
		Help: "Total seed unit failures",
	},
	[]string{"environment", "direction"},
)

// BatchesTotal tracks the total number of completed operations that changed the ledger.
var BatchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "seeder_batches_total",
		Help: "Total batches applied or reversed",
	},
	[]string{"environment", "operation"},
)

// PendingUnits tracks the number of discovered units not yet applied.
var PendingUnits = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "seeder_pending_units",
		Help: "Seed units discovered but not applied",
	},
	[]string{"environment"},
)

// UnitDuration tracks the execution time of a single unit.
var UnitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "seeder_unit_duration_seconds",
		Help:    "Seed unit execution time",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"environment", "direction"},
)

// LockWaitDuration tracks time spent waiting for the seeder lock.
var LockWaitDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "seeder_lock_wait_duration_seconds",
		Help:    "Time spent acquiring the seeder lock",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"environment"},
)

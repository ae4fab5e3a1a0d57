package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RowsInsertedTotal tracks rows written by the populator, per base table.
var RowsInsertedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecomdb_rows_inserted_total",
		Help: "Total rows inserted by the data populator",
	},
	[]string{"database", "table"},
)

// RecordsSkippedTotal tracks generated records dropped before insertion.
var RecordsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecomdb_records_skipped_total",
		Help: "Total generated records skipped by the data populator",
	},
	[]string{"database", "reason"},
)

// StepFailuresTotal tracks pipeline steps that returned an error.
var StepFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecomdb_step_failures_total",
		Help: "Total pipeline step failures",
	},
	[]string{"database", "step"},
)

// StepDuration tracks how long each pipeline step took.
var StepDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ecomdb_step_duration_seconds",
		Help:    "Duration of pipeline steps",
		Buckets: prometheus.ExponentialBuckets(0.005, 4, 8),
	},
	[]string{"database", "step"},
)

// PartitionRows tracks the row count of each derived table at verification time.
var PartitionRows = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "ecomdb_partition_rows",
		Help: "Rows held by each partition or replica table",
	},
	[]string{"database", "table"},
)

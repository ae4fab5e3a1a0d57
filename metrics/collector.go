package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector wraps metrics and provides helper methods with pre-filled labels.
// A nil *Collector is valid and records nothing.
type Collector struct {
	database string
}

// NewCollector creates a new Collector for the given target database.
func NewCollector(database string) *Collector {
	return &Collector{database: database}
}

// AddRowsInserted adds n to the inserted rows counter of table.
func (c *Collector) AddRowsInserted(table string, n int) {
	if c == nil {
		return
	}
	RowsInsertedTotal.WithLabelValues(c.database, table).Add(float64(n))
}

// IncRecordsSkipped increments the skipped records counter.
func (c *Collector) IncRecordsSkipped(reason string) {
	if c == nil {
		return
	}
	RecordsSkippedTotal.WithLabelValues(c.database, reason).Inc()
}

// IncStepFailures increments the failure counter of a pipeline step.
func (c *Collector) IncStepFailures(step string) {
	if c == nil {
		return
	}
	StepFailuresTotal.WithLabelValues(c.database, step).Inc()
}

// ObserveStepDuration records a step duration observation.
func (c *Collector) ObserveStepDuration(step string, seconds float64) {
	if c == nil {
		return
	}
	StepDuration.WithLabelValues(c.database, step).Observe(seconds)
}

// SetPartitionRows sets the row gauge of a derived table.
func (c *Collector) SetPartitionRows(table string, rows int64) {
	if c == nil {
		return
	}
	PartitionRows.WithLabelValues(c.database, table).Set(float64(rows))
}

// WriteTextfile dumps every registered metric to path in the text format
// read by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("metrics: writing %s: %w", path, err)
	}
	return nil
}

// Package metrics defines the minimal backend interface the ingestion
// pipeline emits into. The pipeline depends only on Backend; concrete
// implementations (Datadog, noop) live in subpackages or here.
package metrics

// Labels are free-form metric dimensions ("status", "format", "type", ...).
type Labels map[string]string

// Backend receives pipeline metrics. Implementations must be safe for
// concurrent use.
type Backend interface {
	// IncCounter adds delta to a named counter.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution.
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits any buffered metrics now.
	Flush() error

	// Close stops background work and performs a final Flush.
	Close() error
}

// Metric names emitted by the pipeline.
const (
	// IngestRunsTotal counts completed ingestions, labeled status=ok|error
	// and format=delimited|html|xlsx.
	IngestRunsTotal = "ingest_runs_total"

	// IngestRowsTotal counts data rows in successful ingestions.
	IngestRowsTotal = "ingest_rows_total"

	// IngestAttemptsTotal counts (encoding, delimiter) attempts spent per
	// run, successful or not.
	IngestAttemptsTotal = "ingest_attempts_total"

	// InferConversionsTotal counts committed column conversions, labeled
	// type=datetime|integer|float.
	InferConversionsTotal = "infer_conversions_total"

	// IngestDurationSeconds samples wall time of whole runs, labeled status.
	IngestDurationSeconds = "ingest_duration_seconds"
)

// Noop discards all metrics. The zero value is ready to use.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels)       {}
func (Noop) ObserveHistogram(string, float64, Labels) {}
func (Noop) Flush() error                             { return nil }
func (Noop) Close() error                             { return nil }

var _ Backend = Noop{}

package pipeline

import (
	"sync"
	"testing"

	"tabload/internal/ingest"
	"tabload/internal/metrics"
	"tabload/internal/table"
)

// recordingBackend buffers everything the pipeline emits.
type recordingBackend struct {
	mu       sync.Mutex
	counters map[string]float64
	labels   map[string]metrics.Labels
	samples  map[string][]float64
}

func newRecordingBackend() *recordingBackend {
	return &recordingBackend{
		counters: make(map[string]float64),
		labels:   make(map[string]metrics.Labels),
		samples:  make(map[string][]float64),
	}
}

func (r *recordingBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += delta
	r.labels[name] = labels
}

func (r *recordingBackend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples[name] = append(r.samples[name], value)
	r.labels[name] = labels
}

func (r *recordingBackend) Flush() error { return nil }
func (r *recordingBackend) Close() error { return nil }

// TestRunFullPath verifies one upload flows through ingest, inference and
// role mapping, with the run metrics emitted.
func TestRunFullPath(t *testing.T) {
	t.Parallel()

	content := []byte(
		"Trade Date,Open,High,Low,Close,Volume\n" +
			"2024-01-02,100.5,103.75,99.25,101.25,1000\n" +
			"2024-01-03,101.25,102.5,98.5,99.5,2000\n")

	be := newRecordingBackend()
	res, err := New(be).Run(content)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Format != ingest.FormatDelimited {
		t.Fatalf("Format = %v", res.Format)
	}
	wantKinds := []table.Kind{table.DateTime, table.Float, table.Float, table.Float, table.Float, table.Integer}
	for i, k := range wantKinds {
		if res.Typed.Columns[i].Kind != k {
			t.Fatalf("column %d Kind = %v, want %v", i, res.Typed.Columns[i].Kind, k)
		}
	}
	if !res.Roles.Complete() {
		t.Fatalf("Roles incomplete: %v", res.Roles)
	}
	if !res.ChartCapable {
		t.Fatalf("ChartCapable = false for an OHLC table")
	}
	if len(res.Notes) != 6 {
		t.Fatalf("Notes = %v, want one per converted column", res.Notes)
	}

	if be.counters[metrics.IngestRunsTotal] != 1 {
		t.Fatalf("runs counter = %v", be.counters[metrics.IngestRunsTotal])
	}
	if got := be.labels[metrics.IngestRunsTotal]["status"]; got != "ok" {
		t.Fatalf("runs status = %q", got)
	}
	if be.counters[metrics.IngestRowsTotal] != 2 {
		t.Fatalf("rows counter = %v", be.counters[metrics.IngestRowsTotal])
	}
	if be.counters[metrics.IngestAttemptsTotal] != 1 {
		t.Fatalf("attempts counter = %v", be.counters[metrics.IngestAttemptsTotal])
	}
	if be.counters[metrics.InferConversionsTotal] != 6 {
		t.Fatalf("conversions counter = %v", be.counters[metrics.InferConversionsTotal])
	}
	if len(be.samples[metrics.IngestDurationSeconds]) != 1 {
		t.Fatalf("duration samples = %v", be.samples[metrics.IngestDurationSeconds])
	}
}

// TestRunFailure verifies a failed parse surfaces the error and reports an
// error-status run with its attempt count.
func TestRunFailure(t *testing.T) {
	t.Parallel()

	be := newRecordingBackend()
	_, err := New(be).Run([]byte("   \n"))
	if err == nil {
		t.Fatalf("Run succeeded on blank input")
	}

	if be.counters[metrics.IngestRunsTotal] != 1 {
		t.Fatalf("runs counter = %v", be.counters[metrics.IngestRunsTotal])
	}
	if got := be.labels[metrics.IngestRunsTotal]["status"]; got != "error" {
		t.Fatalf("runs status = %q", got)
	}
	if be.counters[metrics.IngestAttemptsTotal] == 0 {
		t.Fatalf("attempts counter not reported on failure")
	}
	if be.counters[metrics.IngestRowsTotal] != 0 {
		t.Fatalf("rows counter = %v on failure", be.counters[metrics.IngestRowsTotal])
	}
}

// TestRunNilBackend verifies a nil backend falls back to noop instead of
// panicking.
func TestRunNilBackend(t *testing.T) {
	t.Parallel()

	res, err := New(nil).Run([]byte("a,b\n1,2\n"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Raw.NumRows() != 1 {
		t.Fatalf("NumRows = %d", res.Raw.NumRows())
	}
}

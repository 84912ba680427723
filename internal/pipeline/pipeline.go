// Package pipeline runs the full load path for one upload: ingest the bytes,
// infer column types, map chart roles, and report metrics. It is the one
// place that sequences the stages; each stage stays independently usable.
package pipeline

import (
	"errors"
	"time"

	"tabload/internal/infer"
	"tabload/internal/ingest"
	"tabload/internal/metrics"
	"tabload/internal/schema"
	"tabload/internal/table"
)

// Result is everything a caller can want from one run.
type Result struct {
	Raw          *table.Raw
	Typed        *table.Typed
	Notes        []table.ConversionNote
	Roles        schema.RoleMap
	Format       ingest.Format
	ChartCapable bool
}

// Runner ties the stages to a metrics backend. The zero value is not usable;
// use New.
type Runner struct {
	backend metrics.Backend
}

// New returns a Runner reporting into backend. A nil backend falls back to
// the noop implementation.
func New(backend metrics.Backend) *Runner {
	if backend == nil {
		backend = metrics.Noop{}
	}
	return &Runner{backend: backend}
}

// Run processes one upload with the format sniffed from its bytes.
func (r *Runner) Run(content []byte) (*Result, error) {
	return r.RunAs(content, ingest.SniffFormat(content))
}

// RunAs processes one upload under an explicit format.
func (r *Runner) RunAs(content []byte, f ingest.Format) (*Result, error) {
	start := time.Now()

	res, err := ingest.ReadDetailed(content, f)
	if err != nil {
		r.finish(start, "error", f, err)
		return nil, err
	}

	typed, notes := infer.Infer(res.Raw)
	roles := schema.MapRoles(typed.Headers)

	r.backend.IncCounter(metrics.IngestAttemptsTotal, float64(res.Attempts), nil)
	r.backend.IncCounter(metrics.IngestRowsTotal, float64(res.Raw.NumRows()), nil)
	for _, n := range notes {
		r.backend.IncCounter(metrics.InferConversionsTotal, 1, metrics.Labels{"type": n.Target.String()})
	}
	r.finish(start, "ok", res.Format, nil)

	return &Result{
		Raw:          res.Raw,
		Typed:        typed,
		Notes:        notes,
		Roles:        roles,
		Format:       res.Format,
		ChartCapable: schema.ChartCapable(typed, roles),
	}, nil
}

func (r *Runner) finish(start time.Time, status string, f ingest.Format, err error) {
	var pe *ingest.ParseError
	if errors.As(err, &pe) {
		r.backend.IncCounter(metrics.IngestAttemptsTotal, float64(pe.Attempts), nil)
	}
	r.backend.IncCounter(metrics.IngestRunsTotal, 1, metrics.Labels{
		"status": status,
		"format": f.String(),
	})
	r.backend.ObserveHistogram(metrics.IngestDurationSeconds, time.Since(start).Seconds(), metrics.Labels{
		"status": status,
	})
}

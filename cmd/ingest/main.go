// Command ingest loads a delimited, HTML, or XLSX file into a typed table
// and reports what it found.
//
// The input runs through the full pipeline: encoding/delimiter fallback,
// per-column type inference, and chart-role mapping. By default a text
// summary goes to stdout, one line per column:
//
//	header  role  type
//
// followed by the conversion notes and whether the table can drive an OHLC
// chart.
//
// Outputs (all optional, combinable):
//
//   - -csv-out <path>    write the typed table as CSV (re-ingestable)
//   - -arrow-out <path>  write the typed table as an Arrow IPC stream
//   - -backend/-table    load the typed table into a SQL backend
//
// # DSN resolution
//
// The storage DSN comes from, in strict precedence order:
//  1. -dsn flag
//  2. DSN env var
//
// # Metrics
//
// With -dd-metrics the run reports counters and durations to Datadog using
// the standard DD_API_KEY/DD_APP_KEY environment. Without it, metrics are
// discarded.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"tabload/internal/export"
	"tabload/internal/ingest"
	"tabload/internal/metrics"
	"tabload/internal/metrics/datadog"
	"tabload/internal/pipeline"
	"tabload/internal/schema"
	"tabload/internal/storage"

	_ "tabload/internal/storage/mssql"
	_ "tabload/internal/storage/postgres"
	_ "tabload/internal/storage/sqlite"
)

func main() {
	var (
		flagFile = flag.String("file", "", "Path of the input file")

		// Format detection is heuristic (zip magic, leading '<'); the flag
		// forces a reader when the heuristic guesses wrong.
		flagFormat = flag.String("format", "auto", "Input format: auto|delimited|html|xlsx")

		flagCSVOut   = flag.String("csv-out", "", "Write typed table as CSV to this path")
		flagArrowOut = flag.String("arrow-out", "", "Write typed table as an Arrow IPC stream to this path")

		flagBackend = flag.String("backend", "", "Storage backend: postgres|mssql|sqlite (empty: no load)")
		flagDSN     = flag.String("dsn", "", "Storage DSN (falls back to DSN env var)")
		flagTable   = flag.String("table", "", "Destination table name; defaults to the input file stem")

		flagNotes = flag.Bool("notes", true, "Print conversion notes in the summary")

		flagDDMetrics = flag.Bool("dd-metrics", false, "Report run metrics to Datadog")
		flagJob       = flag.String("job", "", "Job name tag for metrics; defaults to the input file stem")
	)
	flag.Parse()

	if *flagFile == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		flag.Usage()
		os.Exit(2)
	}

	content, err := os.ReadFile(*flagFile)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	ctx := context.Background()
	stem := fileStem(*flagFile)

	backend := newMetricsBackend(ctx, *flagDDMetrics, *flagJob, stem)
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("metrics close: %v", err)
		}
	}()

	format, err := parseFormat(*flagFormat, content)
	if err != nil {
		log.Fatalf("%v", err)
	}

	res, err := pipeline.New(backend).RunAs(content, format)
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}

	printSummary(res, *flagNotes)

	if *flagCSVOut != "" {
		if err := writeCSV(*flagCSVOut, res); err != nil {
			log.Fatalf("csv export: %v", err)
		}
	}
	if *flagArrowOut != "" {
		if err := writeArrow(*flagArrowOut, res); err != nil {
			log.Fatalf("arrow export: %v", err)
		}
	}

	if *flagBackend != "" {
		tbl := *flagTable
		if tbl == "" {
			tbl = stem
		}
		if err := loadToBackend(ctx, *flagBackend, resolveDSN(*flagDSN), tbl, res); err != nil {
			log.Fatalf("load: %v", err)
		}
	}
}

// resolveDSN applies the flag-then-env precedence.
func resolveDSN(flagDSN string) string {
	if flagDSN != "" {
		return flagDSN
	}
	return strings.TrimSpace(os.Getenv("DSN"))
}

func parseFormat(s string, content []byte) (ingest.Format, error) {
	switch s {
	case "auto":
		return ingest.SniffFormat(content), nil
	case "delimited", "csv":
		return ingest.FormatDelimited, nil
	case "html":
		return ingest.FormatHTML, nil
	case "xlsx":
		return ingest.FormatXLSX, nil
	default:
		return 0, fmt.Errorf("unknown -format %q", s)
	}
}

func newMetricsBackend(ctx context.Context, dd bool, job, stem string) metrics.Backend {
	if !dd {
		return metrics.Noop{}
	}
	if job == "" {
		job = stem
	}
	b, err := datadog.NewBackend(ctx, datadog.Options{
		JobName:    job,
		FlushEvery: 10 * time.Second,
	})
	if err != nil {
		log.Printf("datadog metrics disabled: %v", err)
		return metrics.Noop{}
	}
	return b
}

func printSummary(res *pipeline.Result, withNotes bool) {
	roleByCol := make(map[int]schema.Role, len(res.Roles))
	for r, i := range res.Roles {
		roleByCol[i] = r
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "header\trole\ttype")
	for i, col := range res.Typed.Columns {
		role := "-"
		if r, ok := roleByCol[i]; ok {
			role = string(r)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", res.Typed.Headers[i], role, col.Kind)
	}
	_ = w.Flush()

	fmt.Printf("format: %s, rows: %d\n", res.Format, res.Raw.NumRows())
	if withNotes {
		for _, n := range res.Notes {
			fmt.Printf("note: %s\n", n)
		}
	}
	fmt.Printf("chart_capable: %v\n", res.ChartCapable)
}

func writeCSV(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, res.Typed); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func writeArrow(path string, res *pipeline.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteArrowIPC(f, res.Typed); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func loadToBackend(ctx context.Context, kind, dsn, tbl string, res *pipeline.Result) error {
	sink, err := storage.New(ctx, storage.Config{Kind: kind, DSN: dsn})
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := sink.EnsureTable(ctx, tbl, res.Typed); err != nil {
		return err
	}
	n, err := sink.Load(ctx, tbl, res.Typed)
	if err != nil {
		return err
	}
	fmt.Printf("loaded %d rows into %s (%s)\n", n, tbl, kind)
	return nil
}

// fileStem returns the file name without directory or extension.
func fileStem(p string) string {
	base := p
	if i := strings.LastIndexAny(base, "/\\"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "" {
		return "upload"
	}
	return base
}

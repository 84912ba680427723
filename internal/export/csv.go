// Package export serializes a typed table for download: CSV for portability
// and Arrow IPC for a typed columnar form.
//
// The CSV form is written so that re-ingesting it reproduces the same column
// kinds: datetimes render in the canonical layout the inference pass also
// accepts, numbers render without thousands separators, and missing cells
// render as empty strings.
package export

import (
	"encoding/csv"
	"io"

	"tabload/internal/table"
)

// WriteCSV writes typed to w as RFC 4180 CSV with a header row. Cell
// rendering delegates to Column.Text, which keeps the output re-ingestable.
func WriteCSV(w io.Writer, typed *table.Typed) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(typed.Headers); err != nil {
		return err
	}

	nrows := 0
	if len(typed.Columns) > 0 {
		nrows = typed.Columns[0].Len()
	}

	row := make([]string, len(typed.Columns))
	for i := 0; i < nrows; i++ {
		for j := range typed.Columns {
			row[j] = typed.Columns[j].Text(i)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

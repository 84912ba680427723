// Package xlsxtable converts the first worksheet of an XLSX workbook into a
// table.Raw, so spreadsheet uploads flow through the same inference pipeline
// as delimited text.
package xlsxtable

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"tabload/internal/table"
)

// ErrNoSheet is returned when the workbook has no sheets or the first sheet
// yields no header row.
var ErrNoSheet = errors.New("workbook has no usable sheet")

// Extract opens content as an XLSX workbook and returns the first worksheet
// as a table.Raw. The first row is the header. excelize omits trailing blank
// cells, so short rows are padded back to the header width with empty cells;
// rows wider than the header are dropped rather than reshaped.
func Extract(content []byte) (*table.Raw, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNoSheet
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	out := make([][]string, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) > len(headers) {
			continue
		}
		row := make([]string, len(headers))
		for i, v := range rec {
			row[i] = strings.TrimSpace(v)
		}
		out = append(out, row)
	}

	return &table.Raw{Headers: headers, Rows: out}, nil
}

// Package htmltable converts the first <table> element of an HTML document
// into a table.Raw, so tabular HTML uploads flow through the same inference
// pipeline as delimited text.
//
// Extraction is resilient by design: rows whose cell count does not match the
// header are dropped rather than reshaped, and missing cells simply become
// empty strings downstream.
package htmltable

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tabload/internal/table"
)

// ErrNoTable is returned when the document contains no <table> element or the
// table yields no header cells.
var ErrNoTable = errors.New("no table element found")

// Extract parses html and returns the first table as a table.Raw. The header
// row is the table's first row (preferring <th> cells when present); every
// following row must match the header width to be kept.
func Extract(html string) (*table.Raw, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, ErrNoTable
	}

	trs := tbl.Find("tr")
	if trs.Length() == 0 {
		return nil, ErrNoTable
	}

	headers := rowCells(trs.First())
	if len(headers) == 0 {
		return nil, ErrNoTable
	}

	rows := make([][]string, 0, trs.Length()-1)
	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := rowCells(tr)
		if len(cells) != len(headers) {
			return
		}
		rows = append(rows, cells)
	})

	return &table.Raw{Headers: headers, Rows: rows}, nil
}

// rowCells returns the trimmed text of each cell in a table row, in DOM
// order. Header cells and data cells are treated alike.
func rowCells(tr *goquery.Selection) []string {
	var out []string
	tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		out = append(out, strings.TrimSpace(cell.Text()))
	})
	return out
}

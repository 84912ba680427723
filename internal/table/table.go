// Package table defines the in-memory tabular representations shared by the
// ingestion pipeline:
//
//   - Raw: headers plus rectangular rows of string cells, produced by parsing
//   - Typed: the same shape with each column committed to exactly one of
//     {string, datetime, integer, float} plus a per-cell missing marker
//   - ConversionNote: a user-facing record of a column retype
//
// A Raw table is produced once per upload and treated as immutable; Typed is
// derived from it by a pure transformation. Column typing never changes the
// row count or row order.
package table

import (
	"strconv"
	"time"
)

// Kind identifies the committed type of a column.
type Kind int

const (
	String Kind = iota
	DateTime
	Integer
	Float
)

func (k Kind) String() string {
	switch k {
	case DateTime:
		return "datetime"
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// TimeLayout is the canonical textual form for datetime cells in delimited
// exports. It is deliberately one of the layouts the permissive datetime
// parser accepts, so a text export re-ingests with the same column types.
const TimeLayout = "2006-01-02 15:04:05"

// Raw is a parsed but untyped table. Headers are not necessarily unique or
// non-empty. Every row has exactly len(Headers) cells; rows that could not be
// aligned to the header are dropped during parsing, never padded or truncated
// into a different shape.
type Raw struct {
	Headers []string
	Rows    [][]string
}

// NumCols returns the number of columns.
func (r *Raw) NumCols() int { return len(r.Headers) }

// NumRows returns the number of data rows.
func (r *Raw) NumRows() int { return len(r.Rows) }

// Column returns the cells of column i in row order.
func (r *Raw) Column(i int) []string {
	out := make([]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		out = append(out, row[i])
	}
	return out
}

// Column is a typed column. Exactly one of the value slices is populated,
// selected by Kind; Missing is always populated and marks cells that were
// empty or failed to parse under the committed type. A missing cell is
// distinct from a zero value.
type Column struct {
	Name    string
	Kind    Kind
	Strings []string
	Times   []time.Time
	Ints    []int64
	Floats  []float64
	Missing []bool
}

// NewStringColumn builds an untyped column from raw cells. Empty cells are
// marked missing.
func NewStringColumn(name string, cells []string) Column {
	c := Column{
		Name:    name,
		Kind:    String,
		Strings: make([]string, len(cells)),
		Missing: make([]bool, len(cells)),
	}
	for i, v := range cells {
		if v == "" {
			c.Missing[i] = true
			continue
		}
		c.Strings[i] = v
	}
	return c
}

// Len returns the number of cells in the column.
func (c *Column) Len() int { return len(c.Missing) }

// NonMissing returns the number of cells with a value.
func (c *Column) NonMissing() int {
	n := 0
	for _, m := range c.Missing {
		if !m {
			n++
		}
	}
	return n
}

// Text renders cell i in its canonical textual form. Missing cells render as
// the empty string.
func (c *Column) Text(i int) string {
	if c.Missing[i] {
		return ""
	}
	switch c.Kind {
	case DateTime:
		return c.Times[i].Format(TimeLayout)
	case Integer:
		return strconv.FormatInt(c.Ints[i], 10)
	case Float:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	default:
		return c.Strings[i]
	}
}

// Typed is a table whose columns have each been committed to a single Kind.
// Headers and row count match the Raw table it was derived from.
type Typed struct {
	Headers []string
	Columns []Column
}

// NumCols returns the number of columns.
func (t *Typed) NumCols() int { return len(t.Columns) }

// NumRows returns the number of data rows.
func (t *Typed) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// ConversionNote records that a column was retyped. Notes are informational:
// they are surfaced to the user, never used for control flow.
type ConversionNote struct {
	Column string
	Target Kind
}

func (n ConversionNote) String() string {
	return n.Column + " -> " + n.Target.String()
}

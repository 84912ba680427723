// Package infer classifies and converts the columns of a raw string table
// into {datetime, integer, float, string}, independently per column.
//
// Inference runs two passes. The date pass runs first so numeric coercion
// cannot consume date-like strings ("20240101" style values stay out of scope
// because the shape gate requires separators). The numeric pass then only
// sees columns still typed as string.
//
// Inference never fails: a column that misses a threshold is simply left as
// string. The absence of a conversion is policy, not an error.
package infer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"tabload/internal/table"
)

// Thresholds are fixed policy, not configurable per call.
const (
	// dateSampleSize caps how many non-missing cells the date-shape gate
	// inspects before deciding whether a full-column parse is worth it.
	dateSampleSize = 500

	// dateShapeThreshold is the fraction of sampled cells that must look
	// date-shaped before the full-column parse is attempted (strictly
	// exceeded, not met).
	dateShapeThreshold = 0.5

	// convertThreshold is the fraction of non-missing cells that must parse
	// under a candidate type before the column commits to it.
	convertThreshold = 0.8
)

// Date-shape gates. A cell is date-shaped when it is digits separated by
// slashes or dashes (with an optional time part), or a month name with a day
// and year in either order.
var (
	numericDateShape = regexp.MustCompile(`^\d{1,4}[-/]\d{1,2}[-/]\d{1,4}([ T].*)?$`)
	monthNameShape   = regexp.MustCompile(`(?i)^(` +
		`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{2,4}` +
		`|\d{1,2}\.?\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+\d{2,4}` +
		`)$`)
)

// dateTimeLayouts is the permissive layout chain for the full-column parse.
// Month-first slash layouts come before day-first so the ambiguous ones
// resolve deterministically; unambiguous values fall through to the layout
// that accepts them.
var dateTimeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Infer derives a typed table from raw, along with one ConversionNote per
// retyped column. The raw table is not mutated; shape (headers, row count,
// row order) is preserved exactly.
func Infer(raw *table.Raw) (*table.Typed, []table.ConversionNote) {
	typed := &table.Typed{
		Headers: append([]string(nil), raw.Headers...),
		Columns: make([]table.Column, raw.NumCols()),
	}
	var notes []table.ConversionNote

	for i := range raw.Headers {
		col := table.NewStringColumn(raw.Headers[i], raw.Column(i))

		if converted, ok := tryDates(&col); ok {
			typed.Columns[i] = converted
			notes = append(notes, table.ConversionNote{Column: col.Name, Target: table.DateTime})
			continue
		}
		if converted, target, ok := tryNumbers(&col); ok {
			typed.Columns[i] = converted
			notes = append(notes, table.ConversionNote{Column: col.Name, Target: target})
			continue
		}
		typed.Columns[i] = col
	}

	return typed, notes
}

// tryDates runs the date pass on a string column. It first samples up to
// dateSampleSize non-missing cells against the shape gate; only when the
// match fraction strictly exceeds dateShapeThreshold does it parse the entire
// column. The conversion commits when at least convertThreshold of the
// non-missing cells parse; cells that fail become missing.
func tryDates(col *table.Column) (table.Column, bool) {
	sampled, shaped := 0, 0
	for i := 0; i < col.Len() && sampled < dateSampleSize; i++ {
		if col.Missing[i] {
			continue
		}
		sampled++
		if looksDateShaped(col.Strings[i]) {
			shaped++
		}
	}
	// Columns with no sampled values are skipped entirely: converting an
	// empty column would be spurious.
	if sampled == 0 {
		return table.Column{}, false
	}
	if float64(shaped)/float64(sampled) <= dateShapeThreshold {
		return table.Column{}, false
	}

	out := table.Column{
		Name:    col.Name,
		Kind:    table.DateTime,
		Times:   make([]time.Time, col.Len()),
		Missing: make([]bool, col.Len()),
	}
	nonMissing, parsed := 0, 0
	for i := 0; i < col.Len(); i++ {
		if col.Missing[i] {
			out.Missing[i] = true
			continue
		}
		nonMissing++
		t, ok := parseDateTimeLoose(col.Strings[i])
		if !ok {
			out.Missing[i] = true
			continue
		}
		out.Times[i] = t
		parsed++
	}

	if float64(parsed)/float64(nonMissing) < convertThreshold {
		return table.Column{}, false
	}
	return out, true
}

// tryNumbers runs the numeric pass on a string column. Thousands separators
// and spaces are stripped before parsing. The column converts to integer only
// when every successfully parsed cell is a whole number; a single fractional
// value among the parsed cells demotes the whole column to float. Either way
// the commitment threshold applies to the parse rate, and failed cells become
// missing.
func tryNumbers(col *table.Column) (table.Column, table.Kind, bool) {
	nonMissing := col.NonMissing()
	if nonMissing == 0 {
		return table.Column{}, table.String, false
	}

	vals := make([]float64, col.Len())
	okCells := make([]bool, col.Len())
	parsed := 0
	allWhole := true

	for i := 0; i < col.Len(); i++ {
		if col.Missing[i] {
			continue
		}
		f, ok := parseNumber(col.Strings[i])
		if !ok {
			continue
		}
		vals[i] = f
		okCells[i] = true
		parsed++
		if f != math.Trunc(f) || math.Abs(f) >= 1<<62 {
			allWhole = false
		}
	}

	if float64(parsed)/float64(nonMissing) < convertThreshold {
		return table.Column{}, table.String, false
	}

	if allWhole {
		out := table.Column{
			Name:    col.Name,
			Kind:    table.Integer,
			Ints:    make([]int64, col.Len()),
			Missing: make([]bool, col.Len()),
		}
		for i := range okCells {
			if !okCells[i] {
				out.Missing[i] = true
				continue
			}
			out.Ints[i] = int64(vals[i])
		}
		return out, table.Integer, true
	}

	out := table.Column{
		Name:    col.Name,
		Kind:    table.Float,
		Floats:  make([]float64, col.Len()),
		Missing: make([]bool, col.Len()),
	}
	for i := range okCells {
		if !okCells[i] {
			out.Missing[i] = true
			continue
		}
		out.Floats[i] = vals[i]
	}
	return out, table.Float, true
}

func looksDateShaped(s string) bool {
	s = strings.TrimSpace(s)
	return numericDateShape.MatchString(s) || monthNameShape.MatchString(s)
}

// parseDateTimeLoose tries each permissive layout in order.
func parseDateTimeLoose(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, lay := range dateTimeLayouts {
		if t, err := time.Parse(lay, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumber parses a cell after stripping thousands separators and spaces.
func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

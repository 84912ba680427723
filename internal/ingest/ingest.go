// Package ingest turns an uploaded byte buffer into a table.Raw.
//
// For delimited text it drives the (encoding x delimiter) fallback chain:
// for each encoding candidate, the auto-sniffed delimiter is attempted first,
// then each explicit delimiter, before moving on to the next encoding. The
// first attempt that yields a table with at least one column wins. Every
// per-attempt failure is swallowed and retried with the next candidate; only
// total exhaustion surfaces, as a ParseError carrying the LAST underlying
// cause (later errors are the more informative ones, since decoding succeeds
// more often by the time late delimiters are tried).
//
// HTML and XLSX uploads are detected up front by byte sniffing and handed to
// their dedicated readers; they decode their own text and skip the chain.
//
// Ingestion is pure: identical bytes always produce an identical table.Raw or
// an identical failure. Callers that want memoization use Cache.
package ingest

import (
	"bytes"
	"fmt"

	"tabload/internal/decode"
	"tabload/internal/htmltable"
	"tabload/internal/parser/delim"
	"tabload/internal/table"
	"tabload/internal/xlsxtable"
)

// Format identifies the detected upload format.
type Format int

const (
	FormatDelimited Format = iota
	FormatHTML
	FormatXLSX
)

func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatXLSX:
		return "xlsx"
	default:
		return "delimited"
	}
}

var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// SniffFormat infers the upload format from the buffer's leading bytes.
// Detection is heuristic and intentionally conservative: anything that is not
// obviously a zip container or markup is treated as delimited text.
func SniffFormat(content []byte) Format {
	if bytes.HasPrefix(content, zipMagic) {
		return FormatXLSX
	}
	trim := bytes.TrimSpace(content)
	if len(trim) > 0 && trim[0] == '<' {
		return FormatHTML
	}
	return FormatDelimited
}

// ParseError is the terminal ingestion failure: every encoding and delimiter
// combination was exhausted without producing a usable table.
type ParseError struct {
	// Attempts counts the (encoding, delimiter) pairs tried.
	Attempts int
	// Last is the most recent underlying cause.
	Last error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse input after %d attempts, last error: %v", e.Attempts, e.Last)
}

func (e *ParseError) Unwrap() error { return e.Last }

// Result is a successful ingestion plus how it was reached.
type Result struct {
	Raw    *table.Raw
	Format Format
	// Attempts counts the (encoding, delimiter) pairs spent, including the
	// winning one. Always 1 for HTML and XLSX.
	Attempts int
}

// Read ingests content, sniffing the format first.
func Read(content []byte) (*table.Raw, error) {
	res, err := ReadDetailed(content, SniffFormat(content))
	if err != nil {
		return nil, err
	}
	return res.Raw, nil
}

// ReadAs ingests content under an explicit format. For FormatDelimited it
// runs the full fallback chain; the other formats delegate to their readers.
func ReadAs(content []byte, f Format) (*table.Raw, error) {
	res, err := ReadDetailed(content, f)
	if err != nil {
		return nil, err
	}
	return res.Raw, nil
}

// ReadDetailed is ReadAs plus attempt accounting, for callers that report
// run statistics.
func ReadDetailed(content []byte, f Format) (*Result, error) {
	switch f {
	case FormatHTML:
		raw, err := readHTML(content)
		if err != nil {
			return nil, err
		}
		return &Result{Raw: raw, Format: f, Attempts: 1}, nil
	case FormatXLSX:
		raw, err := xlsxtable.Extract(content)
		if err != nil {
			return nil, err
		}
		return &Result{Raw: raw, Format: f, Attempts: 1}, nil
	default:
		return readDelimited(content)
	}
}

func readHTML(content []byte) (*table.Raw, error) {
	// HTML uploads are expected UTF-8; fall back through the same encodings
	// as delimited text so a cp1252 export from a legacy tool still loads.
	var last error
	for _, enc := range decode.Encodings() {
		text, err := enc.Decode(content)
		if err != nil {
			last = err
			continue
		}
		return htmltable.Extract(text)
	}
	return nil, last
}

func readDelimited(content []byte) (*Result, error) {
	var (
		last     error
		attempts int
	)

	for _, enc := range decode.Encodings() {
		text, err := enc.Decode(content)
		if err != nil {
			last = err
			continue
		}

		for _, d := range decode.Delimiters() {
			attempts++
			raw, err := delim.Parse(text, d)
			if err != nil {
				last = fmt.Errorf("%s, delimiter %s: %w", enc.Name, delimName(d), err)
				continue
			}
			return &Result{Raw: raw, Format: FormatDelimited, Attempts: attempts}, nil
		}
	}

	return nil, &ParseError{Attempts: attempts, Last: last}
}

func delimName(d rune) string {
	switch d {
	case decode.Auto:
		return "auto"
	case '\t':
		return "tab"
	default:
		return string(d)
	}
}

// Package delim parses decoded delimited text into a table.Raw.
//
// Parsing is intentionally best-effort, mirroring a "skip bad lines" policy:
//   - records whose field count does not match the header are dropped
//   - records the CSV reader rejects (quote errors) are dropped individually
//   - only total inability to produce a header row is an error
//
// The package also implements delimiter sniffing for the Auto mode: a single
// delimiter must appear a consistent, non-zero number of times across the
// inspected lines, otherwise sniffing fails and the caller falls back to
// explicit delimiters.
package delim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"tabload/internal/decode"
	"tabload/internal/table"
)

// ErrNoDelimiter is returned by Sniff when no candidate delimiter appears
// consistently across the inspected lines.
var ErrNoDelimiter = errors.New("no consistent delimiter found")

// ErrEmptyInput is returned when the text holds no parseable content.
var ErrEmptyInput = errors.New("empty input")

// sniffLines bounds how many non-empty lines the sniffer inspects.
const sniffLines = 32

// Parse parses text into a table.Raw using the given delimiter. Passing
// decode.Auto sniffs the delimiter first. The result always has at least one
// header column; anything less is an error, not an empty table.
func Parse(text string, delimiter rune) (*table.Raw, error) {
	if delimiter == decode.Auto {
		d, err := Sniff(text)
		if err != nil {
			return nil, err
		}
		delimiter = d
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1 // alignment is validated manually below
	r.LazyQuotes = true

	headers, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, 256)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip the malformed record, keep the parse alive.
			continue
		}
		if len(rec) != len(headers) {
			continue
		}
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, rec)
	}

	return &table.Raw{Headers: headers, Rows: rows}, nil
}

func readHeader(r *csv.Reader) ([]string, error) {
	headers, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range headers {
		h := strings.TrimSpace(headers[i])
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		headers[i] = h
	}
	if len(headers) == 0 {
		return nil, ErrEmptyInput
	}
	return headers, nil
}

// Sniff guesses the delimiter of text by requiring one candidate to appear a
// consistent, non-zero number of times (outside quoted sections) on every
// inspected line. Candidates are tested in the explicit fallback order, so a
// comma/semicolon tie resolves to comma.
func Sniff(text string) (rune, error) {
	lines := collectLines(text, sniffLines)
	if len(lines) == 0 {
		return 0, ErrEmptyInput
	}

	for _, cand := range decode.Delimiters() {
		if cand == decode.Auto {
			continue
		}
		if consistentCount(lines, cand) {
			return cand, nil
		}
	}
	return 0, ErrNoDelimiter
}

func collectLines(text string, max int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
		if len(out) >= max {
			break
		}
	}
	return out
}

// consistentCount reports whether d occurs the same non-zero number of times
// on every line, counting only occurrences outside double-quoted sections.
func consistentCount(lines []string, d rune) bool {
	want := -1
	for _, line := range lines {
		n := countUnquoted(line, d)
		if n == 0 {
			return false
		}
		if want == -1 {
			want = n
			continue
		}
		if n != want {
			return false
		}
	}
	return want > 0
}

func countUnquoted(line string, d rune) int {
	n := 0
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == d && !inQuote:
			n++
		}
	}
	return n
}

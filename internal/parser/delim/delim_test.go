package delim

import (
	"errors"
	"reflect"
	"testing"

	"tabload/internal/decode"
)

//
// Sniff
//

// TestSniff verifies delimiter detection across the candidate set, the
// comma-first tie-break, and the failure modes that push the orchestrator to
// explicit delimiters.
func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    rune
		wantErr error
	}{
		{name: "comma", text: "a,b,c\n1,2,3\n", want: ','},
		{name: "semicolon", text: "a;b;c\n1;2;3\n", want: ';'},
		{name: "tab", text: "a\tb\n1\t2\n", want: '\t'},
		{name: "pipe", text: "a|b\n1|2\n", want: '|'},
		{name: "comma wins tie over semicolon", text: "a,b;c\n1,2;3\n", want: ','},
		{name: "quoted delimiters ignored", text: "\"a,b\";c\n\"1,2\";3\n", want: ';'},
		{name: "inconsistent counts fail", text: "a,b,c\n1,2\n", wantErr: ErrNoDelimiter},
		{name: "single column fails", text: "name\nalice\nbob\n", wantErr: ErrNoDelimiter},
		{name: "empty input", text: "  \n\n", wantErr: ErrEmptyInput},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Sniff(tt.text)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Sniff() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Sniff() error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Sniff() = %q, want %q", got, tt.want)
			}
		})
	}
}

//
// Parse
//

// TestParseBasic verifies a well-formed comma file parses with trimmed cells.
func TestParseBasic(t *testing.T) {
	t.Parallel()

	raw, err := Parse("date, close \n2024-01-02, 101.5\n2024-01-03,99\n", ',')
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !reflect.DeepEqual(raw.Headers, []string{"date", "close"}) {
		t.Fatalf("Headers = %v", raw.Headers)
	}
	want := [][]string{{"2024-01-02", "101.5"}, {"2024-01-03", "99"}}
	if !reflect.DeepEqual(raw.Rows, want) {
		t.Fatalf("Rows = %v, want %v", raw.Rows, want)
	}
}

// TestParseAuto verifies the Auto sentinel routes through sniffing.
func TestParseAuto(t *testing.T) {
	t.Parallel()

	raw, err := Parse("a;b\n1;2\n", decode.Auto)
	if err != nil {
		t.Fatalf("Parse(auto) error: %v", err)
	}
	if raw.NumCols() != 2 || raw.NumRows() != 1 {
		t.Fatalf("shape = %dx%d, want 2x1", raw.NumCols(), raw.NumRows())
	}
}

// TestParseSkipsBadLines verifies misaligned records are dropped while the
// surrounding rows survive, and header shape is untouched.
func TestParseSkipsBadLines(t *testing.T) {
	t.Parallel()

	text := "a,b,c\n1,2,3\nonly,two\n4,5,6\n7,8,9,10\n"
	raw, err := Parse(text, ',')
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := [][]string{{"1", "2", "3"}, {"4", "5", "6"}}
	if !reflect.DeepEqual(raw.Rows, want) {
		t.Fatalf("Rows = %v, want %v", raw.Rows, want)
	}
}

// TestParseHeaderOnly verifies a file with no data rows is a successful parse
// of an empty table, not an error.
func TestParseHeaderOnly(t *testing.T) {
	t.Parallel()

	raw, err := Parse("a,b,c\n", ',')
	if err != nil {
		t.Fatalf("Parse(header only) error: %v", err)
	}
	if raw.NumCols() != 3 || raw.NumRows() != 0 {
		t.Fatalf("shape = %dx%d, want 3x0", raw.NumCols(), raw.NumRows())
	}
}

// TestParseStripsHeaderBOM verifies a leading byte order mark does not leak
// into the first header name.
func TestParseStripsHeaderBOM(t *testing.T) {
	t.Parallel()

	raw, err := Parse("\uFEFFdate,close\n2024-01-02,1\n", ',')
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if raw.Headers[0] != "date" {
		t.Fatalf("Headers[0] = %q, BOM not stripped", raw.Headers[0])
	}
}

// TestParseEmpty verifies blank input is an error rather than a zero-column
// table.
func TestParseEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Parse("   \n", ','); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("Parse(blank) error = %v, want ErrEmptyInput", err)
	}
}

// TestParseQuotedCells verifies delimiters inside quoted cells stay literal.
func TestParseQuotedCells(t *testing.T) {
	t.Parallel()

	raw, err := Parse("name,notes\nacme,\"expanded, then sold\"\n", ',')
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if raw.Rows[0][1] != "expanded, then sold" {
		t.Fatalf("cell = %q", raw.Rows[0][1])
	}
}

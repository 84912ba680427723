package table

import (
	"testing"
	"time"
)

// TestNewStringColumn verifies empty cells become missing and everything else
// is carried verbatim.
func TestNewStringColumn(t *testing.T) {
	t.Parallel()

	c := NewStringColumn("city", []string{"Berlin", "", "Oslo"})

	if c.Kind != String {
		t.Fatalf("Kind = %v, want String", c.Kind)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if c.NonMissing() != 2 {
		t.Fatalf("NonMissing() = %d, want 2", c.NonMissing())
	}
	if !c.Missing[1] || c.Missing[0] || c.Missing[2] {
		t.Fatalf("Missing = %v, want [false true false]", c.Missing)
	}
	if c.Strings[0] != "Berlin" || c.Strings[2] != "Oslo" {
		t.Fatalf("Strings = %v", c.Strings)
	}
}

// TestColumnText verifies the canonical text rendering per kind. This form is
// what the CSV export emits, so it must round-trip through re-ingestion.
func TestColumnText(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		col  Column
		want string
	}{
		{
			name: "string",
			col:  Column{Kind: String, Strings: []string{"abc"}, Missing: []bool{false}},
			want: "abc",
		},
		{
			name: "datetime canonical layout",
			col:  Column{Kind: DateTime, Times: []time.Time{when}, Missing: []bool{false}},
			want: "2024-03-15 09:30:00",
		},
		{
			name: "integer no separators",
			col:  Column{Kind: Integer, Ints: []int64{1234567}, Missing: []bool{false}},
			want: "1234567",
		},
		{
			name: "float shortest form",
			col:  Column{Kind: Float, Floats: []float64{1234.5}, Missing: []bool{false}},
			want: "1234.5",
		},
		{
			name: "missing renders empty",
			col:  Column{Kind: Integer, Ints: []int64{0}, Missing: []bool{true}},
			want: "",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.col.Text(0); got != tt.want {
				t.Fatalf("Text(0) = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestRawColumn verifies column extraction keeps row order.
func TestRawColumn(t *testing.T) {
	t.Parallel()

	r := &Raw{
		Headers: []string{"a", "b"},
		Rows:    [][]string{{"1", "x"}, {"2", "y"}, {"3", "z"}},
	}
	got := r.Column(1)
	want := []string{"x", "y", "z"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Column(1) = %v, want %v", got, want)
		}
	}
	if r.NumCols() != 2 || r.NumRows() != 3 {
		t.Fatalf("NumCols/NumRows = %d/%d, want 2/3", r.NumCols(), r.NumRows())
	}
}

// TestConversionNoteString verifies the user-facing note format.
func TestConversionNoteString(t *testing.T) {
	t.Parallel()

	n := ConversionNote{Column: "Trade Date", Target: DateTime}
	if got := n.String(); got != "Trade Date -> datetime" {
		t.Fatalf("String() = %q", got)
	}
}

package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"tabload/internal/table"
)

//
// NormalizeIdent
//

// TestNormalizeIdent verifies header-to-identifier mapping, including the
// awkward inputs real uploads carry.
func TestNormalizeIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "lower passthrough", in: "close", want: "close"},
		{name: "spaces collapse", in: "Trade  Date", want: "trade_date"},
		{name: "punctuation", in: "price/unit.usd", want: "price_unit_usd"},
		{name: "unicode dropped", in: "café", want: "caf"},
		{name: "leading digit prefixed", in: "52 week high", want: "c_52_week_high"},
		{name: "empty falls back", in: "  ", want: "col"},
		{name: "symbols only falls back", in: "%%%", want: "col"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeIdent(tt.in); got != tt.want {
				t.Fatalf("NormalizeIdent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestColumnIdents verifies collision suffixing keeps identifiers unique.
func TestColumnIdents(t *testing.T) {
	t.Parallel()

	typed := &table.Typed{
		Headers: []string{"Open", "open", "OPEN", "close"},
		Columns: []table.Column{
			{Name: "Open"}, {Name: "open"}, {Name: "OPEN"}, {Name: "close"},
		},
	}

	got := ColumnIdents(typed)
	seen := map[string]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("duplicate identifier %q in %v", id, got)
		}
		seen[id] = true
	}
	if got[0] != "open" || got[3] != "close" {
		t.Fatalf("ColumnIdents = %v", got)
	}
}

//
// CellValue
//

// TestCellValue verifies native value extraction and the nil-for-missing
// contract.
func TestCellValue(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	col := table.Column{
		Kind:    table.DateTime,
		Times:   []time.Time{when, {}},
		Missing: []bool{false, true},
	}

	if got := CellValue(&col, 0); got != when {
		t.Fatalf("CellValue = %v, want %v", got, when)
	}
	if got := CellValue(&col, 1); got != nil {
		t.Fatalf("CellValue(missing) = %v, want nil", got)
	}

	ints := table.Column{Kind: table.Integer, Ints: []int64{7}, Missing: []bool{false}}
	if got := CellValue(&ints, 0); got != int64(7) {
		t.Fatalf("CellValue(int) = %v (%T)", got, got)
	}
}

//
// registry
//

// TestNewUnknownKind verifies selection errors name the registered kinds.
func TestNewUnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), Config{Kind: "nope"}); err == nil || !strings.Contains(err.Error(), "unsupported kind") {
		t.Fatalf("New(nope) error = %v", err)
	}
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatalf("New with empty kind succeeded")
	}
}

// TestRegisterValidation verifies the fail-fast panics.
func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	mustPanic := func(name string, fn func()) {
		defer func() {
			if recover() == nil {
				t.Fatalf("%s did not panic", name)
			}
		}()
		fn()
	}

	mustPanic("empty kind", func() { Register("", func(context.Context, Config) (Sink, error) { return nil, nil }) })
	mustPanic("nil factory", func() { Register("x", nil) })
}

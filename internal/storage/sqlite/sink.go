// Package sqlite implements storage.Sink on modernc.org/sqlite.
//
// SQLite has no native datetime type; datetimes are stored as RFC 3339 text
// for reliable round-trip behavior and easy debugging.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tabload/internal/storage"
	"tabload/internal/table"
)

type sink struct {
	db *sql.DB
}

func init() {
	storage.Register("sqlite", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sink{db: db}, nil
}

func (s *sink) Close() { _ = s.db.Close() }

func sqlType(k table.Kind) string {
	switch k {
	case table.Integer:
		return "INTEGER"
	case table.Float:
		return "REAL"
	default:
		// DateTime included: stored as RFC 3339 text.
		return "TEXT"
	}
}

func (s *sink) EnsureTable(ctx context.Context, name string, typed *table.Typed) error {
	idents := storage.ColumnIdents(typed)

	cols := make([]string, len(typed.Columns))
	for i, col := range typed.Columns {
		cols[i] = fmt.Sprintf("%q %s", idents[i], sqlType(col.Kind))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)",
		storage.NormalizeIdent(name), strings.Join(cols, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

func (s *sink) Load(ctx context.Context, name string, typed *table.Typed) (int64, error) {
	if len(typed.Columns) == 0 {
		return 0, nil
	}
	idents := storage.ColumnIdents(typed)

	quoted := make([]string, len(idents))
	ph := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = fmt.Sprintf("%q", id)
		ph[i] = "?"
	}
	insert := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		storage.NormalizeIdent(name), strings.Join(quoted, ", "), strings.Join(ph, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	nrows := typed.Columns[0].Len()
	args := make([]any, len(typed.Columns))
	var inserted int64
	for i := 0; i < nrows; i++ {
		for j := range typed.Columns {
			args[j] = cell(&typed.Columns[j], i)
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// cell renders a cell for the sqlite driver; datetimes become RFC 3339 text.
func cell(col *table.Column, i int) any {
	v := storage.CellValue(col, i)
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return v
}

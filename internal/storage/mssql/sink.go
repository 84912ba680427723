// Package mssql implements storage.Sink on SQL Server via database/sql and
// the microsoft/go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"

	"tabload/internal/storage"
	"tabload/internal/table"
)

type sink struct {
	db *sql.DB
}

func init() {
	storage.Register("mssql", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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
	case table.DateTime:
		return "DATETIME2"
	case table.Integer:
		return "BIGINT"
	case table.Float:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// bracket quotes a SQL Server identifier.
func bracket(s string) string {
	return "[" + strings.ReplaceAll(s, "]", "]]") + "]"
}

func (s *sink) EnsureTable(ctx context.Context, name string, typed *table.Typed) error {
	idents := storage.ColumnIdents(typed)
	tbl := storage.NormalizeIdent(name)

	cols := make([]string, len(typed.Columns))
	for i, col := range typed.Columns {
		cols[i] = fmt.Sprintf("%s %s NULL", bracket(idents[i]), sqlType(col.Kind))
	}

	// SQL Server has no CREATE TABLE IF NOT EXISTS; guard with OBJECT_ID.
	ddl := fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL CREATE TABLE %s (%s)",
		tbl, bracket(tbl), strings.Join(cols, ", "))
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
		quoted[i] = bracket(id)
		ph[i] = fmt.Sprintf("@p%d", i+1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		bracket(storage.NormalizeIdent(name)), strings.Join(quoted, ", "), strings.Join(ph, ", "))

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
			args[j] = storage.CellValue(&typed.Columns[j], i)
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

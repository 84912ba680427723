// Package postgres implements storage.Sink on a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tabload/internal/storage"
	"tabload/internal/table"
)

type sink struct {
	pool *pgxpool.Pool
}

func init() {
	storage.Register("postgres", New)
}

func New(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &sink{pool: pool}, nil
}

func (s *sink) Close() { s.pool.Close() }

func sqlType(k table.Kind) string {
	switch k {
	case table.DateTime:
		return "TIMESTAMPTZ"
	case table.Integer:
		return "BIGINT"
	case table.Float:
		return "DOUBLE PRECISION"
	default:
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
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// Load uses COPY, which pgx exposes natively and which beats row-at-a-time
// inserts by a wide margin on bulk appends.
func (s *sink) Load(ctx context.Context, name string, typed *table.Typed) (int64, error) {
	if len(typed.Columns) == 0 {
		return 0, nil
	}
	idents := storage.ColumnIdents(typed)

	nrows := typed.Columns[0].Len()
	rows := make([][]any, nrows)
	for i := 0; i < nrows; i++ {
		row := make([]any, len(typed.Columns))
		for j := range typed.Columns {
			row[j] = storage.CellValue(&typed.Columns[j], i)
		}
		rows[i] = row
	}

	n, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{storage.NormalizeIdent(name)},
		idents,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("copy into %s: %w", name, err)
	}
	return n, nil
}

// Package storage loads a typed table into a relational backend. Backends
// register themselves under a kind string from init(); callers pick one by
// configuration and talk to it through the Sink interface only.
package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tabload/internal/table"
)

// Config is the minimal configuration needed to create a sink.
//
// Kind must match a registered backend kind; DSN is passed through to the
// backend factory and validated there.
type Config struct {
	Kind string
	DSN  string
}

// Sink is a backend-agnostic destination for typed tables.
type Sink interface {
	// EnsureTable creates the destination table if it does not exist, with
	// one column per table column in the backend's closest native type.
	EnsureTable(ctx context.Context, name string, typed *table.Typed) error

	// Load appends every row of typed into the named table. Missing cells
	// are stored as SQL NULL. Load does not dedupe; re-running a load
	// duplicates rows.
	Load(ctx context.Context, name string, typed *table.Typed) (int64, error)

	// Close releases backend resources. Treat as "call once".
	Close()
}

type factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend factory under a kind. Call from an init()
// function in the backend package.
//
// Panics on empty kind, nil factory, or duplicate registration, to fail fast
// on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}

	factories[kind] = f
}

// New constructs a Sink using the registered backend factory for cfg.Kind.
func New(ctx context.Context, cfg Config) (Sink, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing Kind")
	}

	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}

	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	// Small slice; insertion sort keeps the import list flat.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NormalizeIdent converts a free-form header into a safe SQL identifier:
// lower, whitespace and punctuation collapsed to single underscores,
// everything outside [a-z0-9_] dropped, leading digit prefixed.
func NormalizeIdent(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastUnderscore = r == '_'
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "col"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "c_" + out
	}
	return out
}

// ColumnIdents returns a normalized, de-duplicated identifier per column.
// Collisions get a numeric suffix so two headers never share a column.
func ColumnIdents(typed *table.Typed) []string {
	seen := make(map[string]int)
	out := make([]string, len(typed.Columns))
	for i, col := range typed.Columns {
		name := NormalizeIdent(col.Name)
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

// CellValue returns the driver-level value for one cell: nil for missing,
// otherwise the column's native Go value. Datetimes are passed as time.Time
// and left to the backend to render.
func CellValue(col *table.Column, i int) any {
	if col.Missing[i] {
		return nil
	}
	switch col.Kind {
	case table.DateTime:
		return col.Times[i]
	case table.Integer:
		return col.Ints[i]
	case table.Float:
		return col.Floats[i]
	default:
		return col.Strings[i]
	}
}

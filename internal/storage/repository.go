// Package storage defines the read-only lookup store contract and a small
// factory so callers can open a backend by kind without importing it.
//
// Backends (sqlite, postgres, mssql, mysql) register themselves in init();
// import storage/all to enable every built-in kind.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

// Result is the outcome of one query: the column names the engine reported
// and every returned row aligned to them. SQL NULL is an invalid NullString.
type Result struct {
	Columns []string
	Rows    [][]sql.NullString
}

// Repository is an open handle on a lookup store.
type Repository interface {
	// Dialect describes how placeholders and identifiers are written.
	Dialect() Dialect

	// Query runs a parameterised SELECT and materialises the result.
	Query(ctx context.Context, query string, args ...any) (*Result, error)

	// Close releases the underlying connection or pool.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite".
	Kind string

	// DSN is the backend connection string. For sqlite it may be a plain
	// file path.
	DSN string

	// ReadOnly asks the backend to refuse writes where it can.
	ReadOnly bool
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. A later registration for the
// same kind replaces the earlier one.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens the backend named by cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend names in sorted order.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

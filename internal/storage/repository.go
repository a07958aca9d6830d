// Package storage holds the backend-agnostic contract for statement sinks
// and a registry that maps storage.kind values to backend factories.
//
// Backends register themselves from init; importing
// github.com/theodi/csv2rdf/internal/storage/all links every built-in one.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config is what a backend factory receives.
type Config struct {
	// Kind selects the backend ("sqlite", "postgres", "mssql", "neo4j", "nats").
	Kind string
	// DSN is passed to the backend driver untouched.
	DSN string
	// Table is the destination table; for nats it is the subject.
	Table string
	// Columns is the ordered column list CopyFrom receives. Empty means
	// StatementColumns.
	Columns []string
}

// Repository is a statement sink. Rows passed to CopyFrom are aligned with
// columns. Sinks keyed on the statement hash skip rows they already hold, so
// the returned count is the number of rows actually stored.
type Repository interface {
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
	Exec(ctx context.Context, sql string) error
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	if len(cfg.Columns) == 0 {
		cfg.Columns = StatementColumns
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
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

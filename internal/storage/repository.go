// Package storage contains storage-agnostic contracts and utilities: the
// Repository interface every backend implements, the backend factory
// registry, the batch writer and the plan applier.
//
// Backends register themselves from init(); import
// dbingest/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name: mysql, postgres, sqlite, mssql.
	Kind string
	// DSN is passed to the backend's driver unchanged.
	DSN string
}

// Repository is one open connection to a store.
type Repository interface {
	// Dialect returns the SQL rendering rules of the store.
	Dialect() ddl.Dialect
	// Describe returns the live definition of table, or nil when the table
	// does not exist.
	Describe(ctx context.Context, table string) (*schema.TableDefinition, error)
	// Exec runs one statement outside any batch transaction (DDL).
	Exec(ctx context.Context, sql string) error
	// InsertBatch writes rows (aligned to columns) in a single transaction
	// and returns the number of rows committed.
	InsertBatch(ctx context.Context, table string, columns []schema.Column, rows [][]any) (int64, error)
	// Close releases the connection.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. It is typically
// called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[strings.ToLower(kind)] = fn
}

// New opens a Repository of cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	fn, ok := factories[strings.ToLower(cfg.Kind)]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return fn(ctx, cfg)
}

// ListKinds returns the registered backend names, sorted.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []schema.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

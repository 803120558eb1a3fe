// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql. Every batch is one transaction holding one or more
// multi-row INSERTs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
	"dbingest/internal/storage"
	"dbingest/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite database and returns a Repository plus a
// Close function for cleanup.
//
// The pool is capped at one connection: SQLite has a single writer, and an
// in-memory database exists per connection.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() gddl.Dialect { return ddl.Dialect{} }

// Describe reads the column layout from pragma_table_info. A table with no
// columns does not exist.
func (r *Repository) Describe(ctx context.Context, table string) (*schema.TableDefinition, error) {
	schemaName, name := gddl.SplitFQN(table)
	q := "SELECT name, type FROM pragma_table_info(?) ORDER BY cid"
	args := []any{name}
	if schemaName != "" {
		q = "SELECT name, type FROM pragma_table_info(?, ?) ORDER BY cid"
		args = append(args, schemaName)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: describe %s: %w", table, err)
	}
	defer rows.Close()

	def := &schema.TableDefinition{Name: table}
	for rows.Next() {
		var col schema.ColumnDef
		if err := rows.Scan(&col.Name, &col.SQLType); err != nil {
			return nil, fmt.Errorf("sqlite: describe %s: %w", table, err)
		}
		def.Columns = append(def.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: describe %s: %w", table, err)
	}
	if len(def.Columns) == 0 {
		return nil, nil
	}
	return def, nil
}

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// InsertBatch inserts rows in one transaction. Nothing of the batch is kept
// when any statement fails.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []schema.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	n, err := storage.InsertRowsTx(ctx, tx, r.Dialect(), table, storage.ColumnNames(columns), rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return n, nil
}

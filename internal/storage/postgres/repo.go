// Package postgres implements a Postgres repository using pgx v5. Each batch
// is a COPY inside its own transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
	"dbingest/internal/storage"
	"dbingest/internal/storage/postgres/ddl"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN string // connection string for pgxpool
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository, verifies connectivity and returns a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: ping: %w", err)
	}
	close := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, close, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() gddl.Dialect { return ddl.Dialect{} }

const describeSQL = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = COALESCE($1, current_schema()) AND table_name = $2
ORDER BY ordinal_position`

// Describe reads the table layout from information_schema.
func (r *Repository) Describe(ctx context.Context, table string) (*schema.TableDefinition, error) {
	sch, name := gddl.SplitFQN(table)
	var schArg *string
	if sch != "" {
		schArg = &sch
	}

	rows, err := r.pool.Query(ctx, describeSQL, schArg, name)
	if err != nil {
		return nil, fmt.Errorf("postgres: describe %s: %w", table, err)
	}
	defer rows.Close()

	def := &schema.TableDefinition{Name: table}
	for rows.Next() {
		var col schema.ColumnDef
		if err := rows.Scan(&col.Name, &col.SQLType); err != nil {
			return nil, fmt.Errorf("postgres: describe %s: %w", table, err)
		}
		def.Columns = append(def.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: describe %s: %w", table, err)
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
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", pgDetail(err))
	}
	return nil
}

// InsertBatch copies rows into table inside one transaction. Datetime text
// is bound as timestamps.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []schema.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	rows, err := storage.BindDateTimes(columns, rows)
	if err != nil {
		return 0, fmt.Errorf("postgres: bind: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, identifier(table), storage.ColumnNames(columns), pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, pgDetail(err))
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

// identifier splits a possibly schema-qualified name for pgx.
func identifier(table string) pgx.Identifier {
	sch, name := gddl.SplitFQN(table)
	if sch == "" {
		return pgx.Identifier{name}
	}
	return pgx.Identifier{sch, name}
}

// pgDetail folds the server's detail text into the error message.
func pgDetail(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s)", err, pgErr.Detail)
	}
	return err
}

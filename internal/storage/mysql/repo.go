// Package mysql provides a MySQL-backed storage.Repository implementation
// using database/sql and github.com/go-sql-driver/mysql.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
	"dbingest/internal/storage"
	"dbingest/internal/storage/mysql/ddl"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver form: user:pass@tcp(host:3306)/db?params
	DSN string
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a pool, verifies the connection and returns the
// Repository plus a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	dc, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: parse dsn: %w", err)
	}
	connector, err := driver.NewConnector(dc)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(connector)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping %s@%s: %w", dc.User, dc.Addr, err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() gddl.Dialect { return ddl.Dialect{} }

const describeSQL = `SELECT COLUMN_NAME, COLUMN_TYPE
FROM information_schema.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(?, DATABASE()) AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

// Describe reads the table layout from information_schema. A table without
// rows there does not exist.
func (r *Repository) Describe(ctx context.Context, table string) (*schema.TableDefinition, error) {
	db, name := gddl.SplitFQN(table)
	var dbArg any
	if db != "" {
		dbArg = db
	}

	rows, err := r.db.QueryContext(ctx, describeSQL, dbArg, name)
	if err != nil {
		return nil, fmt.Errorf("mysql: describe %s: %w", table, err)
	}
	defer rows.Close()

	def := &schema.TableDefinition{Name: table}
	for rows.Next() {
		var col schema.ColumnDef
		if err := rows.Scan(&col.Name, &col.SQLType); err != nil {
			return nil, fmt.Errorf("mysql: describe %s: %w", table, err)
		}
		def.Columns = append(def.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: describe %s: %w", table, err)
	}
	if len(def.Columns) == 0 {
		return nil, nil
	}
	return def, nil
}

// Exec executes an arbitrary SQL statement (typically DDL). MySQL commits
// DDL implicitly.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sql); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

// InsertBatch inserts rows with multi-row INSERTs in one transaction.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []schema.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	n, err := storage.InsertRowsTx(ctx, tx, r.Dialect(), table, storage.ColumnNames(columns), rows)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return n, nil
}

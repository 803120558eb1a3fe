// Package mssql implements a Microsoft SQL Server repository using the
// go-mssqldb bulk copy API. Each batch is one bulk copy inside its own
// transaction.
package mssql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
	"dbingest/internal/storage"
	"dbingest/internal/storage/mssql/ddl"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN string
}

// Repository is an MSSQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository constructs a Repository and returns a Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sql.Open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping: %w", err)
	}
	close := func() { _ = db.Close() }
	return &Repository{db: db, cfg: cfg}, close, nil
}

// Dialect implements storage.Repository.
func (r *Repository) Dialect() gddl.Dialect { return ddl.Dialect{} }

const describeSQL = `SELECT COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(@p1, SCHEMA_NAME()) AND TABLE_NAME = @p2
ORDER BY ORDINAL_POSITION`

// Describe reads the table layout from INFORMATION_SCHEMA.
func (r *Repository) Describe(ctx context.Context, table string) (*schema.TableDefinition, error) {
	sch, name := gddl.SplitFQN(table)
	var schArg any
	if sch != "" {
		schArg = sch
	}

	rows, err := r.db.QueryContext(ctx, describeSQL, schArg, name)
	if err != nil {
		return nil, fmt.Errorf("mssql: describe %s: %w", table, err)
	}
	defer rows.Close()

	def := &schema.TableDefinition{Name: table}
	for rows.Next() {
		var col schema.ColumnDef
		if err := rows.Scan(&col.Name, &col.SQLType); err != nil {
			return nil, fmt.Errorf("mssql: describe %s: %w", table, err)
		}
		def.Columns = append(def.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: describe %s: %w", table, err)
	}
	if len(def.Columns) == 0 {
		return nil, nil
	}
	return def, nil
}

// Exec executes a SQL statement against the pool.
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("mssql: exec: %w", err)
	}
	return nil
}

// InsertBatch bulk-copies rows into table in one transaction.
func (r *Repository) InsertBatch(ctx context.Context, table string, columns []schema.Column, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	rows, err := bindValues(columns, rows)
	if err != nil {
		return 0, fmt.Errorf("mssql: bind: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	copyIn := mssql.CopyIn(gddl.QuoteFQN(r.Dialect(), table), mssql.BulkOptions{}, storage.ColumnNames(columns)...)
	stmt, err := tx.PrepareContext(ctx, copyIn)
	if err != nil {
		rollback()
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// bindValues prepares rows for the bulk copy encoder, which takes only int,
// int32, int64, float32 and float64 for numeric columns: datetime text
// becomes time.Time, numbers in FLOAT columns become float64 and numbers in
// integer columns become int64.
func bindValues(columns []schema.Column, rows [][]any) ([][]any, error) {
	rows, err := storage.BindDateTimes(columns, rows)
	if err != nil {
		return nil, err
	}
	conv := make([]func(any) (any, bool), len(columns))
	needed := false
	for i, c := range columns {
		switch c.Type.Kind {
		case schema.TypeDouble:
			conv[i] = func(v any) (any, bool) { return toFloat(v) }
			needed = true
		case schema.TypeInteger:
			conv[i] = func(v any) (any, bool) { return toInt(v) }
			needed = true
		}
	}
	if !needed {
		return rows, nil
	}
	out := make([][]any, len(rows))
	for r, row := range rows {
		cp := append([]any(nil), row...)
		for i, fn := range conv {
			if fn == nil || cp[i] == nil {
				continue
			}
			v, ok := fn(cp[i])
			if !ok {
				return nil, fmt.Errorf("row %d column %s: %v (%T) is not a number", r, columns[i].Name, cp[i], cp[i])
			}
			cp[i] = v
		}
		out[r] = cp
	}
	return out, nil
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	if n, ok := toInt(v); ok {
		return float64(n), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// InsertRowsTx writes rows inside tx as multi-row INSERT statements. Rows are
// split across statements only when one statement would exceed the
// dialect's bind-parameter cap. It returns the rows written before any error.
func InsertRowsTx(ctx context.Context, tx *sql.Tx, d ddl.Dialect, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("%s: insert: columns must not be empty", d.Name())
	}
	per := ddl.RowsPerStatement(d, len(columns))

	var (
		inserted int64
		args     = make([]any, 0, min(per, len(rows))*len(columns))
	)
	for lo := 0; lo < len(rows); lo += per {
		hi := min(lo+per, len(rows))
		stmt, err := ddl.BuildInsertSQL(d, table, columns, hi-lo)
		if err != nil {
			return inserted, err
		}
		args = args[:0]
		for i, row := range rows[lo:hi] {
			if len(row) != len(columns) {
				return inserted, fmt.Errorf("%s: insert: row %d has %d values, want %d", d.Name(), lo+i, len(row), len(columns))
			}
			args = append(args, row...)
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			return inserted, fmt.Errorf("%s: insert: %w", d.Name(), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		} else {
			inserted += int64(hi - lo)
		}
	}
	return inserted, nil
}

// BindDateTimes returns rows with the DateTime-typed columns parsed from
// their fixed text form into time.Time, for drivers that bind timestamps
// natively. rows is not modified; unaffected rows are shared.
func BindDateTimes(columns []schema.Column, rows [][]any) ([][]any, error) {
	idx := make([]int, 0, len(columns))
	for i, c := range columns {
		if c.Type.Kind == schema.TypeDateTime {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return rows, nil
	}
	out := make([][]any, len(rows))
	for r, row := range rows {
		cp := append([]any(nil), row...)
		for _, i := range idx {
			s, ok := cp[i].(string)
			if !ok {
				continue
			}
			t, err := time.Parse(schema.DateTimeLayout, s)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r, columns[i].Name, err)
			}
			cp[i] = t
		}
		out[r] = cp
	}
	return out, nil
}

package storage

import (
	"context"
	"fmt"

	"dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// ApplyPlan executes p against repo and returns the updated live definition.
//
// A create plan runs one CREATE TABLE. An evolve plan runs one ALTER TABLE
// per column, in order; when one fails, the columns added before it remain
// in the store and in the returned definition, alongside the error.
func ApplyPlan(ctx context.Context, repo Repository, p schema.Plan, live *schema.TableDefinition) (*schema.TableDefinition, error) {
	d := repo.Dialect()

	if p.Create {
		t := ddl.TableFromPlan(d, p)
		stmt, err := ddl.BuildCreateTableSQL(d, t)
		if err != nil {
			return live, err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return live, fmt.Errorf("create table %s: %w", p.Table, err)
		}
		def := &schema.TableDefinition{Name: p.Table}
		for _, c := range t.Columns {
			def.AddColumn(c.Name, c.SQLType)
		}
		return def, nil
	}

	if live == nil {
		live = &schema.TableDefinition{Name: p.Table}
	}
	for _, c := range p.Columns {
		col := ddl.ColumnDefFor(d, c)
		stmt, err := ddl.BuildAddColumnSQL(d, p.Table, col)
		if err != nil {
			return live, err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return live, fmt.Errorf("add column %s.%s: %w", p.Table, c.Name, err)
		}
		live.AddColumn(col.Name, col.SQLType)
	}
	return live, nil
}

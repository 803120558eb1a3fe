package schema

import (
	"fmt"
	"strings"
)

// ColumnDef is one column of a live table as the store reports it.
type ColumnDef struct {
	Name    string
	SQLType string
}

// TableDefinition is the live layout of a managed table, in table order and
// including the system columns.
type TableDefinition struct {
	Name    string
	Columns []ColumnDef
}

// Has reports whether the table has a column named name. With fold set the
// comparison ignores case, matching stores whose identifiers are
// case-insensitive.
func (t *TableDefinition) Has(name string, fold bool) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c.Name == name || (fold && strings.EqualFold(c.Name, name)) {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the definition.
func (t *TableDefinition) AddColumn(name, sqlType string) {
	t.Columns = append(t.Columns, ColumnDef{Name: name, SQLType: sqlType})
}

// Column is a required column: sanitized name plus mapped storage type.
type Column struct {
	Name string
	Type StorageType
}

// RequiredColumns maps coerced columns to required columns, in order.
func RequiredColumns(cols []CoercedColumn) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = Column{Name: c.Name, Type: c.Type()}
	}
	return out
}

// Plan is the structural change that brings a table in line with a dataset.
// When Create is set, Columns are the user columns of the new table (the
// system columns are added by the renderer); otherwise Columns are appended
// to the existing table in order.
type Plan struct {
	Table   string
	Create  bool
	Columns []Column
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool { return !p.Create && len(p.Columns) == 0 }

// ReconcileOptions tune the comparison with the live table.
type ReconcileOptions struct {
	// FoldCase compares identifiers case-insensitively.
	FoldCase bool
}

// Reconcile compares required columns with the live table and returns the
// minimal plan. live == nil means the table does not exist. Reserved column
// names never produce DDL, and existing columns are never retyped.
func Reconcile(table string, required []Column, live *TableDefinition, opt ReconcileOptions) (Plan, error) {
	if strings.TrimSpace(table) == "" {
		return Plan{}, fmt.Errorf("schema: empty table name")
	}
	if err := checkDuplicates(required, opt.FoldCase); err != nil {
		return Plan{}, err
	}

	p := Plan{Table: table, Create: live == nil}
	for _, c := range required {
		name := SanitizeIdentifier(c.Name)
		if IsReservedFold(name, opt.FoldCase) {
			continue
		}
		if !p.Create && live.Has(name, opt.FoldCase) {
			continue
		}
		p.Columns = append(p.Columns, Column{Name: name, Type: c.Type})
	}
	return p, nil
}

// WritableColumns drops the columns that would land on a system column; the
// store fills id and created_at itself. fold follows ReconcileOptions.FoldCase.
func WritableColumns(cols []CoercedColumn, fold bool) (kept []CoercedColumn, dropped []string) {
	kept = make([]CoercedColumn, 0, len(cols))
	for _, c := range cols {
		if IsReservedFold(c.Name, fold) {
			dropped = append(dropped, c.Name)
			continue
		}
		kept = append(kept, c)
	}
	return kept, dropped
}

func checkDuplicates(cols []Column, fold bool) error {
	seen := make(map[string]string, len(cols))
	for _, c := range cols {
		key := SanitizeIdentifier(c.Name)
		if fold {
			key = strings.ToLower(key)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("schema: columns %q and %q map to the same identifier", prev, c.Name)
		}
		seen[key] = c.Name
	}
	return nil
}

// Package ddl defines a small, backend-neutral model for SQL DDL and the
// helpers that render CREATE TABLE, ALTER TABLE ... ADD and multi-row INSERT
// statements from it.
//
// The model stays generic; every dialect-specific decision (identifier
// quoting, column types, the identity column, placeholder syntax) is taken
// from a Dialect supplied by the backend package, e.g.
// internal/storage/mysql/ddl.
package ddl

import (
	"fmt"
	"strings"

	"dbingest/internal/schema"
)

// TableFromPlan renders the table a create Plan describes: the identity
// column, the plan's columns in order, then the created-at column.
func TableFromPlan(d Dialect, p schema.Plan) TableDef {
	t := TableDef{FQN: p.Table, Columns: make([]ColumnDef, 0, len(p.Columns)+2)}
	t.Columns = append(t.Columns, d.IdentityColumn())
	for _, c := range p.Columns {
		t.Columns = append(t.Columns, ColumnDefFor(d, c))
	}
	t.Columns = append(t.Columns, d.CreatedAtColumn())
	return t
}

// ColumnDefFor renders one user column. User columns are always nullable.
func ColumnDefFor(d Dialect, c schema.Column) ColumnDef {
	return ColumnDef{Name: c.Name, SQLType: d.ColumnType(c.Type), Nullable: true}
}

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Rules:
//
//   - t.FQN must be non-empty; dotted names are quoted segment by segment.
//
//   - Each column must have a non-empty Name and SQLType.
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//   - Columns with PrimaryKey == true are collected into a trailing
//     PRIMARY KEY (...) clause.
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)

	for _, c := range t.Columns {
		def, err := renderColumn(d, fqn, c)
		if err != nil {
			return "", err
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(strings.TrimSpace(c.Name)))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(d, fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumnSQL renders an ALTER TABLE statement appending one column.
func BuildAddColumnSQL(d Dialect, fqn string, c ColumnDef) (string, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name())
	}
	def, err := renderColumn(d, fqn, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ALTER TABLE %s %s %s", QuoteFQN(d, fqn), d.AddColumnClause(), def), nil
}

func renderColumn(d Dialect, fqn string, c ColumnDef) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name(), fqn)
	}
	typ := strings.TrimSpace(c.SQLType)
	if typ == "" {
		return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name(), name)
	}

	var sb strings.Builder
	sb.WriteString(d.QuoteIdent(name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	return sb.String(), nil
}

// QuoteFQN quotes every dot-separated segment of fqn.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// SplitFQN splits "schema.table" into its parts; schema is empty when fqn has
// no dot.
func SplitFQN(fqn string) (schemaName, table string) {
	fqn = strings.TrimSpace(fqn)
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[:i], fqn[i+1:]
	}
	return "", fqn
}

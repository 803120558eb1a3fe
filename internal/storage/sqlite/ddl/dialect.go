// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// MaxBindParams is SQLITE_MAX_VARIABLE_NUMBER of modern SQLite builds.
const MaxBindParams = 32766

// Dialect renders DDL and inserts for SQLite.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) ColumnType(t schema.StorageType) string { return MapType(t) }

// IdentityColumn is an INTEGER primary key, which SQLite aliases to the
// rowid and fills in on insert.
func (Dialect) IdentityColumn() gddl.ColumnDef {
	return gddl.ColumnDef{Name: schema.IdentityColumn, SQLType: "INTEGER", PrimaryKey: true}
}

func (Dialect) CreatedAtColumn() gddl.ColumnDef {
	return gddl.ColumnDef{
		Name:     schema.CreatedAtColumn,
		SQLType:  "TIMESTAMP",
		Nullable: true,
		Default:  "CURRENT_TIMESTAMP",
	}
}

func (Dialect) AddColumnClause() string { return "ADD COLUMN" }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) MaxBindParams() int { return MaxBindParams }

func (Dialect) FoldsIdentifiers() bool { return true }

// MapType maps a storage type into a SQLite column type.
//
// SQLite supports dynamic typing, so this mapping prefers canonical affinities:
//   - integer widths, boolean -> INTEGER
//   - double                  -> REAL
//   - datetime                -> TEXT (the fixed datetime text)
//   - text tiers, char        -> TEXT
func MapType(t schema.StorageType) string {
	switch t.Kind {
	case schema.TypeInteger, schema.TypeBoolean:
		return "INTEGER"
	case schema.TypeDouble:
		return "REAL"
	default:
		return "TEXT"
	}
}

// Package ddl holds the MySQL rendering of the generic ddl model.
package ddl

import (
	"strings"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// MaxBindParams is the prepared-statement placeholder limit of MySQL.
const MaxBindParams = 65535

// Dialect renders DDL and inserts for MySQL.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return "mysql" }

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func (Dialect) QuoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

// ColumnType renders t; MySQL has a native type for every storage type.
func (Dialect) ColumnType(t schema.StorageType) string { return MapType(t) }

func (Dialect) IdentityColumn() gddl.ColumnDef {
	return gddl.ColumnDef{Name: schema.IdentityColumn, SQLType: "INT AUTO_INCREMENT", PrimaryKey: true}
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

// MapType maps a storage type to its MySQL column type.
//
//	integer  -> TINYINT | SMALLINT | MEDIUMINT | INT | BIGINT
//	double   -> DOUBLE
//	boolean  -> TINYINT(1)
//	datetime -> DATETIME
//	text     -> TEXT | MEDIUMTEXT | LONGTEXT
//	char     -> VARCHAR(n)
func MapType(t schema.StorageType) string { return t.String() }

// Package ddl contains MSSQL-specific helpers for generating DDL.
package ddl

import (
	"strconv"
	"strings"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// MaxBindParams is the SQL Server limit on parameters per request.
const MaxBindParams = 2100

// Dialect renders DDL and inserts for SQL Server.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return "mssql" }

// QuoteIdent uses SQL Server bracket quoting.
func (Dialect) QuoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}

func (Dialect) ColumnType(t schema.StorageType) string { return MapType(t) }

func (Dialect) IdentityColumn() gddl.ColumnDef {
	return gddl.ColumnDef{Name: schema.IdentityColumn, SQLType: "INT IDENTITY(1,1)", PrimaryKey: true}
}

func (Dialect) CreatedAtColumn() gddl.ColumnDef {
	return gddl.ColumnDef{
		Name:     schema.CreatedAtColumn,
		SQLType:  "DATETIME2",
		Nullable: true,
		Default:  "SYSDATETIME()",
	}
}

// AddColumnClause: T-SQL omits the COLUMN keyword.
func (Dialect) AddColumnClause() string { return "ADD" }

func (Dialect) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }

// MaxBindParams leaves headroom under the 2100 limit for the driver.
func (Dialect) MaxBindParams() int { return MaxBindParams - 1 }

func (Dialect) FoldsIdentifiers() bool { return true }

// MapType maps a storage type into a SQL Server column type.
//
//	TINYINT           -> SMALLINT (SQL Server TINYINT is unsigned)
//	SMALLINT/INT      -> as is, MEDIUMINT -> INT
//	BIGINT            -> BIGINT
//	double            -> FLOAT
//	boolean           -> BIT
//	datetime          -> DATETIME2(0)
//	text (any tier)   -> NVARCHAR(MAX)
//	char(n)           -> NVARCHAR(n)
func MapType(t schema.StorageType) string {
	switch t.Kind {
	case schema.TypeInteger:
		switch t.Width {
		case schema.TinyInt, schema.SmallInt:
			return "SMALLINT"
		case schema.MediumInt, schema.RegularInt:
			return "INT"
		default:
			return "BIGINT"
		}
	case schema.TypeDouble:
		return "FLOAT"
	case schema.TypeBoolean:
		return "BIT"
	case schema.TypeDateTime:
		return "DATETIME2(0)"
	case schema.TypeChar:
		return "NVARCHAR(" + strconv.Itoa(t.Length) + ")"
	default:
		return "NVARCHAR(MAX)"
	}
}

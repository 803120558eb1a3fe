// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"strconv"
	"strings"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
)

// MaxBindParams is the wire-protocol limit on parameters per statement.
const MaxBindParams = 65535

// Dialect renders DDL and inserts for Postgres.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return "postgres" }

func (Dialect) QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func (Dialect) ColumnType(t schema.StorageType) string { return MapType(t) }

func (Dialect) IdentityColumn() gddl.ColumnDef {
	return gddl.ColumnDef{
		Name:       schema.IdentityColumn,
		SQLType:    "INTEGER GENERATED BY DEFAULT AS IDENTITY",
		PrimaryKey: true,
	}
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

func (Dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (Dialect) MaxBindParams() int { return MaxBindParams }

// FoldsIdentifiers is false: quoted identifiers are case-sensitive.
func (Dialect) FoldsIdentifiers() bool { return false }

// MapType maps a storage type into a Postgres SQL type. Postgres has no
// one-byte or three-byte integers, so widths round up.
//
//	TINYINT, SMALLINT -> SMALLINT
//	MEDIUMINT, INT    -> INTEGER
//	BIGINT            -> BIGINT
//	double            -> DOUBLE PRECISION
//	boolean           -> BOOLEAN
//	datetime          -> TIMESTAMP
//	text (any tier)   -> TEXT
//	char(n)           -> VARCHAR(n)
func MapType(t schema.StorageType) string {
	switch t.Kind {
	case schema.TypeInteger:
		switch t.Width {
		case schema.TinyInt, schema.SmallInt:
			return "SMALLINT"
		case schema.MediumInt, schema.RegularInt:
			return "INTEGER"
		default:
			return "BIGINT"
		}
	case schema.TypeDouble:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeDateTime:
		return "TIMESTAMP"
	case schema.TypeChar:
		return "VARCHAR(" + strconv.Itoa(t.Length) + ")"
	default:
		return "TEXT"
	}
}

package ddl

import "dbingest/internal/schema"

// ColumnDef describes a single column in a table definition. Names are
// unquoted; quoting happens at render time through the Dialect.
//
// Fields:
//   - Name: column name
//   - SQLType: target SQL type (e.g., TEXT, BIGINT, DATETIME2)
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., CURRENT_TIMESTAMP)
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name (FQN, optionally "schema.table") and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect is what a backend contributes to DDL and insert rendering.
type Dialect interface {
	// Name is the backend kind ("mysql", "postgres", ...).
	Name() string
	// QuoteIdent quotes a single identifier.
	QuoteIdent(id string) string
	// ColumnType renders a storage type.
	ColumnType(t schema.StorageType) string
	// IdentityColumn is the surrogate key column of a managed table.
	IdentityColumn() ColumnDef
	// CreatedAtColumn is the trailing insert-time column.
	CreatedAtColumn() ColumnDef
	// AddColumnClause is the ALTER TABLE keyword(s) that add a column.
	AddColumnClause() string
	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder(n int) string
	// MaxBindParams is the most parameters one statement may bind.
	MaxBindParams() int
	// FoldsIdentifiers reports whether column names compare case-insensitively.
	FoldsIdentifiers() bool
}

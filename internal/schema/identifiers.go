// Package schema turns a dataset into storage terms: it normalizes column
// values (Coercer), maps each column to a concrete StorageType (MapType) and
// plans the minimal structural change against a live table (Reconcile).
//
// Everything in this package is pure; applying a Plan to a store is the job
// of internal/storage.
package schema

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Columns every managed table carries besides the user columns.
const (
	IdentityColumn  = "id"
	CreatedAtColumn = "created_at"
)

var identReplacer = strings.NewReplacer(" ", "_", "-", "_", ".", "_")

// SanitizeIdentifier maps a raw column name to its stored form: the name is
// NFC-normalized and every space, hyphen and period becomes an underscore.
// SanitizeIdentifier(SanitizeIdentifier(x)) == SanitizeIdentifier(x).
func SanitizeIdentifier(name string) string {
	return identReplacer.Replace(norm.NFC.String(name))
}

// IsReserved reports whether name (after sanitization) is one of the system
// columns.
func IsReserved(name string) bool { return IsReservedFold(name, false) }

// IsReservedFold is IsReserved for stores that compare identifiers without
// case when fold is set, so "ID" and "Created_At" are reserved there too.
func IsReservedFold(name string, fold bool) bool {
	n := SanitizeIdentifier(name)
	if fold {
		return strings.EqualFold(n, IdentityColumn) || strings.EqualFold(n, CreatedAtColumn)
	}
	return n == IdentityColumn || n == CreatedAtColumn
}

// IsPlaceholder reports whether name is an index-placeholder header such as
// "Unnamed: 3". Readers emit these for blank header cells.
func IsPlaceholder(name string) bool {
	return strings.Contains(strings.ToLower(name), "unnamed")
}

// TableNameFromPath derives a table name from a file path: the base name
// without its extension, sanitized.
func TableNameFromPath(path string) string {
	base := filepath.Base(path)
	return SanitizeIdentifier(strings.TrimSuffix(base, filepath.Ext(base)))
}

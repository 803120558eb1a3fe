package schema

import (
	"strings"

	"github.com/zeebo/xxh3"
)

// Fingerprint hashes the ordered column layout of t. Two definitions with the
// same names and types in the same order hash equal; a nil definition
// hashes to zero.
func Fingerprint(t *TableDefinition) uint64 {
	if t == nil {
		return 0
	}
	var b strings.Builder
	for _, c := range t.Columns {
		b.WriteString(strings.ToLower(c.Name))
		b.WriteByte(0)
		b.WriteString(strings.ToUpper(c.SQLType))
		b.WriteByte('\n')
	}
	return xxh3.HashString(b.String())
}

package ddl

import (
	"fmt"
	"strings"
)

// BuildInsertSQL renders a multi-row INSERT for rows rows of the given
// columns, with placeholders numbered from 1.
func BuildInsertSQL(d Dialect, fqn string, columns []string, rows int) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%s insert: no columns", d.Name())
	}
	if rows <= 0 {
		return "", fmt.Errorf("%s insert: rows must be > 0", d.Name())
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(QuoteFQN(d, fqn))
	sb.WriteString(" (")
	for i, c := range columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(d.QuoteIdent(c))
	}
	sb.WriteString(") VALUES ")

	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for i := range columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

// RowsPerStatement returns how many rows of width columns fit in one
// statement under the dialect's bind-parameter cap (at least 1).
func RowsPerStatement(d Dialect, width int) int {
	if width <= 0 {
		return 1
	}
	n := d.MaxBindParams() / width
	if n < 1 {
		return 1
	}
	return n
}

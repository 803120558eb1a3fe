// Package dataset defines the in-memory table consumed by one ingestion run.
//
// A Dataset is an ordered list of named columns of equal length. Every column
// carries a declared value Kind that plays the role of a reader's runtime
// dtype: it says what the reader believes the column holds, and the schema
// package decides from it (and from the values themselves) how the column is
// stored. Missing entries are nil; a floating-point NaN is also treated as
// missing.
package dataset

import (
	"fmt"
	"math"
)

// Kind is the declared value kind of a column.
type Kind int

const (
	// KindObject holds heterogeneous values (strings, mixed scalars, maps...).
	KindObject Kind = iota
	// KindInt holds integers only, with no missing entries.
	KindInt
	// KindFloat holds numbers, possibly with missing entries.
	KindFloat
	// KindBool holds booleans only, with no missing entries.
	KindBool
	// KindTime holds time.Time values.
	KindTime
	// KindDuration holds time.Duration values.
	KindDuration
	// KindCategorical holds labels from a closed enumeration.
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindDuration:
		return "duration"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column is one named column of a Dataset.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of entries in the column.
func (c Column) Len() int { return len(c.Values) }

// Present returns the number of non-missing entries.
func (c Column) Present() int {
	n := 0
	for _, v := range c.Values {
		if !IsMissing(v) {
			n++
		}
	}
	return n
}

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	columns []Column
	rows    int
}

// New builds a Dataset from cols. All columns must have the same length.
func New(cols ...Column) (*Dataset, error) {
	d := &Dataset{columns: make([]Column, 0, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = len(c.Values)
		} else if len(c.Values) != d.rows {
			return nil, fmt.Errorf("dataset: column %q has %d values, want %d", c.Name, len(c.Values), d.rows)
		}
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the row count.
func (d *Dataset) Len() int { return d.rows }

// Width returns the column count.
func (d *Dataset) Width() int { return len(d.columns) }

// Columns returns the columns in order. The slice must not be modified.
func (d *Dataset) Columns() []Column { return d.columns }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the first column named name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Filter returns a new Dataset with only the columns for which keep reports
// true. Row count is preserved even when no column survives.
func (d *Dataset) Filter(keep func(Column) bool) *Dataset {
	out := &Dataset{columns: make([]Column, 0, len(d.columns)), rows: d.rows}
	for _, c := range d.columns {
		if keep(c) {
			out.columns = append(out.columns, c)
		}
	}
	return out
}

// IsMissing reports whether v is a missing entry: nil or a NaN float.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

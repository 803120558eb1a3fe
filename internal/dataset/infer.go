package dataset

import (
	"encoding/json"
	"strings"
	"time"
)

// InferKind returns the Kind a reader would assign to values.
//
// The rules follow the dtype promotion of dataframe readers:
//   - integers with a missing entry promote to KindFloat (values are kept as
//     integers so no precision is lost);
//   - booleans with a missing entry fall back to KindObject;
//   - a column with no present value is KindObject.
func InferKind(values []any) Kind {
	var (
		present, ints, floats, bools, times, durs int
		missing                                   bool
	)
	for _, v := range values {
		if IsMissing(v) {
			missing = true
			continue
		}
		present++
		switch x := v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			ints++
		case float32, float64:
			floats++
		case json.Number:
			if isIntegerLiteral(string(x)) {
				ints++
			} else {
				floats++
			}
		case bool:
			bools++
		case time.Time:
			times++
		case time.Duration:
			durs++
		}
	}

	switch {
	case present == 0:
		return KindObject
	case ints == present:
		if missing {
			return KindFloat
		}
		return KindInt
	case ints+floats == present:
		return KindFloat
	case bools == present:
		if missing {
			return KindObject
		}
		return KindBool
	case times == present:
		return KindTime
	case durs == present:
		return KindDuration
	}
	return KindObject
}

func isIntegerLiteral(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".eE")
}

// Field is one named value of a record handed to a Builder.
type Field struct {
	Name  string
	Value any
}

// Builder assembles a Dataset row by row. Columns appear in first-seen
// order; a record that lacks a column gets a missing entry there.
type Builder struct {
	names []string
	index map[string]int
	cols  [][]any
	rows  int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Declare registers column names up front so they keep this order even if
// the first records do not carry them.
func (b *Builder) Declare(names ...string) {
	for _, n := range names {
		b.column(n)
	}
}

func (b *Builder) column(name string) int {
	if i, ok := b.index[name]; ok {
		return i
	}
	i := len(b.names)
	b.index[name] = i
	b.names = append(b.names, name)
	b.cols = append(b.cols, make([]any, b.rows))
	return i
}

// Add appends one record. A repeated field name within the record keeps the
// last value.
func (b *Builder) Add(fields ...Field) {
	for i := range b.cols {
		b.cols[i] = append(b.cols[i], nil)
	}
	b.rows++
	for _, f := range fields {
		i := b.column(f.Name)
		b.cols[i][b.rows-1] = f.Value
	}
}

// Rows returns the number of records added so far.
func (b *Builder) Rows() int { return b.rows }

// Build returns the Dataset with kinds inferred from the collected values.
func (b *Builder) Build() *Dataset {
	d := &Dataset{columns: make([]Column, len(b.names)), rows: b.rows}
	for i, name := range b.names {
		d.columns[i] = Column{Name: name, Kind: InferKind(b.cols[i]), Values: b.cols[i]}
	}
	return d
}

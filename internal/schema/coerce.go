package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"dbingest/internal/dataset"
)

// DateTimeLayout is the fixed pattern datetime text is parsed from and
// rendered in.
const DateTimeLayout = "2006-01-02 15:04:05"

// CoercedColumn is a column whose values are ready to bind as query
// parameters. Name is the sanitized identifier. Fallback is set when the
// column was degraded to text after a coercion error.
type CoercedColumn struct {
	Name     string
	Values   []any
	Category Category
	Fallback error
}

// Type returns the column's storage type.
func (c CoercedColumn) Type() StorageType { return MapType(c.Category) }

// Coercer normalizes dataset columns. The zero value is not usable; build
// one with NewCoercer.
type Coercer struct {
	log *zap.Logger
}

// NewCoercer returns a Coercer logging fallbacks to log (nil: discard).
func NewCoercer(log *zap.Logger) *Coercer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coercer{log: log}
}

// CoerceAll coerces every column of ds in order.
func (c *Coercer) CoerceAll(ds *dataset.Dataset) []CoercedColumn {
	cols := ds.Columns()
	out := make([]CoercedColumn, len(cols))
	for i, col := range cols {
		out[i] = c.Coerce(col)
	}
	return out
}

// Coerce normalizes one column. It never fails: when the category-specific
// conversion errors (or panics) the whole column falls back to FreeText with
// every present value stringified, and a warning is logged.
func (c *Coercer) Coerce(col dataset.Column) CoercedColumn {
	name := SanitizeIdentifier(col.Name)
	values, kind, err := coerceValues(col)
	if err != nil {
		c.log.Warn("coerce: falling back to text",
			zap.String("column", name),
			zap.Stringer("kind", col.Kind),
			zap.Error(err),
		)
		values, kind = fallbackText(col.Values), FreeText
	}
	return CoercedColumn{
		Name:     name,
		Values:   values,
		Category: measure(kind, values),
		Fallback: err,
	}
}

func coerceValues(col dataset.Column) (values []any, kind CategoryKind, err error) {
	defer func() {
		if r := recover(); r != nil {
			values, kind = nil, FreeText
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	src := col.Values
	if allMissing(src) {
		return cloneValues(src), FreeText, nil
	}

	switch col.Kind {
	case dataset.KindFloat:
		if allIntegral(src) {
			out, err := toInt64s(src)
			return out, NullableInteger, err
		}
		out, err := mapPresent(src, toFloat64)
		return out, FloatingPoint, err

	case dataset.KindCategorical:
		out, err := mapPresent(src, strictText)
		return out, FreeText, err

	case dataset.KindObject:
		work := src
		if anyComposite(src) {
			var err error
			if work, err = mapPresent(src, func(v any) (any, error) {
				if isComposite(v) {
					return strictText(v)
				}
				return v, nil
			}); err != nil {
				return nil, FreeText, err
			}
		}
		if out, ok := parseTimestamps(work); ok {
			return out, DateTimeText, nil
		}
		out, err := mapPresent(work, strictText)
		return out, FreeText, err

	case dataset.KindTime:
		out, err := mapPresent(src, func(v any) (any, error) {
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("value %v (%T) is not a time", v, v)
			}
			return t.Format(DateTimeLayout), nil
		})
		return out, DateTimeText, err

	case dataset.KindDuration:
		out, err := mapPresent(src, func(v any) (any, error) {
			d, ok := v.(time.Duration)
			if !ok {
				return nil, fmt.Errorf("value %v (%T) is not a duration", v, v)
			}
			return strconv.FormatFloat(d.Seconds(), 'f', -1, 64), nil
		})
		return out, DurationText, err

	case dataset.KindBool:
		if err := checkAll(src, func(v any) bool { _, ok := v.(bool); return ok }, "bool"); err != nil {
			return nil, FreeText, err
		}
		return cloneValues(src), Boolean, nil

	case dataset.KindInt:
		out, err := mapPresent(src, toInt64)
		return out, Integer, err
	}

	out, err := mapPresent(src, strictText)
	return out, FreeText, err
}

// parseTimestamps parses every value with DateTimeLayout. It reports false
// when nothing parsed; otherwise failures become missing.
func parseTimestamps(values []any) ([]any, bool) {
	out := make([]any, len(values))
	parsed := 0
	for i, v := range values {
		var (
			t  time.Time
			ok bool
		)
		switch x := v.(type) {
		case time.Time:
			t, ok = x, true
		case string:
			if p, err := time.Parse(DateTimeLayout, x); err == nil {
				t, ok = p, true
			}
		case []byte:
			if p, err := time.Parse(DateTimeLayout, string(x)); err == nil {
				t, ok = p, true
			}
		}
		if ok {
			out[i] = t.Format(DateTimeLayout)
			parsed++
		}
	}
	return out, parsed > 0
}

func measure(kind CategoryKind, values []any) Category {
	c := Category{Kind: kind}
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		c.Present++
		switch kind {
		case Integer, NullableInteger:
			if m := magnitude(v); m > c.MaxMagnitude {
				c.MaxMagnitude = m
			}
		case FreeText, DateTimeText, DurationText:
			s, ok := v.(string)
			if !ok {
				s = lenientText(v)
			}
			if n := utf8.RuneCountInString(s); n > c.MaxLength {
				c.MaxLength = n
			}
		}
	}
	return c
}

func magnitude(v any) uint64 {
	switch x := v.(type) {
	case int:
		return absInt64(int64(x))
	case int8:
		return absInt64(int64(x))
	case int16:
		return absInt64(int64(x))
	case int32:
		return absInt64(int64(x))
	case int64:
		return absInt64(x)
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case uint64:
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return absInt64(n)
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u
		}
	}
	return math.MaxUint64
}

func absInt64(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}

var errNotIntegral = errors.New("value is not an integral number in int64 range")

// toInt64s converts whole-valued numbers to int64; missing stays nil.
func toInt64s(values []any) ([]any, error) {
	return mapPresent(values, func(v any) (any, error) {
		switch x := v.(type) {
		case float64:
			return floatToInt64(x)
		case float32:
			return floatToInt64(float64(x))
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return n, nil
			}
			f, err := x.Float64()
			if err != nil {
				return nil, err
			}
			return floatToInt64(f)
		}
		if isInteger(v) {
			return toInt64(v)
		}
		return nil, fmt.Errorf("%v (%T): %w", v, v, errNotIntegral)
	})
}

// toInt64 widens any integer to int64. A uint64 above the int64 range is
// kept as is.
func toInt64(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return toInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return x, nil
		}
		return int64(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%v (%T) is not an integer", v, v)
}

// toFloat64 turns any number into float64.
func toFloat64(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	}
	if isInteger(v) {
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		switch i := n.(type) {
		case int64:
			return float64(i), nil
		case uint64:
			return float64(i), nil
		}
	}
	return nil, fmt.Errorf("%v (%T) is not a number", v, v)
}

func floatToInt64(f float64) (any, error) {
	if f < -(1<<63) || f >= 1<<63 || math.Trunc(f) != f {
		return nil, fmt.Errorf("%v: %w", f, errNotIntegral)
	}
	return int64(f), nil
}

func allIntegral(values []any) bool {
	for _, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		switch x := v.(type) {
		case float64:
			if math.IsInf(x, 0) || math.Trunc(x) != x {
				return false
			}
		case float32:
			f := float64(x)
			if math.IsInf(f, 0) || math.Trunc(f) != f {
				return false
			}
		case json.Number:
			f, err := x.Float64()
			if err != nil || math.Trunc(f) != f {
				return false
			}
		default:
			if !isInteger(v) {
				return false
			}
		}
	}
	return true
}

func isInteger(v any) bool {
	switch x := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := strconv.ParseInt(string(x), 10, 64)
		return err == nil
	}
	return false
}

func allMissing(values []any) bool {
	for _, v := range values {
		if !dataset.IsMissing(v) {
			return false
		}
	}
	return true
}

func checkAll(values []any, ok func(any) bool, want string) error {
	for i, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		if !ok(v) {
			return fmt.Errorf("row %d: value %v (%T) is not a %s", i, v, v, want)
		}
	}
	return nil
}

// mapPresent applies fn to every present value; missing entries become nil.
func mapPresent(values []any, fn func(any) (any, error)) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if dataset.IsMissing(v) {
			continue
		}
		r, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

func cloneValues(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if !dataset.IsMissing(v) {
			out[i] = v
		}
	}
	return out
}

func anyComposite(values []any) bool {
	for _, v := range values {
		if isComposite(v) {
			return true
		}
	}
	return false
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(time.Time); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Array, reflect.Struct:
		return true
	case reflect.Slice:
		_, isBytes := v.([]byte)
		return !isBytes
	}
	return false
}

// strictText renders v as text, failing on values with no faithful textual
// form (for example a map holding a channel).
func strictText(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return formatFloat(x), nil
	case float32:
		return formatFloat(float64(x)), nil
	case json.Number:
		return x.String(), nil
	case time.Time:
		return x.Format(DateTimeLayout), nil
	case time.Duration:
		return strconv.FormatFloat(x.Seconds(), 'f', -1, 64), nil
	case fmt.Stringer:
		return x.String(), nil
	}
	if isInteger(v) {
		return fmt.Sprint(v), nil
	}
	if isComposite(v) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("render %T: %w", v, err)
		}
		return string(b), nil
	}
	return fmt.Sprint(v), nil
}

func lenientText(v any) string {
	if s, err := strictText(v); err == nil {
		return s.(string)
	}
	return fmt.Sprint(v)
}

// fallbackText stringifies every present value without failing.
func fallbackText(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if !dataset.IsMissing(v) {
			out[i] = lenientText(v)
		}
	}
	return out
}

func formatFloat(f float64) string {
	if math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

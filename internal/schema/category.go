package schema

import "fmt"

// CategoryKind is the semantic category a coerced column falls into.
type CategoryKind int

const (
	FreeText CategoryKind = iota
	Integer
	NullableInteger
	FloatingPoint
	Boolean
	DateTimeText
	DurationText
)

func (k CategoryKind) String() string {
	switch k {
	case FreeText:
		return "free_text"
	case Integer:
		return "integer"
	case NullableInteger:
		return "nullable_integer"
	case FloatingPoint:
		return "floating_point"
	case Boolean:
		return "boolean"
	case DateTimeText:
		return "datetime_text"
	case DurationText:
		return "duration_text"
	default:
		return fmt.Sprintf("category(%d)", int(k))
	}
}

// Category is the outcome of coercing one column: its semantic kind plus the
// extrema the type mapper needs. MaxMagnitude is only meaningful for the
// integer kinds and MaxLength (in runes) for the textual ones.
type Category struct {
	Kind         CategoryKind
	Present      int
	MaxMagnitude uint64
	MaxLength    int
}

// HasValues reports whether at least one non-missing value was observed.
func (c Category) HasValues() bool { return c.Present > 0 }

// IsInteger reports whether the category maps to an integer storage type.
func (c Category) IsInteger() bool {
	return c.Kind == Integer || c.Kind == NullableInteger
}

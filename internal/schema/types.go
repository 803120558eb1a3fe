package schema

import "fmt"

// Upper bounds (inclusive) of the signed integer widths.
const (
	MaxTinyInt   = 127
	MaxSmallInt  = 32767
	MaxMediumInt = 8388607
	MaxInt       = 2147483647
)

// Upper bounds (inclusive, in characters) of the text tiers.
const (
	MaxText       = 65535
	MaxMediumText = 16777215
)

// DefaultCharLength is the length of the bounded string type used for
// columns that never held a value.
const DefaultCharLength = 255

// TypeKind enumerates the storage type families.
type TypeKind int

const (
	TypeInteger TypeKind = iota + 1
	TypeDouble
	TypeBoolean
	TypeDateTime
	TypeText
	TypeChar
)

// IntWidth is the width class of an integer column.
type IntWidth int

const (
	TinyInt IntWidth = iota
	SmallInt
	MediumInt
	RegularInt
	BigInt
)

// TextTier is the capacity class of a text column.
type TextTier int

const (
	TextStandard TextTier = iota
	TextMedium
	TextLong
)

// StorageType is a dialect-neutral column type. Backends render it to SQL.
type StorageType struct {
	Kind   TypeKind
	Width  IntWidth // TypeInteger
	Tier   TextTier // TypeText
	Length int      // TypeChar
}

// String renders the type in the reference (MySQL) dialect.
func (t StorageType) String() string {
	switch t.Kind {
	case TypeInteger:
		return [...]string{"TINYINT", "SMALLINT", "MEDIUMINT", "INT", "BIGINT"}[t.Width]
	case TypeDouble:
		return "DOUBLE"
	case TypeBoolean:
		return "TINYINT(1)"
	case TypeDateTime:
		return "DATETIME"
	case TypeText:
		return [...]string{"TEXT", "MEDIUMTEXT", "LONGTEXT"}[t.Tier]
	case TypeChar:
		return fmt.Sprintf("VARCHAR(%d)", t.Length)
	}
	return fmt.Sprintf("type(%d)", int(t.Kind))
}

// IntegerWidthFor returns the narrowest width holding magnitude m.
func IntegerWidthFor(m uint64) IntWidth {
	switch {
	case m <= MaxTinyInt:
		return TinyInt
	case m <= MaxSmallInt:
		return SmallInt
	case m <= MaxMediumInt:
		return MediumInt
	case m <= MaxInt:
		return RegularInt
	}
	return BigInt
}

// TextTierFor returns the smallest tier holding n characters.
func TextTierFor(n int) TextTier {
	switch {
	case n <= MaxText:
		return TextStandard
	case n <= MaxMediumText:
		return TextMedium
	}
	return TextLong
}

// MapType maps a coerced column's category to its storage type. It is pure:
// the same Category always yields the same StorageType.
func MapType(c Category) StorageType {
	switch c.Kind {
	case DateTimeText:
		return StorageType{Kind: TypeDateTime}
	case Boolean:
		return StorageType{Kind: TypeBoolean}
	case Integer, NullableInteger:
		return StorageType{Kind: TypeInteger, Width: IntegerWidthFor(c.MaxMagnitude)}
	case FloatingPoint:
		return StorageType{Kind: TypeDouble}
	}
	if !c.HasValues() {
		return StorageType{Kind: TypeChar, Length: DefaultCharLength}
	}
	return StorageType{Kind: TypeText, Tier: TextTierFor(c.MaxLength)}
}

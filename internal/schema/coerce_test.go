package schema

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"dbingest/internal/dataset"
)

type label string

func (l label) String() string { return "label:" + string(l) }

func TestCoerceCategories(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		col      dataset.Column
		wantKind CategoryKind
		want     []any
	}{
		{
			name:     "all missing",
			col:      dataset.Column{Kind: dataset.KindObject, Values: []any{nil, math.NaN()}},
			wantKind: FreeText,
			want:     []any{nil, nil},
		},
		{
			name:     "integral floats",
			col:      dataset.Column{Kind: dataset.KindFloat, Values: []any{1.0, nil, 300.0}},
			wantKind: NullableInteger,
			want:     []any{int64(1), nil, int64(300)},
		},
		{
			name:     "fractional floats",
			col:      dataset.Column{Kind: dataset.KindFloat, Values: []any{1.5, math.NaN()}},
			wantKind: FloatingPoint,
			want:     []any{1.5, nil},
		},
		{
			name:     "categorical",
			col:      dataset.Column{Kind: dataset.KindCategorical, Values: []any{label("a"), "b"}},
			wantKind: FreeText,
			want:     []any{"label:a", "b"},
		},
		{
			name:     "object datetimes",
			col:      dataset.Column{Kind: dataset.KindObject, Values: []any{"2024-01-02 03:04:05", "garbage", nil}},
			wantKind: DateTimeText,
			want:     []any{"2024-01-02 03:04:05", nil, nil},
		},
		{
			name:     "object free text",
			col:      dataset.Column{Kind: dataset.KindObject, Values: []any{"x", 12, true, nil}},
			wantKind: FreeText,
			want:     []any{"x", "12", "true", nil},
		},
		{
			name:     "composite values",
			col:      dataset.Column{Kind: dataset.KindObject, Values: []any{[]any{1, 2}, map[string]any{"k": "v"}}},
			wantKind: FreeText,
			want:     []any{"[1,2]", `{"k":"v"}`},
		},
		{
			name:     "native time",
			col:      dataset.Column{Kind: dataset.KindTime, Values: []any{ts, nil}},
			wantKind: DateTimeText,
			want:     []any{"2024-03-01 12:30:00", nil},
		},
		{
			name:     "durations",
			col:      dataset.Column{Kind: dataset.KindDuration, Values: []any{90 * time.Second, 1500 * time.Millisecond, nil}},
			wantKind: DurationText,
			want:     []any{"90", "1.5", nil},
		},
		{
			name:     "bools",
			col:      dataset.Column{Kind: dataset.KindBool, Values: []any{true, false}},
			wantKind: Boolean,
			want:     []any{true, false},
		},
		{
			name:     "ints",
			col:      dataset.Column{Kind: dataset.KindInt, Values: []any{int64(-40000), 7}},
			wantKind: Integer,
			want:     []any{int64(-40000), int64(7)},
		},
		{
			name:     "json integers",
			col:      dataset.Column{Kind: dataset.KindInt, Values: []any{json.Number("12"), nil, int16(3)}},
			wantKind: Integer,
			want:     []any{int64(12), nil, int64(3)},
		},
		{
			name:     "json integral floats",
			col:      dataset.Column{Kind: dataset.KindFloat, Values: []any{json.Number("4"), json.Number("5.0")}},
			wantKind: NullableInteger,
			want:     []any{int64(4), int64(5)},
		},
		{
			name:     "json fractional floats",
			col:      dataset.Column{Kind: dataset.KindFloat, Values: []any{json.Number("2.5"), json.Number("3"), float32(0.5)}},
			wantKind: FloatingPoint,
			want:     []any{2.5, 3.0, 0.5},
		},
	}
	c := NewCoercer(nil)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.col.Name = "col"
			got := c.Coerce(tt.col)
			if got.Category.Kind != tt.wantKind {
				t.Fatalf("Coerce().Category.Kind = %v, want %v", got.Category.Kind, tt.wantKind)
			}
			if diff := cmp.Diff(tt.want, got.Values); diff != "" {
				t.Fatalf("Coerce().Values diff (-want +got):\n%s", diff)
			}
			if got.Fallback != nil {
				t.Fatalf("Coerce().Fallback = %v, want nil", got.Fallback)
			}
		})
	}
}

func TestAllIntegralFloatMapsToInteger(t *testing.T) {
	t.Parallel()

	col := dataset.Column{Name: "qty", Kind: dataset.KindFloat, Values: []any{2.0, -40000.0, nil}}
	got := NewCoercer(nil).Coerce(col)
	st := got.Type()
	if st.Kind != TypeInteger {
		t.Fatalf("Type() = %s, want an integer type", st)
	}
	if st.String() != "MEDIUMINT" {
		t.Fatalf("Type() = %s, want MEDIUMINT", st)
	}
}

func TestAllMissingMapsToChar(t *testing.T) {
	t.Parallel()

	col := dataset.Column{Name: "notes", Kind: dataset.KindObject, Values: []any{nil, nil, nil}}
	got := NewCoercer(nil).Coerce(col)
	if s := got.Type().String(); s != "VARCHAR(255)" {
		t.Fatalf("Type() = %s, want VARCHAR(255)", s)
	}
}

func TestCoerceFallsBackWholeColumn(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	c := NewCoercer(zap.New(core))

	// Declared int but holding a string: the int branch rejects it.
	col := dataset.Column{Name: "mixed col", Kind: dataset.KindInt, Values: []any{1, "two", nil}}
	got := c.Coerce(col)

	if got.Fallback == nil {
		t.Fatal("Coerce().Fallback = nil, want error")
	}
	if got.Category.Kind != FreeText {
		t.Fatalf("Coerce().Category.Kind = %v, want free_text", got.Category.Kind)
	}
	if diff := cmp.Diff([]any{"1", "two", nil}, got.Values); diff != "" {
		t.Fatalf("fallback values diff (-want +got):\n%s", diff)
	}
	if got.Name != "mixed_col" {
		t.Fatalf("Coerce().Name = %q, want mixed_col", got.Name)
	}
	if n := logs.FilterMessage("coerce: falling back to text").Len(); n != 1 {
		t.Fatalf("warn logs = %d, want 1", n)
	}
}

func TestCoerceOutOfRangeFloatFallsBack(t *testing.T) {
	t.Parallel()

	col := dataset.Column{Name: "big", Kind: dataset.KindFloat, Values: []any{1e20}}
	got := NewCoercer(nil).Coerce(col)
	if got.Fallback == nil || got.Category.Kind != FreeText {
		t.Fatalf("Coerce() = %+v, want text fallback", got.Category)
	}
	if got.Values[0] != "100000000000000000000" {
		t.Fatalf("Coerce().Values[0] = %v", got.Values[0])
	}
}

func TestCoercedJSONCatalogValuesAreDriverTypes(t *testing.T) {
	t.Parallel()

	b := dataset.NewBuilder()
	b.Add(dataset.Field{Name: "days_on_shelf", Value: json.Number("3")}, dataset.Field{Name: "price_L", Value: json.Number("2.5")})
	b.Add(dataset.Field{Name: "days_on_shelf", Value: json.Number("10")}, dataset.Field{Name: "price_L", Value: json.Number("4")})

	for _, col := range NewCoercer(nil).CoerceAll(b.Build()) {
		for i, v := range col.Values {
			switch v.(type) {
			case int64, float64:
			default:
				t.Fatalf("%s[%d] = %v (%T), want int64 or float64", col.Name, i, v, v)
			}
		}
	}
}

func TestCoerceDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []any{1.0, 2.0}
	NewCoercer(nil).Coerce(dataset.Column{Name: "x", Kind: dataset.KindFloat, Values: in})
	if in[0] != 1.0 {
		t.Fatalf("input mutated: %v", in)
	}
}

func TestMeasureTextLengthInRunes(t *testing.T) {
	t.Parallel()

	got := NewCoercer(nil).Coerce(dataset.Column{Name: "s", Kind: dataset.KindObject, Values: []any{"héllo", "ab"}})
	if got.Category.MaxLength != 5 || got.Category.Present != 2 {
		t.Fatalf("Category = %+v, want MaxLength 5 Present 2", got.Category)
	}
}

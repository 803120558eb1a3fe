package dataset

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestInferKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []any
		want   Kind
	}{
		{"empty", nil, KindObject},
		{"all missing", []any{nil, math.NaN()}, KindObject},
		{"ints", []any{int64(1), 2, uint8(3)}, KindInt},
		{"ints with missing promote to float", []any{int64(1), nil}, KindFloat},
		{"mixed numbers", []any{1, 2.5}, KindFloat},
		{"json numbers", []any{json.Number("1"), json.Number("2")}, KindInt},
		{"json fractional", []any{json.Number("1"), json.Number("2.5")}, KindFloat},
		{"bools", []any{true, false}, KindBool},
		{"bools with missing", []any{true, nil}, KindObject},
		{"bool and int", []any{true, 1}, KindObject},
		{"times", []any{time.Now(), nil}, KindTime},
		{"durations", []any{time.Second}, KindDuration},
		{"strings", []any{"a", 1}, KindObject},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := InferKind(tt.values); got != tt.want {
				t.Fatalf("InferKind(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestNewRejectsRaggedColumns(t *testing.T) {
	t.Parallel()

	_, err := New(
		Column{Name: "a", Values: []any{1, 2}},
		Column{Name: "b", Values: []any{1}},
	)
	if err == nil {
		t.Fatal("New() error = nil, want length mismatch")
	}
}

func TestBuilderFirstSeenOrder(t *testing.T) {
	t.Parallel()

	b := NewBuilder()
	b.Add(Field{"a", 1}, Field{"b", "x"})
	b.Add(Field{"c", true}, Field{"a", 2})
	d := b.Build()

	if got, want := d.Names(), []string{"a", "b", "c"}; !cmp.Equal(got, want) {
		t.Fatalf("Names() diff (-got +want):\n%s", cmp.Diff(got, want))
	}
	if d.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", d.Len())
	}
	c, _ := d.Column("c")
	if diff := cmp.Diff([]any{nil, true}, c.Values); diff != "" {
		t.Fatalf("column c values diff (-want +got):\n%s", diff)
	}
	if c.Kind != KindObject {
		t.Fatalf("column c kind = %v, want object", c.Kind)
	}
	a, _ := d.Column("a")
	if a.Kind != KindInt {
		t.Fatalf("column a kind = %v, want int", a.Kind)
	}
}

func TestFilterKeepsRowCount(t *testing.T) {
	t.Parallel()

	d := MustNew(Column{Name: "Unnamed: 0", Values: []any{1, 2, 3}})
	out := d.Filter(func(Column) bool { return false })
	if out.Width() != 0 || out.Len() != 3 {
		t.Fatalf("Filter() width=%d len=%d, want 0 and 3", out.Width(), out.Len())
	}
}

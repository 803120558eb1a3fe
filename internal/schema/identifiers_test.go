package schema

import "testing"

func TestSanitizeIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"price", "price"},
		{"unit price", "unit_price"},
		{"days-on.shelf", "days_on_shelf"},
		{"a. b", "a__b"},
		{"Café", "Café"},
		{"", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := SanitizeIdentifier(tt.in)
			if got != tt.want {
				t.Fatalf("SanitizeIdentifier(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := SanitizeIdentifier(got); again != got {
				t.Fatalf("SanitizeIdentifier not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestIsReservedAndPlaceholder(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"id", "created_at", "created at", "created-at"} {
		if !IsReserved(name) {
			t.Fatalf("IsReserved(%q) = false, want true", name)
		}
	}
	if IsReserved("ID_number") {
		t.Fatal(`IsReserved("ID_number") = true, want false`)
	}
	if IsReserved("ID") || !IsReservedFold("ID", true) || !IsReservedFold("Created At", true) {
		t.Fatal("IsReservedFold does not follow the fold flag")
	}
	for _, name := range []string{"Unnamed: 0", "unnamed_3", "UNNAMED"} {
		if !IsPlaceholder(name) {
			t.Fatalf("IsPlaceholder(%q) = false, want true", name)
		}
	}
}

func TestTableNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"data/sales 2024.xlsx":   "sales_2024",
		"/tmp/prices-v1.2.json":  "prices_v1_2",
		"catalog.json":           "catalog",
		"dir.with.dots/file.csv": "file",
	}
	for in, want := range tests {
		if got := TableNameFromPath(in); got != want {
			t.Fatalf("TableNameFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

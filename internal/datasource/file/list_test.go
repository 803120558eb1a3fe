package file

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTempFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestReadList(t *testing.T) {
	t.Parallel()

	content := `
# comment line
a.json
   # indented comment
b.json

   c.json
`
	path := writeTempFile(t, t.TempDir(), "list.txt", content)

	got, err := ReadList(path)
	if err != nil {
		t.Fatalf("ReadList error: %v", err)
	}
	if diff := cmp.Diff([]string{"a.json", "b.json", "c.json"}, got); diff != "" {
		t.Fatalf("ReadList() diff (-want +got):\n%s", diff)
	}

	if _, err := ReadList(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("ReadList error = nil for missing file")
	}
}

func TestListDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, n := range []string{"b.json", "a.JSON", "c.xlsx", "notes.txt"} {
		writeTempFile(t, dir, n, "{}")
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := ListDir(dir, ".json")
	if err != nil {
		t.Fatalf("ListDir error: %v", err)
	}
	want := []string{filepath.Join(dir, "a.JSON"), filepath.Join(dir, "b.json")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ListDir() diff (-want +got):\n%s", diff)
	}

	got, err = ListDir(dir, ".csv")
	if err != nil || len(got) != 0 {
		t.Fatalf("ListDir(.csv) = %v, %v; want empty, nil", got, err)
	}

	if _, err := ListDir(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ListDir(missing) error = %v, want os.ErrNotExist", err)
	}
	if _, err := ListDir(filepath.Join(dir, "notes.txt")); err == nil {
		t.Fatal("ListDir(file) error = nil, want not a directory")
	}
}

func TestReadManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeTempFile(t, dir, "uploads.txt", "# table=file\nsales = q1 sales.xlsx\n/abs/inv.xlsx\n")

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest error: %v", err)
	}
	want := []ManifestEntry{
		{Table: "sales", Path: filepath.Join(dir, "q1 sales.xlsx")},
		{Path: "/abs/inv.xlsx"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ReadManifest() diff (-want +got):\n%s", diff)
	}

	bad := writeTempFile(t, dir, "bad.txt", "=x.xlsx\n")
	if _, err := ReadManifest(bad); err == nil {
		t.Fatal("ReadManifest error = nil for empty table name")
	}
}

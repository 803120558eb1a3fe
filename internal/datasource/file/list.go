package file

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ListDir returns the regular files directly inside dir whose extension
// matches one of exts (case-insensitive, with the leading dot), sorted by
// name. A missing dir is an error wrapping os.ErrNotExist; an empty result
// is not an error.
func ListDir(dir string, exts ...string) ([]string, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("list %s: not a directory", dir)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, want := range exts {
			if ext == strings.ToLower(want) {
				out = append(out, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadList reads a text file line by line and returns the non-empty lines
// that do not start with '#', in order.
func ReadList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ManifestEntry pairs a target table with an input file.
type ManifestEntry struct {
	Table string // empty means derive from the file name
	Path  string
}

// ReadManifest parses a multi-upload manifest. Each line is either
// "table=path" or a bare path. Relative paths resolve against the
// manifest's directory.
func ReadManifest(path string) ([]ManifestEntry, error) {
	lines, err := ReadList(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	base := filepath.Dir(path)

	out := make([]ManifestEntry, 0, len(lines))
	for i, line := range lines {
		var e ManifestEntry
		if table, p, ok := strings.Cut(line, "="); ok {
			e.Table, e.Path = strings.TrimSpace(table), strings.TrimSpace(p)
			if e.Table == "" {
				return nil, fmt.Errorf("manifest %s:%d: empty table name", path, i+1)
			}
		} else {
			e.Path = line
		}
		if e.Path == "" {
			return nil, fmt.Errorf("manifest %s:%d: empty path", path, i+1)
		}
		if !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		out = append(out, e)
	}
	return out, nil
}

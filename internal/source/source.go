// Package source turns raw input files into datasets. Each subpackage reads
// one format; this package holds what they share.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"dbingest/internal/dataset"
	"dbingest/internal/datasource"
)

// ErrSourceMissing reports a referenced file or folder that does not exist.
// It matches os.ErrNotExist with errors.Is.
var ErrSourceMissing = fmt.Errorf("source missing: %w", fs.ErrNotExist)

// Reader yields a Dataset from one input.
type Reader interface {
	Read(ctx context.Context, src datasource.Source) (*dataset.Dataset, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, src datasource.Source) (*dataset.Dataset, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
	return f(ctx, src)
}

// Open opens src, mapping a not-exist failure to ErrSourceMissing.
func Open(ctx context.Context, src datasource.Source) (io.ReadCloser, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceMissing, src.Name())
		}
		return nil, err
	}
	return rc, nil
}

// DecodeText returns r as UTF-8 with any byte order mark removed. UTF-16
// input is recognised by its BOM and transcoded.
func DecodeText(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// HeaderNames fills blank header cells with "Unnamed: <index>" and makes
// repeated names unique by suffixing ".1", ".2", ...
func HeaderNames(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int)
	for i, h := range raw {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			suffix[h]++
			name = h + "." + strconv.Itoa(suffix[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

// Package csv reads delimited text files into a dataset. Cells are typed the
// way dataframe readers do it: empty is missing, then integer, float and
// true/false literals, otherwise text.
package csv

import (
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dbingest/internal/dataset"
	"dbingest/internal/datasource"
	"dbingest/internal/source"
)

// Options configures the reader.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// TrimSpace trims surrounding whitespace from every cell.
	TrimSpace bool
}

// Reader implements source.Reader for delimited files.
type Reader struct{ opt Options }

var _ source.Reader = (*Reader)(nil)

// NewReader returns a Reader with the given options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// Read parses the file at src. The first record is the header.
func (r *Reader) Read(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
	rc, err := source.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := r.Decode(ctx, source.DecodeText(rc))
	if err != nil {
		return nil, fmt.Errorf("csv: %s: %w", src.Name(), err)
	}
	return ds, nil
}

// Decode parses delimited text from in.
func (r *Reader) Decode(ctx context.Context, in io.Reader) (*dataset.Dataset, error) {
	cr := stdcsv.NewReader(in)
	if r.opt.Comma != 0 {
		cr.Comma = r.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return dataset.NewBuilder().Build(), nil
	}
	if err != nil {
		return nil, err
	}
	header := make([]string, len(head))
	for i, h := range head {
		header[i] = strings.TrimSpace(h)
	}

	b := dataset.NewBuilder()
	names := source.HeaderNames(header)
	b.Declare(names...)

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(rec) > len(names) {
			header = append(header, make([]string, len(rec)-len(names))...)
			names = source.HeaderNames(header)
		}
		fields := make([]dataset.Field, len(rec))
		for i, cell := range rec {
			if r.opt.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			fields[i] = dataset.Field{Name: names[i], Value: parseCell(cell)}
		}
		b.Add(fields...)
	}
	return b.Build(), nil
}

func parseCell(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch s {
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	}
	return s
}

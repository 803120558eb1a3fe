// Package excel reads one worksheet of an .xlsx workbook into a dataset.
// The first non-empty row is the header; cells keep their spreadsheet type
// (number, boolean, date, text) so column kinds can be inferred downstream.
package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"dbingest/internal/dataset"
	"dbingest/internal/datasource"
	"dbingest/internal/source"
)

// Options configures the reader.
type Options struct {
	// Sheet selects the worksheet by name, or by zero-based index when no
	// sheet carries that name. Empty means the first sheet.
	Sheet string
}

// Reader implements source.Reader for workbooks.
type Reader struct {
	opt Options
}

var _ source.Reader = (*Reader)(nil)

// NewReader returns a Reader with the given options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// Read loads the selected sheet of the workbook at src.
func (r *Reader) Read(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
	rc, err := source.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	f, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, fmt.Errorf("excel: open %s: %w", src.Name(), err)
	}
	defer func() { _ = f.Close() }()

	sheet, err := resolveSheet(f.GetSheetList(), r.opt.Sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: %s: %w", src.Name(), err)
	}
	ds, err := readSheet(ctx, f, sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: %s sheet %q: %w", src.Name(), sheet, err)
	}
	return ds, nil
}

func resolveSheet(sheets []string, want string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if want == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == want {
			return s, nil
		}
	}
	if i, err := strconv.Atoi(want); err == nil && i >= 0 && i < len(sheets) {
		return sheets[i], nil
	}
	return "", fmt.Errorf("sheet %q not found (have %s)", want, strings.Join(sheets, ", "))
}

func readSheet(ctx context.Context, f *excelize.File, sheet string) (*dataset.Dataset, error) {
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	skip := 0
	for skip < len(raw) && isBlankRow(raw[skip]) {
		skip++
	}
	raw = raw[skip:]
	if len(raw) == 0 {
		return dataset.NewBuilder().Build(), nil
	}

	width := 0
	for _, row := range raw {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, raw[0])
	names := source.HeaderNames(header)

	cells := newCellReader(f, sheet)
	b := dataset.NewBuilder()
	b.Declare(names...)
	headerRow := skip + 1 // 1-based sheet row of the header
	for i, row := range raw[1:] {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields := make([]dataset.Field, 0, len(row))
		for col, v := range row {
			val, err := cells.value(col+1, headerRow+1+i, v)
			if err != nil {
				return nil, err
			}
			fields = append(fields, dataset.Field{Name: names[col], Value: val})
		}
		b.Add(fields...)
	}
	return b.Build(), nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// cellReader resolves the typed value of individual cells.
type cellReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool // style id -> is a date format
}

func newCellReader(f *excelize.File, sheet string) *cellReader {
	c := &cellReader{f: f, sheet: sheet, styles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		c.date1904 = *props.Date1904
	}
	return c
}

func (c *cellReader) value(col, row int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := c.f.GetCellType(c.sheet, axis)
	if err != nil {
		return nil, err
	}

	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeError:
		return nil, nil
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return t.UTC(), nil
		}
		return raw, nil
	case excelize.CellTypeInlineString, excelize.CellTypeSharedString:
		return raw, nil
	}

	// Numbers, formulas with cached results and untyped cells.
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if c.isDateCell(axis) {
			return c.toTime(float64(n))
		}
		return n, nil
	}
	if x, err := strconv.ParseFloat(raw, 64); err == nil {
		if c.isDateCell(axis) {
			return c.toTime(x)
		}
		return x, nil
	}
	return raw, nil
}

func (c *cellReader) toTime(serial float64) (any, error) {
	t, err := excelize.ExcelDateToTime(serial, c.date1904)
	if err != nil {
		return serial, nil
	}
	return t.Round(time.Millisecond), nil
}

func (c *cellReader) isDateCell(axis string) bool {
	id, err := c.f.GetCellStyle(c.sheet, axis)
	if err != nil || id == 0 {
		return false
	}
	if isDate, ok := c.styles[id]; ok {
		return isDate
	}
	isDate := false
	if st, err := c.f.GetStyle(id); err == nil {
		isDate = isDateFormat(st.NumFmt, st.CustomNumFmt)
	}
	c.styles[id] = isDate
	return isDate
}

// isDateFormat reports whether a number format renders a date or time.
func isDateFormat(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return isDatePattern(*custom)
	}
	switch {
	case id >= 14 && id <= 22, id >= 45 && id <= 47:
		return true
	}
	return false
}

func isDatePattern(p string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, r := range p {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(r)
		}
	}
	s := strings.ToLower(b.String())
	if strings.Contains(s, "general") {
		return false
	}
	return strings.ContainsAny(s, "ydhs")
}

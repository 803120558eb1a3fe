// Package jsoncatalog flattens per-date product catalogs:
//
//	{"2024-01-01": [{"Product name": "Milk", "Category": "Dairy", "Price": {"L": 2.5}}]}
//
// becomes one row per product with columns date, product_name, category,
// brand and days_on_shelf (only when some product carries them), and one
// price_<unit> column per price unit in first-seen order.
package jsoncatalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"dbingest/internal/dataset"
	"dbingest/internal/datasource"
	"dbingest/internal/source"
)

// Source keys inside a product object.
const (
	keyName     = "Product name"
	keyCategory = "Category"
	keyBrand    = "Brand"
	keyDays     = "Days on Shelf"
	keyPrice    = "Price"
)

// Output column names.
const (
	ColDate        = "date"
	ColProductName = "product_name"
	ColCategory    = "category"
	ColBrand       = "brand"
	ColDaysOnShelf = "days_on_shelf"
	PricePrefix    = "price_"
)

type product struct {
	date     string
	name     any
	category any
	brand    any
	days     any
	hasBrand bool
	hasDays  bool
	prices   []dataset.Field
}

// Reader implements source.Reader for catalog files.
type Reader struct{}

var _ source.Reader = Reader{}

// Read decodes and flattens the catalog at src.
func (Reader) Read(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
	rc, err := source.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	ds, err := Decode(source.DecodeText(rc))
	if err != nil {
		return nil, fmt.Errorf("jsoncatalog: %s: %w", src.Name(), err)
	}
	return ds, nil
}

// Decode flattens a catalog read from r.
func Decode(r io.Reader) (*dataset.Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("top level: %w", err)
	}
	var products []product
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		date := tok.(string)
		if err := expectDelim(dec, '['); err != nil {
			return nil, fmt.Errorf("date %q: %w", date, err)
		}
		for dec.More() {
			p, err := decodeProduct(dec, date)
			if err != nil {
				return nil, fmt.Errorf("date %q product %d: %w", date, len(products), err)
			}
			products = append(products, p)
		}
		if _, err := dec.Token(); err != nil { // ']'
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil { // '}'
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after catalog object")
	}
	return flatten(products), nil
}

func flatten(products []product) *dataset.Dataset {
	var withBrand, withDays bool
	for _, p := range products {
		withBrand = withBrand || p.hasBrand
		withDays = withDays || p.hasDays
	}

	b := dataset.NewBuilder()
	b.Declare(ColDate, ColProductName, ColCategory)
	if withBrand {
		b.Declare(ColBrand)
	}
	if withDays {
		b.Declare(ColDaysOnShelf)
	}

	for _, p := range products {
		fields := make([]dataset.Field, 0, 5+len(p.prices))
		fields = append(fields,
			dataset.Field{Name: ColDate, Value: p.date},
			dataset.Field{Name: ColProductName, Value: p.name},
			dataset.Field{Name: ColCategory, Value: p.category},
		)
		if withBrand {
			fields = append(fields, dataset.Field{Name: ColBrand, Value: p.brand})
		}
		if withDays {
			fields = append(fields, dataset.Field{Name: ColDaysOnShelf, Value: p.days})
		}
		b.Add(append(fields, p.prices...)...)
	}
	return b.Build()
}

// decodeProduct reads one product object. Missing name, category and brand
// default to ""; a missing shelf time defaults to 0. A present null stays
// missing.
func decodeProduct(dec *json.Decoder, date string) (product, error) {
	p := product{date: date, name: "", category: "", brand: "", days: json.Number("0")}
	if err := expectDelim(dec, '{'); err != nil {
		return p, err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return p, err
		}
		key := tok.(string)

		if key == keyPrice {
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return p, err
			}
			if p.prices, err = decodePrices(raw); err != nil {
				return p, fmt.Errorf("%s: %w", keyPrice, err)
			}
			continue
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return p, err
		}
		switch key {
		case keyName:
			p.name = v
		case keyCategory:
			p.category = v
		case keyBrand:
			p.brand, p.hasBrand = v, true
		case keyDays:
			p.days, p.hasDays = v, true
		}
	}
	_, err := dec.Token() // '}'
	return p, err
}

// decodePrices keeps unit order. A Price value that is not an object is
// ignored.
func decodePrices(raw json.RawMessage) ([]dataset.Field, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var out []dataset.Field
	seen := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		name := PricePrefix + tok.(string)
		if i, ok := seen[name]; ok {
			out[i].Value = v
			continue
		}
		seen[name] = len(out)
		out = append(out, dataset.Field{Name: name, Value: v})
	}
	return out, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

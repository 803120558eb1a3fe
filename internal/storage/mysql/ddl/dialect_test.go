package ddl

import (
	"testing"

	gddl "dbingest/internal/ddl"
	"dbingest/internal/schema"
)

func TestCreateAndAlterSQL(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	p := schema.Plan{Table: "catalog", Create: true, Columns: []schema.Column{
		{Name: "date", Type: schema.StorageType{Kind: schema.TypeDateTime}},
		{Name: "price_kg", Type: schema.StorageType{Kind: schema.TypeDouble}},
	}}
	got, err := gddl.BuildCreateTableSQL(d, gddl.TableFromPlan(d, p))
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	want := "CREATE TABLE `catalog` (\n" +
		"  `id` INT AUTO_INCREMENT NOT NULL,\n" +
		"  `date` DATETIME,\n" +
		"  `price_kg` DOUBLE,\n" +
		"  `created_at` TIMESTAMP DEFAULT CURRENT_TIMESTAMP,\n" +
		"  PRIMARY KEY (`id`)\n" +
		")"
	if got != want {
		t.Fatalf("create SQL =\n%s\nwant\n%s", got, want)
	}

	alter, err := gddl.BuildAddColumnSQL(d, "catalog", gddl.ColumnDefFor(d, schema.Column{
		Name: "brand", Type: schema.StorageType{Kind: schema.TypeText, Tier: schema.TextMedium},
	}))
	if err != nil {
		t.Fatalf("BuildAddColumnSQL() error = %v", err)
	}
	if want := "ALTER TABLE `catalog` ADD COLUMN `brand` MEDIUMTEXT"; alter != want {
		t.Fatalf("BuildAddColumnSQL() = %q, want %q", alter, want)
	}
}

func TestQuoteIdentEscapesBackticks(t *testing.T) {
	t.Parallel()

	if got := (Dialect{}).QuoteIdent("a`b"); got != "`a``b`" {
		t.Fatalf("QuoteIdent() = %q", got)
	}
}

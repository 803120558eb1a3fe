package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	textType = StorageType{Kind: TypeText}
	tinyType = StorageType{Kind: TypeInteger, Width: TinyInt}
)

func liveTable() *TableDefinition {
	return &TableDefinition{Name: "sales", Columns: []ColumnDef{
		{Name: "id", SQLType: "int"},
		{Name: "product", SQLType: "text"},
		{Name: "qty", SQLType: "tinyint"},
		{Name: "created_at", SQLType: "timestamp"},
	}}
}

func TestReconcileCreate(t *testing.T) {
	t.Parallel()

	req := []Column{
		{Name: "id", Type: tinyType},
		{Name: "product name", Type: textType},
		{Name: "qty", Type: tinyType},
	}
	p, err := Reconcile("sales", req, nil, ReconcileOptions{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	want := Plan{Table: "sales", Create: true, Columns: []Column{
		{Name: "product_name", Type: textType},
		{Name: "qty", Type: tinyType},
	}}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("Reconcile() diff (-want +got):\n%s", diff)
	}
}

func TestReconcileCreateSkipsReservedInAnyCase(t *testing.T) {
	t.Parallel()

	req := []Column{
		{Name: "ID", Type: textType},
		{Name: "name", Type: textType},
		{Name: "Created_At", Type: textType},
	}
	tests := []struct {
		name string
		fold bool
		want []string
	}{
		{name: "folding store", fold: true, want: []string{"name"}},
		{name: "exact store", fold: false, want: []string{"ID", "name", "Created_At"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := Reconcile("items", req, nil, ReconcileOptions{FoldCase: tt.fold})
			if err != nil {
				t.Fatalf("Reconcile() error = %v", err)
			}
			var got []string
			for _, c := range p.Columns {
				got = append(got, c.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("create columns diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWritableColumns(t *testing.T) {
	t.Parallel()

	cols := []CoercedColumn{{Name: "ID"}, {Name: "name"}, {Name: "created_at"}}
	kept, dropped := WritableColumns(cols, true)
	if len(kept) != 1 || kept[0].Name != "name" {
		t.Fatalf("WritableColumns() kept = %+v, want [name]", kept)
	}
	if diff := cmp.Diff([]string{"ID", "created_at"}, dropped); diff != "" {
		t.Fatalf("WritableColumns() dropped diff (-want +got):\n%s", diff)
	}
}

func TestReconcileAppendsOnlyMissing(t *testing.T) {
	t.Parallel()

	req := []Column{
		{Name: "product", Type: StorageType{Kind: TypeInteger, Width: BigInt}},
		{Name: "qty", Type: tinyType},
		{Name: "price usd", Type: StorageType{Kind: TypeDouble}},
		{Name: "created_at", Type: textType},
	}
	p, err := Reconcile("sales", req, liveTable(), ReconcileOptions{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if p.Create {
		t.Fatal("Reconcile().Create = true for existing table")
	}
	want := []Column{{Name: "price_usd", Type: StorageType{Kind: TypeDouble}}}
	if diff := cmp.Diff(want, p.Columns); diff != "" {
		t.Fatalf("Reconcile().Columns diff (-want +got):\n%s", diff)
	}
}

func TestReconcileUnchangedIsEmpty(t *testing.T) {
	t.Parallel()

	req := []Column{{Name: "product", Type: textType}, {Name: "qty", Type: tinyType}}
	p, err := Reconcile("sales", req, liveTable(), ReconcileOptions{})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if !p.Empty() {
		t.Fatalf("Reconcile() = %+v, want empty plan", p)
	}
}

func TestReconcileFoldCase(t *testing.T) {
	t.Parallel()

	req := []Column{{Name: "Product", Type: textType}}
	p, _ := Reconcile("sales", req, liveTable(), ReconcileOptions{FoldCase: true})
	if !p.Empty() {
		t.Fatalf("fold: plan = %+v, want empty", p)
	}
	p, _ = Reconcile("sales", req, liveTable(), ReconcileOptions{})
	if len(p.Columns) != 1 {
		t.Fatalf("exact: plan columns = %d, want 1", len(p.Columns))
	}
}

func TestReconcileRejectsCollidingNames(t *testing.T) {
	t.Parallel()

	req := []Column{{Name: "unit price", Type: textType}, {Name: "unit-price", Type: textType}}
	if _, err := Reconcile("sales", req, nil, ReconcileOptions{}); err == nil {
		t.Fatal("Reconcile() error = nil, want collision error")
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a, b := liveTable(), liveTable()
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("equal layouts hash differently")
	}
	b.AddColumn("price_usd", "double")
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("added column did not change fingerprint")
	}
	if Fingerprint(nil) != 0 {
		t.Fatal("Fingerprint(nil) != 0")
	}
}

package mysql

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"

	"dbingest/internal/schema"
	"dbingest/internal/storage"
)

// Test that init() registration works and that storage.New constructs the repo
// via our adapter. We stub newRepository to avoid a real DB connection.
func TestAdapterRegistrationAndClose(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotCfg Config
		closed int32
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { atomic.AddInt32(&closed, 1) }, nil
	}

	dsn := "ingest:secret@tcp(localhost:3306)/shop"
	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: dsn})
	if err != nil {
		t.Fatalf("storage.New error: %v", err)
	}
	if gotCfg.DSN != dsn {
		t.Errorf("cfg.DSN = %q, want %q", gotCfg.DSN, dsn)
	}
	if repo.Dialect().Name() != "mysql" {
		t.Errorf("Dialect().Name() = %q, want mysql", repo.Dialect().Name())
	}

	repo.Close()
	if atomic.LoadInt32(&closed) != 1 {
		t.Fatalf("Close() did not invoke closeFn")
	}
}

func TestAdapterPropagatesConnectError(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	want := errors.New("access denied")
	newRepository = func(context.Context, Config) (*Repository, func(), error) { return nil, nil, want }

	if _, err := storage.New(context.Background(), storage.Config{Kind: "mysql", DSN: "x@/y"}); !errors.Is(err, want) {
		t.Fatalf("storage.New error = %v, want %v", err, want)
	}
}

func TestNewRepositoryRejectsBadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("empty DSN: error = nil")
	}
	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn"}); err == nil {
		t.Fatal("malformed DSN: error = nil")
	}
}

// TestRepositoryRoundTrip runs only when TEST_MYSQL_DSN points at a
// disposable database, e.g.
//
//	TEST_MYSQL_DSN='root:pw@tcp(127.0.0.1:3306)/test' go test ./internal/storage/mysql
func TestRepositoryRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	r, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()
	repo := &wrappedRepo{Repository: r, closeFn: func() {}}

	table := "ingest_roundtrip_test"
	_ = repo.Exec(ctx, "DROP TABLE IF EXISTS `"+table+"`")
	defer func() { _ = repo.Exec(ctx, "DROP TABLE IF EXISTS `"+table+"`") }()

	cols := []schema.Column{
		{Name: "name", Type: schema.StorageType{Kind: schema.TypeText}},
		{Name: "ts", Type: schema.StorageType{Kind: schema.TypeDateTime}},
	}
	if _, err := storage.ApplyPlan(ctx, repo, schema.Plan{Table: table, Create: true, Columns: cols}, nil); err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	n, err := repo.InsertBatch(ctx, table, cols, [][]any{{"a", "2024-01-02 03:04:05"}, {nil, nil}})
	if err != nil || n != 2 {
		t.Fatalf("InsertBatch = %d, %v", n, err)
	}
	def, err := repo.Describe(ctx, table)
	if err != nil || len(def.Columns) != 4 {
		t.Fatalf("Describe = %+v, %v", def, err)
	}
}

// Package ingest sequences one dataset through coercion, type mapping,
// schema reconciliation and batched writing, and drives runs over files and
// folders.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dbingest/internal/dataset"
	"dbingest/internal/metrics"
	"dbingest/internal/schema"
	"dbingest/internal/storage"
)

// Opener acquires a repository for one ingestion. The ingester closes it.
type Opener func(ctx context.Context) (storage.Repository, error)

// StorageOpener opens repositories through the storage registry.
func StorageOpener(cfg storage.Config) Opener {
	return func(ctx context.Context) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}
}

// Options tune an Ingester.
type Options struct {
	// BatchSize is the number of rows per committed batch (default 1000).
	BatchSize int
	// Atomic writes every row of a dataset in one transaction instead of
	// committing batch by batch.
	Atomic bool
	// Job labels metrics.
	Job string
}

// Ingester runs datasets into tables. It holds no connection between runs
// and is safe for sequential reuse.
type Ingester struct {
	open    Opener
	opt     Options
	log     *zap.Logger
	coercer *schema.Coercer
}

// New returns an Ingester. A nil log discards output.
func New(open Opener, opt Options, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	if opt.BatchSize <= 0 {
		opt.BatchSize = storage.DefaultBatchSize
	}
	if opt.Job == "" {
		opt.Job = "ingest"
	}
	return &Ingester{open: open, opt: opt, log: log, coercer: schema.NewCoercer(log)}
}

// Outcome is the result of one ingestion.
type Outcome struct {
	RunID   string
	Table   string
	Rows    int64 // rows committed, also on failure
	Batches int

	Created      bool
	AddedColumns []string
	// Fallbacks lists columns degraded to text.
	Fallbacks []string

	Err      error
	Duration time.Duration
}

// OK reports success.
func (o Outcome) OK() bool { return o.Err == nil }

// String renders the outcome line; it starts with ✓ on success and ✗ on
// failure.
func (o Outcome) String() string {
	if o.Err != nil {
		return "✗ Error: " + o.Err.Error()
	}
	return fmt.Sprintf("✓ Successfully inserted %d rows into table '%s'", o.Rows, o.Table)
}

// Ingest writes ds into table, creating or widening the table as needed.
// The repository is opened after the dataset has been prepared and closed
// on every path. Nothing already applied is rolled back on failure.
func (in *Ingester) Ingest(ctx context.Context, table string, ds *dataset.Dataset) (out Outcome) {
	start := time.Now()
	out = Outcome{RunID: uuid.NewString(), Table: strings.TrimSpace(table)}
	log := in.log.With(zap.String("run_id", out.RunID), zap.String("table", out.Table))
	defer func() {
		out.Duration = time.Since(start)
		if out.Err != nil {
			log.Error("ingest: failed", zap.Int64("rows", out.Rows), zap.Error(out.Err))
			return
		}
		log.Info("ingest: done",
			zap.Int64("rows", out.Rows),
			zap.Int("batches", out.Batches),
			zap.Duration("elapsed", out.Duration.Truncate(time.Millisecond)),
		)
	}()
	fail := func(stage Stage, err error) Outcome {
		out.Err = &StageError{Stage: stage, Table: out.Table, Err: err}
		return out
	}

	if out.Table == "" {
		return fail(StagePrepare, errors.New("empty table name"))
	}
	if ds == nil {
		return fail(StagePrepare, errors.New("nil dataset"))
	}
	metrics.RecordRow(in.opt.Job, "read", int64(ds.Len()))

	// Placeholder columns come from blank spreadsheet headers.
	ds = ds.Filter(func(c dataset.Column) bool {
		if schema.IsPlaceholder(c.Name) {
			log.Debug("ingest: dropping placeholder column", zap.String("column", c.Name))
			return false
		}
		return true
	})
	if ds.Width() == 0 {
		return fail(StagePrepare, errors.New("dataset has no columns"))
	}

	t0 := time.Now()
	cols := in.coercer.CoerceAll(ds)
	for _, c := range cols {
		if c.Fallback != nil {
			out.Fallbacks = append(out.Fallbacks, c.Name)
		}
	}
	metrics.RecordStep(in.opt.Job, "coerce", nil, time.Since(t0))

	repo, err := in.open(ctx)
	if err != nil {
		return fail(StageConnect, err)
	}
	defer repo.Close()

	cols, dropped := schema.WritableColumns(cols, repo.Dialect().FoldsIdentifiers())
	if len(dropped) > 0 {
		log.Warn("ingest: ignoring columns named like system columns", zap.Strings("columns", dropped))
	}
	if len(cols) == 0 {
		return fail(StagePrepare, errors.New("dataset has only system columns"))
	}
	required := schema.RequiredColumns(cols)

	t0 = time.Now()
	err = in.reconcile(ctx, repo, &out, required, log)
	metrics.RecordStep(in.opt.Job, "reconcile", err, time.Since(t0))
	if err != nil {
		return fail(StageSchema, err)
	}

	t0 = time.Now()
	err = in.write(ctx, repo, &out, required, rowsOf(cols), log)
	metrics.RecordStep(in.opt.Job, "write", err, time.Since(t0))
	if err != nil {
		return fail(StageWrite, err)
	}
	return out
}

func (in *Ingester) reconcile(ctx context.Context, repo storage.Repository, out *Outcome, required []schema.Column, log *zap.Logger) error {
	live, err := repo.Describe(ctx, out.Table)
	if err != nil {
		return err
	}
	before := schema.Fingerprint(live)

	plan, err := schema.Reconcile(out.Table, required, live, schema.ReconcileOptions{
		FoldCase: repo.Dialect().FoldsIdentifiers(),
	})
	if err != nil {
		return err
	}
	if plan.Empty() {
		log.Debug("schema: unchanged", zap.String("fingerprint", fmt.Sprintf("%016x", before)))
		return nil
	}

	have := 0
	if live != nil {
		have = len(live.Columns)
	}
	updated, err := storage.ApplyPlan(ctx, repo, plan, live)
	if plan.Create {
		if err != nil {
			return err
		}
		out.Created = true
		metrics.RecordSchemaChange(in.opt.Job, "create", 1)
		log.Info("schema: table created",
			zap.Int("columns", len(plan.Columns)),
			zap.String("fingerprint", fmt.Sprintf("%016x", schema.Fingerprint(updated))),
		)
		return nil
	}

	for _, c := range updated.Columns[have:] {
		out.AddedColumns = append(out.AddedColumns, c.Name)
	}
	metrics.RecordSchemaChange(in.opt.Job, "add_column", len(out.AddedColumns))
	if len(out.AddedColumns) > 0 {
		log.Info("schema: columns added",
			zap.Strings("columns", out.AddedColumns),
			zap.String("fingerprint_before", fmt.Sprintf("%016x", before)),
			zap.String("fingerprint_after", fmt.Sprintf("%016x", schema.Fingerprint(updated))),
		)
	}
	return err
}

func (in *Ingester) write(ctx context.Context, repo storage.Repository, out *Outcome, columns []schema.Column, rows [][]any, log *zap.Logger) error {
	size := in.opt.BatchSize
	if in.opt.Atomic {
		size = max(len(rows), 1)
	}
	insert := func(ctx context.Context, _ int, batch [][]any) (int64, error) {
		return repo.InsertBatch(ctx, out.Table, columns, batch)
	}
	st, err := storage.WriteBatches(ctx, rows, size, insert, log)
	out.Rows, out.Batches = st.Rows, st.Batches
	metrics.RecordBatches(in.opt.Job, int64(st.Batches))
	metrics.RecordRow(in.opt.Job, "inserted", st.Rows)
	return err
}

// rowsOf transposes coerced columns into rows, keeping row order.
func rowsOf(cols []schema.CoercedColumn) [][]any {
	if len(cols) == 0 {
		return nil
	}
	n := len(cols[0].Values)
	rows := make([][]any, n)
	for r := range rows {
		row := make([]any, len(cols))
		for c := range cols {
			row[c] = cols[c].Values[r]
		}
		rows[r] = row
	}
	return rows
}

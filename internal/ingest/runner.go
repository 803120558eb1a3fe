package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"dbingest/internal/dataset"
	"dbingest/internal/datasource/file"
	"dbingest/internal/schema"
	"dbingest/internal/source"
)

var (
	banner = strings.Repeat("=", 60)
	rule   = strings.Repeat("-", 60)
)

// Format describes one kind of input file for folder runs.
type Format struct {
	Label  string   // shown in banners, e.g. "JSON"
	Exts   []string // matched case-insensitively, with the dot
	Reader source.Reader
}

// Job pairs an input file with its target table. An empty Table is derived
// from the file name.
type Job struct {
	Path  string
	Table string
}

func (j Job) table() string {
	if strings.TrimSpace(j.Table) != "" {
		return j.Table
	}
	return schema.TableNameFromPath(j.Path)
}

// Summary collects the outcomes of a multi-file run, in file order.
type Summary struct {
	Total    int
	Outcomes []Outcome
}

// Succeeded counts successful outcomes.
func (s Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// Failed counts every file that did not succeed, including unreadable ones.
func (s Summary) Failed() int { return s.Total - s.Succeeded() }

// Runner drives files through an Ingester and prints progress to out.
// Files of a multi-file run are parsed up to readAhead ahead of the one being
// ingested; ingestion itself stays sequential in file order.
type Runner struct {
	ing       *Ingester
	out       io.Writer
	readAhead int
	log       *zap.Logger
}

// NewRunner returns a Runner. A nil out discards progress output.
func NewRunner(ing *Ingester, out io.Writer, readAhead int, log *zap.Logger) *Runner {
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ing: ing, out: out, readAhead: max(readAhead, 0), log: log}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// RunFile ingests one file into table, or into a table named after the file
// when table is empty.
func (r *Runner) RunFile(ctx context.Context, path, table string, rd source.Reader) Outcome {
	job := Job{Path: path, Table: table}
	if !file.Exists(path) {
		r.printf("✗ Error: File '%s' not found!\n", path)
		return failed(job, StagePrepare, fmt.Errorf("%w: %s", source.ErrSourceMissing, path))
	}

	r.printf("\n%s\nProcessing: %s\nTable name: %s\n%s\n\n", banner, path, job.table(), banner)
	r.printf("Reading file...\n")
	ds, err := rd.Read(ctx, file.NewLocal(path))
	if err != nil {
		r.printf("✗ Error processing file: %v\n", err)
		return failed(job, StagePrepare, err)
	}
	r.printf("✓ Loaded %d rows and %d columns\n", ds.Len(), ds.Width())
	r.printf("  Columns: %s\n\n", strings.Join(ds.Names(), ", "))

	r.printf("Inserting data...\n")
	out := r.ing.Ingest(ctx, job.table(), ds)
	r.printf("\n%s\n\n", out)
	return out
}

// RunFolder ingests every file in dir matching f, in name order, each into
// the table named after it.
func (r *Runner) RunFolder(ctx context.Context, dir string, f Format) (Summary, error) {
	paths, err := file.ListDir(dir, f.Exts...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.printf("✗ Error: Folder '%s' not found!\n", dir)
		} else {
			r.printf("✗ Error: %v\n", err)
		}
		return Summary{}, err
	}
	if len(paths) == 0 {
		r.printf("✗ No %s files found in '%s'\n", f.Label, dir)
		return Summary{}, nil
	}

	r.printf("\n%s\nFOUND %d %s FILE(S) IN FOLDER\n%s\n", banner, len(paths), f.Label, banner)
	jobs := make([]Job, len(paths))
	for i, p := range paths {
		jobs[i] = Job{Path: p}
	}
	sum, err := r.run(ctx, jobs, f.Reader, func(i int, j Job) {
		r.printf("\n[%d/%d] Processing: %s\n%s\n", i, len(jobs), filepath.Base(j.Path), rule)
	})
	r.printf("\n%s\nBATCH UPLOAD COMPLETE!\n%s\n\n", banner, banner)
	return sum, err
}

// RunMany ingests each job in order and prints success and failure tallies.
func (r *Runner) RunMany(ctx context.Context, jobs []Job, rd source.Reader) (Summary, error) {
	r.printf("\n%s\nBATCH UPLOAD: %d files\n%s\n", banner, len(jobs), banner)
	sum, err := r.run(ctx, jobs, rd, func(i int, j Job) {
		r.printf("\n[%d/%d] Processing: %s → %s\n%s\n", i, len(jobs), j.Path, j.table(), rule)
	})
	r.printf("\n%s\nBATCH UPLOAD COMPLETE\n", banner)
	r.printf("  Successful: %d/%d\n", sum.Succeeded(), sum.Total)
	r.printf("  Failed: %d/%d\n", sum.Failed(), sum.Total)
	r.printf("%s\n\n", banner)
	return sum, err
}

type parsed struct {
	ds  *dataset.Dataset
	err error
}

// run parses jobs ahead on one goroutine and ingests them on the caller's.
// A missing or unreadable file is reported and skipped.
func (r *Runner) run(ctx context.Context, jobs []Job, rd source.Reader, header func(int, Job)) (Summary, error) {
	sum := Summary{Total: len(jobs)}
	ch := make(chan parsed, r.readAhead)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ch)
		for _, j := range jobs {
			ds, err := rd.Read(gctx, file.NewLocal(j.Path))
			select {
			case ch <- parsed{ds: ds, err: err}:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	i := 0
	for p := range ch {
		j := jobs[i]
		i++
		header(i, j)
		switch {
		case errors.Is(p.err, source.ErrSourceMissing):
			r.printf("✗ File not found: %s\n", j.Path)
			sum.Outcomes = append(sum.Outcomes, failed(j, StagePrepare, p.err))
			continue
		case p.err != nil:
			r.printf("✗ Error: %v\n", p.err)
			r.log.Warn("runner: read failed", zap.String("path", j.Path), zap.Error(p.err))
			sum.Outcomes = append(sum.Outcomes, failed(j, StagePrepare, p.err))
			continue
		}
		r.printf("✓ Loaded %d rows\n", p.ds.Len())
		out := r.ing.Ingest(ctx, j.table(), p.ds)
		r.printf("%s\n", out)
		sum.Outcomes = append(sum.Outcomes, out)
	}
	return sum, g.Wait()
}

func failed(j Job, stage Stage, err error) Outcome {
	t := j.table()
	return Outcome{Table: t, Err: &StageError{Stage: stage, Table: t, Err: err}}
}

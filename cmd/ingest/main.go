// Command ingest loads JSON catalogs, spreadsheets and CSV files into a SQL
// database, creating tables and adding columns as the data requires.
//
// Usage:
//
//	ingest [flags] json <file> [table]
//	ingest [flags] json-dir <dir>
//	ingest [flags] excel <file> [table]
//	ingest [flags] excel-dir <dir>
//	ingest [flags] csv <file> [table]
//	ingest [flags] csv-dir <dir>
//	ingest [flags] multi <manifest>
//	ingest [flags] menu
//
// A manifest lists one "table=path" (or bare path) per line.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"dbingest/internal/config"
	"dbingest/internal/dataset"
	"dbingest/internal/datasource"
	"dbingest/internal/datasource/file"
	"dbingest/internal/ingest"
	"dbingest/internal/logging"
	"dbingest/internal/metrics"
	"dbingest/internal/metrics/datadog"
	"dbingest/internal/metrics/prompush"
	"dbingest/internal/source"
	"dbingest/internal/source/csv"
	"dbingest/internal/source/excel"
	"dbingest/internal/source/jsoncatalog"
	"dbingest/internal/storage"

	// register all backends with the storage factory.
	_ "dbingest/internal/storage/all"
)

const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	usageFormat = `usage: %s [flags] <command> [args]

commands:
  json <file> [table]     ingest one JSON catalog
  json-dir <dir>          ingest every .json file in dir
  excel <file> [table]    ingest one spreadsheet (-sheet selects the sheet)
  excel-dir <dir>         ingest every .xlsx file in dir
  csv <file> [table]      ingest one CSV file
  csv-dir <dir>           ingest every .csv file in dir
  multi <manifest>        ingest "table=path" lines of a manifest
  menu                    interactive prompt

flags:
`
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app bundles what every command needs.
type app struct {
	cfg    *config.Config
	runner *ingest.Runner
	sheet  string
	log    *zap.Logger
	out    io.Writer
}

func run(ctx context.Context, args []string, getenv func(string) string, stdin io.ReadCloser, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, usageFormat, fs.Name())
		fs.PrintDefaults()
	}
	sheet := fs.String("sheet", "", "Spreadsheet sheet name or zero-based index (default first sheet)")
	validate := fs.Bool("validate", false, "validate the configuration and exit")

	cfg, err := config.LoadFromArgs(fs, getenv, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitUsage
	}

	issues := config.ValidateConfig(*cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return exitUsage
	}
	if *validate {
		fmt.Fprintf(stdout, "Configuration is valid: %s\n", cfg.RedactedConnString())
		return exitOK
	}

	cmdArgs := fs.Args()
	if len(cmdArgs) == 0 {
		fs.Usage()
		return exitUsage
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(stderr, "logging: %v\n", err)
		return exitUsage
	}
	defer func() { _ = log.Sync() }()

	flush := setupMetrics(cfg, log)
	defer flush()

	dsn, err := cfg.ConnString()
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return exitUsage
	}
	log.Info("ingest: starting",
		zap.String("command", cmdArgs[0]),
		zap.String("driver", cfg.Driver),
		zap.String("dsn", cfg.RedactedConnString()),
	)

	ing := ingest.New(
		ingest.StorageOpener(storage.Config{Kind: cfg.Driver, DSN: dsn}),
		ingest.Options{BatchSize: cfg.BatchSize, Atomic: cfg.Atomic, Job: cfg.Job},
		log,
	)
	a := &app{
		cfg:    cfg,
		runner: ingest.NewRunner(ing, stdout, cfg.ReadAhead, log),
		sheet:  *sheet,
		log:    log,
		out:    stdout,
	}
	return a.dispatch(ctx, cmdArgs, stdin, stderr)
}

func (a *app) dispatch(ctx context.Context, args []string, stdin io.ReadCloser, stderr io.Writer) int {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "json", "excel", "csv":
		if len(rest) < 1 || len(rest) > 2 {
			fmt.Fprintf(stderr, "usage: %s <file> [table]\n", cmd)
			return exitUsage
		}
		table := ""
		if len(rest) == 2 {
			table = rest[1]
		}
		return exitFor(a.runner.RunFile(ctx, rest[0], table, a.formats()[cmd].Reader).OK())

	case "json-dir", "excel-dir", "csv-dir":
		if len(rest) != 1 {
			fmt.Fprintf(stderr, "usage: %s <dir>\n", cmd)
			return exitUsage
		}
		sum, err := a.runner.RunFolder(ctx, rest[0], a.formats()[strings.TrimSuffix(cmd, "-dir")])
		return exitFor(err == nil && sum.Failed() == 0)

	case "multi":
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "usage: multi <manifest>")
			return exitUsage
		}
		return a.multi(ctx, rest[0], stderr)

	case "menu":
		return a.menu(ctx, stdin, stderr)
	}
	fmt.Fprintf(stderr, "unknown command %q\n", cmd)
	return exitUsage
}

// formats maps command names to input formats.
func (a *app) formats() map[string]ingest.Format {
	return map[string]ingest.Format{
		"json":  {Label: "JSON", Exts: []string{".json"}, Reader: jsoncatalog.Reader{}},
		"excel": {Label: "EXCEL", Exts: []string{".xlsx", ".xlsm"}, Reader: excel.NewReader(excel.Options{Sheet: a.sheet})},
		"csv":   {Label: "CSV", Exts: []string{".csv"}, Reader: csv.NewReader(csv.Options{TrimSpace: true})},
	}
}

// readerFor picks a reader by file extension.
func (a *app) readerFor(path string) (source.Reader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, f := range a.formats() {
		for _, e := range f.Exts {
			if ext == e {
				return f.Reader, nil
			}
		}
	}
	if ext == ".tsv" {
		return csv.NewReader(csv.Options{Comma: '\t', TrimSpace: true}), nil
	}
	return nil, fmt.Errorf("no reader for %q files", ext)
}

// multi runs a manifest. Entries may mix formats; the reader follows each
// file's extension.
func (a *app) multi(ctx context.Context, manifest string, stderr io.Writer) int {
	entries, err := file.ReadManifest(manifest)
	if err != nil {
		fmt.Fprintf(stderr, "✗ Error: %v\n", err)
		return exitFailed
	}
	jobs := make([]ingest.Job, len(entries))
	for i, e := range entries {
		jobs[i] = ingest.Job{Path: e.Path, Table: e.Table}
	}
	byExt := source.ReaderFunc(func(ctx context.Context, src datasource.Source) (*dataset.Dataset, error) {
		rd, err := a.readerFor(src.Name())
		if err != nil {
			return nil, err
		}
		return rd.Read(ctx, src)
	})
	sum, err := a.runner.RunMany(ctx, jobs, byExt)
	return exitFor(err == nil && sum.Failed() == 0)
}

func setupMetrics(cfg *config.Config, log *zap.Logger) (flush func()) {
	flush = func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", zap.Error(err))
		}
	}
	switch strings.ToLower(cfg.Metrics.Backend) {
	case "prometheus":
		b, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Warn("metrics: prometheus push backend unavailable; using nop", zap.Error(err))
			return func() {}
		}
		metrics.SetBackend(b)
		log.Info("metrics: enabled", zap.String("backend", "prometheus"), zap.String("url", cfg.Metrics.PushgatewayURL))
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  "dbingest.",
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			log.Warn("metrics: datadog backend unavailable; using nop", zap.Error(err))
			return func() {}
		}
		metrics.SetBackend(b)
		log.Info("metrics: enabled", zap.String("backend", "datadog"), zap.String("addr", cfg.Metrics.DatadogAddr))
	default:
		log.Debug("metrics: disabled", zap.String("backend", cfg.Metrics.Backend))
		return func() {}
	}
	return flush
}

func exitFor(ok bool) int {
	if ok {
		return exitOK
	}
	return exitFailed
}

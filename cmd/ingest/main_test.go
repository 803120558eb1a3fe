package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"dbingest/internal/ingest"
	"dbingest/internal/storage"
)

const catalog = `{"2024-01-01": [
	{"Product name": "Milk", "Category": "Dairy", "Price": {"L": 2.5}},
	{"Product name": "Bread", "Category": "Bakery", "Price": {"pc": 1.2}}
]}`

func noenv(string) string { return "" }

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, noenv, io.NopCloser(strings.NewReader("")), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_JSONFile(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "prices.json", catalog)
	db := filepath.Join(dir, "out.db")

	code, stdout, stderr := runCLI(t, "-driver", "sqlite", "-database", db, "-log_level", "error", "json", p)
	if code != exitOK {
		t.Fatalf("run() = %d, want %d; stderr:\n%s", code, exitOK, stderr)
	}
	if !strings.Contains(stdout, "✓ Successfully inserted 2 rows into table 'prices'") {
		t.Fatalf("stdout missing success line:\n%s", stdout)
	}

	code, stdout, _ = runCLI(t, "-driver", "sqlite", "-database", db, "-log_level", "error", "json", p, "custom_prices")
	if code != exitOK || !strings.Contains(stdout, "table 'custom_prices'") {
		t.Fatalf("run(custom table) = %d:\n%s", code, stdout)
	}
}

func TestRun_Multi(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "prices.json", catalog)
	write(t, dir, "stock.csv", "sku,qty\nA1,4\nB2,9\n")
	manifest := write(t, dir, "manifest.txt", "catalog=prices.json\nstock.csv\nmissing.json\n")

	code, stdout, stderr := runCLI(t, "-driver", "sqlite", "-database", filepath.Join(dir, "out.db"), "-log_level", "error", "multi", manifest)
	if code != exitFailed {
		t.Fatalf("run() = %d, want %d; stderr:\n%s", code, exitFailed, stderr)
	}
	for _, want := range []string{"Successful: 2/3", "Failed: 1/3", "✗ File not found:"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("stdout missing %q:\n%s", want, stdout)
		}
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{name: "no command", args: []string{"-driver", "sqlite", "-database", "x.db"}, want: exitUsage},
		{name: "unknown command", args: []string{"-driver", "sqlite", "-database", "x.db", "frobnicate"}, want: exitUsage},
		{name: "missing file argument", args: []string{"-driver", "sqlite", "-database", "x.db", "json"}, want: exitUsage},
		{name: "unknown driver", args: []string{"-driver", "oracle", "json", "a.json"}, want: exitUsage},
		{name: "bad flag", args: []string{"-nope"}, want: exitUsage},
		{name: "validate only", args: []string{"-driver", "sqlite", "-database", "x.db", "-validate"}, want: exitOK},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if code, _, stderr := runCLI(t, tt.args...); code != tt.want {
				t.Fatalf("run(%q) = %d, want %d; stderr:\n%s", tt.args, code, tt.want, stderr)
			}
		})
	}
}

// scripted replays canned answers.
type scripted struct {
	answers []string
	prompts []string
}

func (s *scripted) SetPrompt(p string) { s.prompts = append(s.prompts, p) }

func (s *scripted) Readline() (string, error) {
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func TestPrompt(t *testing.T) {
	dir := t.TempDir()
	p := write(t, dir, "prices.json", catalog)
	db := filepath.Join(dir, "out.db")

	newApp := func(out io.Writer) *app {
		ing := ingest.New(func(ctx context.Context) (storage.Repository, error) {
			return storage.New(ctx, storage.Config{Kind: "sqlite", DSN: db})
		}, ingest.Options{}, nil)
		return &app{runner: ingest.NewRunner(ing, out, 0, nil), log: zap.NewNop(), out: out}
	}

	tests := []struct {
		name    string
		answers []string
		want    string
		code    int
	}{
		{name: "custom table", answers: []string{"yes", `"` + p + `"`, "y", "weekly", "no"}, want: "table 'weekly'", code: exitOK},
		{name: "derived table", answers: []string{"YES", p, "no"}, want: "table 'prices'", code: exitOK},
		{name: "declined", answers: []string{"no"}, want: "No file uploaded.", code: exitOK},
		{name: "unsupported file", answers: []string{"yes", "notes.txt", "no"}, want: "no reader for", code: exitFailed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := newApp(&out).prompt(context.Background(), &scripted{answers: tt.answers})
			if code != tt.code {
				t.Fatalf("prompt() = %d, want %d\n%s", code, tt.code, out.String())
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Fatalf("output missing %q:\n%s", tt.want, out.String())
			}
		})
	}
}

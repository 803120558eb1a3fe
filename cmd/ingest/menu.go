package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// lineReader is the part of *readline.Instance the menu uses.
type lineReader interface {
	SetPrompt(string)
	Readline() (string, error)
}

const quickStart = `
No file uploaded.

Quick start:
  ingest json <file> [table]      ingest one JSON catalog
  ingest excel <file> [table]     ingest one spreadsheet
  ingest json-dir <dir>           ingest a folder
Or answer 'yes' at the prompt to upload interactively.
`

func (a *app) menu(ctx context.Context, stdin io.ReadCloser, stderr io.Writer) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 "> ",
		DisableAutoSaveHistory: true,
		Stdin:                  stdin,
		Stdout:                 a.out,
		Stderr:                 stderr,
	})
	if err != nil {
		fmt.Fprintf(stderr, "menu: %v\n", err)
		return exitFailed
	}
	defer rl.Close()
	return a.prompt(ctx, rl)
}

// prompt asks for files until the user declines or input ends. The exit
// code reflects the last upload.
func (a *app) prompt(ctx context.Context, rl lineReader) int {
	ask := func(q string) (string, bool) {
		rl.SetPrompt(q)
		line, err := rl.Readline()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, readline.ErrInterrupt) {
				a.log.Sugar().Warnf("menu: read: %v", err)
			}
			return "", false
		}
		return strings.TrimSpace(line), true
	}
	yes := func(s string) bool {
		s = strings.ToLower(s)
		return s == "y" || s == "yes"
	}

	fmt.Fprintf(a.out, "\n%s\nDATABASE UPLOADER\n%s\n", strings.Repeat("=", 60), strings.Repeat("=", 60))
	code, uploaded := exitOK, false
	for ctx.Err() == nil {
		q := "\nDo you want to upload a file? (yes/no): "
		if uploaded {
			q = "\nUpload another file? (yes/no): "
		}
		answer, ok := ask(q)
		if !ok || !yes(answer) {
			break
		}
		path, ok := ask("Enter the file path: ")
		if !ok {
			break
		}
		path = strings.Trim(path, `"'`)
		table := ""
		if answer, ok = ask("Use custom table name? (yes/no): "); ok && yes(answer) {
			if table, ok = ask("Enter table name: "); !ok {
				break
			}
		}
		rd, err := a.readerFor(path)
		if err != nil {
			fmt.Fprintf(a.out, "✗ Error: %v\n", err)
			code = exitFailed
			continue
		}
		uploaded = true
		code = exitFor(a.runner.RunFile(ctx, path, table, rd).OK())
	}
	if !uploaded {
		fmt.Fprint(a.out, quickStart)
	}
	return code
}

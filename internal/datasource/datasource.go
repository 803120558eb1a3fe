// Package datasource defines where raw input bytes come from. Readers in
// internal/source consume a Source and never touch the filesystem directly.
package datasource

import (
	"context"
	"io"
)

// Source opens a fresh stream over the input on each call.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the input in logs and derives default table names.
	Name() string
}

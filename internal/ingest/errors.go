package ingest

import "fmt"

// Stage names the ingestion step an error came from.
type Stage string

const (
	StagePrepare Stage = "prepare" // dataset or table name unusable
	StageConnect Stage = "connect" // store unreachable; nothing changed
	StageSchema  Stage = "schema"  // create/describe/alter failed; earlier ALTERs remain
	StageWrite   Stage = "write"   // a batch failed; earlier batches remain
)

// StageError wraps a failure with the stage and table it happened in.
type StageError struct {
	Stage Stage
	Table string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Table, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

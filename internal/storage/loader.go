package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows committed per batch.
const DefaultBatchSize = 1000

// InsertFn writes one batch as its own committed unit and returns the number
// of rows committed.
type InsertFn func(ctx context.Context, batch int, rows [][]any) (int64, error)

// BatchStats summarizes a WriteBatches run.
type BatchStats struct {
	Rows    int64
	Batches int
}

// WriteBatches splits rows into consecutive batches of batchSize, in order,
// and calls insert once per batch. It stops at the first failing batch;
// batches committed before it stay committed and are counted in the returned
// stats.
//
// A progress line is logged after every committed batch with running totals
// and rows/sec since the previous batch.
func WriteBatches(
	ctx context.Context,
	rows [][]any,
	batchSize int,
	insert InsertFn,
	log *zap.Logger,
) (BatchStats, error) {
	var st BatchStats
	if batchSize <= 0 {
		return st, fmt.Errorf("batchSize must be > 0")
	}
	if insert == nil {
		return st, fmt.Errorf("insert must not be nil")
	}
	if log == nil {
		log = zap.NewNop()
	}

	var (
		start     = time.Now()
		lastFlush = start
	)
	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		hi := min(lo+batchSize, len(rows))
		batch := st.Batches + 1

		n, err := insert(ctx, batch, rows[lo:hi])
		if err != nil {
			log.Error("loader: batch failed",
				zap.Int("batch", batch),
				zap.Int("size", hi-lo),
				zap.Int64("total_inserted", st.Rows),
				zap.Error(err),
			)
			return st, fmt.Errorf("batch %d (rows %d-%d): %w", batch, lo+1, hi, err)
		}
		st.Rows += n
		st.Batches = batch

		now := time.Now()
		sinceLast := now.Sub(lastFlush)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(n) / sinceLast.Seconds()
		}
		log.Info("loader: batch committed",
			zap.Int("batch", batch),
			zap.Float64("rps", rps),
			zap.Int64("inserted", n),
			zap.Int64("total_inserted", st.Rows),
			zap.Duration("elapsed", now.Sub(start).Truncate(time.Millisecond)),
		)
		lastFlush = now
	}
	return st, nil
}

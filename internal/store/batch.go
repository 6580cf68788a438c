package store

import (
	"context"
	"errors"

	"github.com/you/onthisday/internal/game"
)

// BatchWriter groups records into SetMany calls of at most batchSize.
type BatchWriter struct {
	base      Store
	batchSize int

	buffer  []game.CleanRecord
	written int
	closed  bool
}

func NewBatchWriter(base Store, batchSize int) *BatchWriter {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BatchWriter{base: base, batchSize: batchSize}
}

// Add buffers rec and flushes once the batch is full.
func (b *BatchWriter) Add(ctx context.Context, rec game.CleanRecord) error {
	if b.closed {
		return errors.New("batch writer closed")
	}
	b.buffer = append(b.buffer, rec)
	if len(b.buffer) < b.batchSize {
		return nil
	}
	return b.Flush(ctx)
}

func (b *BatchWriter) Flush(ctx context.Context) error {
	if len(b.buffer) == 0 {
		return nil
	}
	recs := append([]game.CleanRecord(nil), b.buffer...)
	b.buffer = b.buffer[:0]
	if err := b.base.SetMany(ctx, recs); err != nil {
		return err
	}
	b.written += len(recs)
	return nil
}

// Close flushes what is left. Later Adds fail.
func (b *BatchWriter) Close(ctx context.Context) error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.Flush(ctx)
}

// Written is the number of records handed to the store so far.
func (b *BatchWriter) Written() int { return b.written }

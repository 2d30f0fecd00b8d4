package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/metrics"
)

const (
	// DefaultChunkSize bounds the bytes held in memory per fetch.
	DefaultChunkSize = 128

	// StartOffset is the 1-based offset of the first byte of a column's
	// binary value, matching the SQL substring convention.
	StartOffset int64 = 1
)

// ColumnIdentity names a single exportable byte stream. It keys the offset
// manifest; two concurrent readers must not share an identity against the
// same manifest storage.
type ColumnIdentity struct {
	Table  string
	Column string
}

func (id ColumnIdentity) String() string {
	return id.Table + "." + id.Column
}

// OffsetStore persists per-identity scan progress. It is the single source
// of truth for how much of a column has been durably processed.
type OffsetStore interface {
	// GetOffset returns the saved offset for the identity, or StartOffset
	// when no record exists. Missing storage is not an error.
	GetOffset(id ColumnIdentity) (int64, error)

	// SaveOffset durably persists the offset for the identity.
	SaveOffset(id ColumnIdentity, offset int64) error
}

// Reader drives a bounded-memory, resumable linear scan over one column's
// binary content: fetch a chunk at the current offset, hand it to the sink,
// advance, persist the offset, repeat until the source reports no more data.
//
// Resumability is not a separate mode. Every run loads its starting offset
// from the offset store, so re-invoking Process after any failure continues
// from the last persisted position. A crash between delivery and offset
// persistence causes the chunk at the crash-time offset to be redelivered on
// the next run; sinks must tolerate that (FileSink does, by truncating back
// to the manifest offset).
type Reader struct {
	source    ChunkSource
	sink      Sink
	offsets   OffsetStore
	identity  ColumnIdentity
	chunkSize int
	metrics   metrics.Metrics
	logger    *zap.Logger
}

func NewReader(source ChunkSource, sink Sink, offsets OffsetStore, identity ColumnIdentity, chunkSize int, m metrics.Metrics, logger *zap.Logger) (*Reader, error) {
	if source == nil {
		return nil, configErr("source", "chunk source is required")
	}
	if sink == nil {
		return nil, configErr("sink", "sink is required")
	}
	if offsets == nil {
		return nil, configErr("offsets", "offset store is required")
	}
	if identity.Table == "" {
		return nil, configErr("table", "table name cannot be empty")
	}
	if identity.Column == "" {
		return nil, configErr("column", "column name cannot be empty")
	}
	if chunkSize <= 0 {
		return nil, configErr("chunk_size", fmt.Sprintf("must be positive, got %d", chunkSize))
	}
	if m == nil {
		m = &metrics.NoopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reader{
		source:    source,
		sink:      sink,
		offsets:   offsets,
		identity:  identity,
		chunkSize: chunkSize,
		metrics:   m,
		logger:    logger,
	}, nil
}

// Process runs the export loop until the source reports end of stream.
//
// Failures from the source, the sink, or the offset store propagate out
// unretried; the offset for a failed chunk is never persisted, so the next
// Process call replays exactly that chunk. End of stream is success, not an
// error, and Process reports nothing beyond it.
func (r *Reader) Process(ctx context.Context) error {
	offset, err := r.offsets.GetOffset(r.identity)
	if err != nil {
		return fmt.Errorf("load offset for %s: %w", r.identity, err)
	}

	r.logger.Info("Starting column export",
		zap.String("table", r.identity.Table),
		zap.String("column", r.identity.Column),
		zap.Int64("start_offset", offset),
		zap.Int("chunk_size", r.chunkSize))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fetchStart := time.Now()
		chunk, err := r.source.FetchRange(ctx, r.identity.Table, r.identity.Column, offset, r.chunkSize)
		if err != nil {
			return fmt.Errorf("fetch %s at offset %d: %w", r.identity, offset, err)
		}
		r.metrics.ObserveFetchDuration(time.Since(fetchStart))

		if len(chunk) == 0 {
			r.logger.Info("Column export complete",
				zap.String("table", r.identity.Table),
				zap.String("column", r.identity.Column),
				zap.Int64("final_offset", offset))
			return nil
		}

		deliverStart := time.Now()
		if err := r.sink.Deliver(ctx, chunk); err != nil {
			return fmt.Errorf("deliver chunk for %s at offset %d: %w", r.identity, offset, err)
		}
		r.metrics.ObserveDeliverDuration(time.Since(deliverStart))

		offset += int64(len(chunk))

		// Persist before the next fetch. A crash after delivery but before
		// this save replays the chunk on resume; a crash after it does not.
		if err := r.offsets.SaveOffset(r.identity, offset); err != nil {
			return fmt.Errorf("save offset %d for %s: %w", offset, r.identity, err)
		}

		r.metrics.IncChunksDelivered()
		r.metrics.AddBytesExported(len(chunk))
		r.metrics.IncOffsetSaves()
		r.metrics.SetExportOffset(r.identity.Table, r.identity.Column, offset)

		r.logger.Debug("Chunk delivered",
			zap.Int("chunk_bytes", len(chunk)),
			zap.Int64("next_offset", offset))
	}
}

// Resume is Process under its recovery-oriented name.
func (r *Reader) Resume(ctx context.Context) error {
	return r.Process(ctx)
}

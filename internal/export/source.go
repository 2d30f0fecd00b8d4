package export

import (
	"context"
)

// ChunkSource fetches bounded byte ranges of a column's binary value.
//
// Implementations back onto a concrete data store (MySQL, ClickHouse). They
// must operate on raw byte positions, never character positions, so that
// multi-byte encoded text is never split incorrectly mid-byte, and must be
// idempotent: the same arguments against unchanged data return the same
// bytes.
type ChunkSource interface {
	// FetchRange returns up to length bytes of the column's binary value
	// starting at the 1-based byte offset. An empty result means the range
	// starts past the end of the data, which the reader treats as normal
	// end of stream. When the addressed row no longer exists the source
	// returns an error wrapping ErrRowNotFound rather than an empty chunk.
	FetchRange(ctx context.Context, table, column string, offset int64, length int) ([]byte, error)
}

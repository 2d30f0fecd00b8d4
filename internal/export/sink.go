package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// Sink consumes delivered chunks. The reader invokes it once per non-empty
// chunk in strict offset order, never concurrently. The sink owns whatever
// happens to the bytes after delivery; the reader never retains a chunk once
// Deliver returns.
type Sink interface {
	Deliver(ctx context.Context, chunk []byte) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, chunk []byte) error

func (f SinkFunc) Deliver(ctx context.Context, chunk []byte) error {
	return f(ctx, chunk)
}

// FileSink writes delivered chunks sequentially to a destination file.
//
// writeFrom is the 1-based offset of the next byte the reader will deliver,
// normally the offset loaded from the manifest. The destination is truncated
// back to writeFrom-1 bytes before writing, so a chunk redelivered after a
// crash between delivery and offset persistence overwrites its previous
// partial write instead of duplicating it.
type FileSink struct {
	file *os.File
}

func NewFileSink(path string, writeFrom int64) (*FileSink, error) {
	if writeFrom < StartOffset {
		return nil, fmt.Errorf("file sink: write offset must be at least %d, got %d", StartOffset, writeFrom)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("file sink: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("file sink: stat %s: %w", path, err)
	}

	resumeAt := writeFrom - 1
	if info.Size() < resumeAt {
		f.Close()
		return nil, fmt.Errorf("file sink: %s holds %d bytes but the manifest records %d exported; refusing to leave a gap",
			path, info.Size(), resumeAt)
	}

	if err := f.Truncate(resumeAt); err != nil {
		f.Close()
		return nil, fmt.Errorf("file sink: truncate %s to %d bytes: %w", path, resumeAt, err)
	}
	if _, err := f.Seek(resumeAt, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("file sink: seek %s: %w", path, err)
	}

	return &FileSink{file: f}, nil
}

func (s *FileSink) Deliver(_ context.Context, chunk []byte) error {
	if _, err := s.file.Write(chunk); err != nil {
		return fmt.Errorf("file sink: write %d bytes: %w", len(chunk), err)
	}
	return nil
}

// Close flushes and closes the destination file.
func (s *FileSink) Close() error {
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("file sink: sync: %w", err)
	}
	return s.file.Close()
}

// BufferSink accumulates delivered chunks in memory. It exists for tests and
// for small exports that are post-processed in process.
type BufferSink struct {
	buf    bytes.Buffer
	counts []int
}

func NewBufferSink() *BufferSink {
	return &BufferSink{}
}

func (s *BufferSink) Deliver(_ context.Context, chunk []byte) error {
	s.buf.Write(chunk)
	s.counts = append(s.counts, len(chunk))
	return nil
}

// Bytes returns everything delivered so far, in order.
func (s *BufferSink) Bytes() []byte {
	return s.buf.Bytes()
}

// ChunkLengths returns the length of each delivered chunk, in order.
func (s *BufferSink) ChunkLengths() []int {
	return s.counts
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*BufferSink)(nil)
	_ Sink = (SinkFunc)(nil)
)

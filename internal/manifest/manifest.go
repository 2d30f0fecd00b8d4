// Package manifest persists per-column export progress as a small JSON
// document on disk, keyed table → column → offset. The document is written
// whole on every save so an operator can inspect or hand-edit progress for
// recovery.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/export"
)

// ErrCorrupt reports manifest storage that exists but cannot be parsed.
// It is fatal: silently restarting at offset 1 would re-export already
// exported data without any signal to the operator.
var ErrCorrupt = errors.New("manifest: corrupt manifest file")

// document is the on-disk shape: table → column → next unread offset.
type document map[string]map[string]int64

// Store is a file-backed export.OffsetStore.
//
// Saves are whole-document read-modify-write, finished with a rename so a
// crash mid-write never leaves a half-written manifest behind. The rename
// does not serialize concurrent writers: two processes saving to the same
// path can lose one another's update, so concurrent exports must use
// distinct manifest paths or external locking.
type Store struct {
	path   string
	logger *zap.Logger
}

func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: path cannot be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{path: path, logger: logger}, nil
}

// GetOffset returns the saved offset for the identity, or export.StartOffset
// when the manifest file or the entry does not exist yet.
func (s *Store) GetOffset(id export.ColumnIdentity) (int64, error) {
	doc, err := s.load()
	if err != nil {
		return 0, err
	}

	columns, ok := doc[id.Table]
	if !ok {
		return export.StartOffset, nil
	}
	offset, ok := columns[id.Column]
	if !ok {
		return export.StartOffset, nil
	}
	return offset, nil
}

// SaveOffset durably records the offset for the identity, preserving all
// other entries in the document.
func (s *Store) SaveOffset(id export.ColumnIdentity, offset int64) error {
	if offset < export.StartOffset {
		return fmt.Errorf("manifest: offset must be at least %d, got %d", export.StartOffset, offset)
	}

	doc, err := s.load()
	if err != nil {
		return err
	}

	if doc[id.Table] == nil {
		doc[id.Table] = make(map[string]int64)
	}
	doc[id.Table][id.Column] = offset

	if err := s.write(doc); err != nil {
		return err
	}

	s.logger.Debug("Offset saved",
		zap.String("table", id.Table),
		zap.String("column", id.Column),
		zap.Int64("offset", offset))
	return nil
}

func (s *Store) load() (document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(document), nil
		}
		return nil, fmt.Errorf("manifest: read %s: %w", s.path, err)
	}

	if len(data) == 0 {
		return make(document), nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	for table, columns := range doc {
		for column, offset := range columns {
			if offset < export.StartOffset {
				return nil, fmt.Errorf("%w: %s: offset %d for %s.%s", ErrCorrupt, s.path, offset, table, column)
			}
		}
	}

	return doc, nil
}

func (s *Store) write(doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("manifest: create directory %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("manifest: open %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("manifest: write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("manifest: sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("manifest: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("manifest: rename %s: %w", tmp, err)
	}
	return nil
}

var _ export.OffsetStore = (*Store)(nil)

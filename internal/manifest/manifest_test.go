package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/philippevezina/blobstream/internal/export"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manifest.json")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store, path
}

func TestNewStoreRequiresPath(t *testing.T) {
	if _, err := NewStore("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestGetOffsetMissingFile(t *testing.T) {
	store, _ := testStore(t)

	offset, err := store.GetOffset(export.ColumnIdentity{Table: "documents", Column: "payload"})
	if err != nil {
		t.Fatalf("GetOffset failed: %v", err)
	}
	if offset != export.StartOffset {
		t.Errorf("expected start offset %d, got %d", export.StartOffset, offset)
	}
}

func TestGetOffsetMissingEntry(t *testing.T) {
	store, _ := testStore(t)
	id := export.ColumnIdentity{Table: "documents", Column: "payload"}
	if err := store.SaveOffset(id, 500); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}

	other := export.ColumnIdentity{Table: "documents", Column: "metadata"}
	offset, err := store.GetOffset(other)
	if err != nil {
		t.Fatalf("GetOffset failed: %v", err)
	}
	if offset != export.StartOffset {
		t.Errorf("expected start offset for untracked column, got %d", offset)
	}
}

func TestSaveOffsetRoundTrip(t *testing.T) {
	store, path := testStore(t)
	id := export.ColumnIdentity{Table: "documents", Column: "payload"}

	if err := store.SaveOffset(id, 129); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}

	// A fresh store over the same file sees the persisted offset, which is
	// what resuming after a process restart relies on.
	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	offset, err := reopened.GetOffset(id)
	if err != nil {
		t.Fatalf("GetOffset failed: %v", err)
	}
	if offset != 129 {
		t.Errorf("expected offset 129, got %d", offset)
	}
}

func TestSaveOffsetPreservesOtherEntries(t *testing.T) {
	store, _ := testStore(t)

	a := export.ColumnIdentity{Table: "documents", Column: "payload"}
	b := export.ColumnIdentity{Table: "documents", Column: "thumbnail"}
	c := export.ColumnIdentity{Table: "audit", Column: "payload"}

	if err := store.SaveOffset(a, 100); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}
	if err := store.SaveOffset(b, 200); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}
	if err := store.SaveOffset(c, 300); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}
	if err := store.SaveOffset(a, 150); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}

	tests := []struct {
		id   export.ColumnIdentity
		want int64
	}{
		{a, 150},
		{b, 200},
		{c, 300},
	}
	for _, tt := range tests {
		offset, err := store.GetOffset(tt.id)
		if err != nil {
			t.Fatalf("GetOffset %s failed: %v", tt.id, err)
		}
		if offset != tt.want {
			t.Errorf("%s: expected offset %d, got %d", tt.id, tt.want, offset)
		}
	}
}

func TestSaveOffsetRejectsBelowStart(t *testing.T) {
	store, _ := testStore(t)
	id := export.ColumnIdentity{Table: "documents", Column: "payload"}

	for _, offset := range []int64{0, -1, -100} {
		if err := store.SaveOffset(id, offset); err == nil {
			t.Errorf("expected error for offset %d", offset)
		}
	}
}

func TestCorruptManifestIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", "{not json"},
		{"wrong shape", `["a", "b"]`},
		{"negative offset", `{"documents": {"payload": -5}}`},
		{"zero offset", `{"documents": {"payload": 0}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "manifest.json")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to seed manifest: %v", err)
			}
			store, err := NewStore(path, nil)
			if err != nil {
				t.Fatalf("NewStore failed: %v", err)
			}

			id := export.ColumnIdentity{Table: "documents", Column: "payload"}
			if _, err := store.GetOffset(id); !errors.Is(err, ErrCorrupt) {
				t.Errorf("GetOffset: expected ErrCorrupt, got %v", err)
			}
			if err := store.SaveOffset(id, 10); !errors.Is(err, ErrCorrupt) {
				t.Errorf("SaveOffset: expected ErrCorrupt, got %v", err)
			}
		})
	}
}

func TestEmptyFileTreatedAsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to seed manifest: %v", err)
	}
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	offset, err := store.GetOffset(export.ColumnIdentity{Table: "documents", Column: "payload"})
	if err != nil {
		t.Fatalf("GetOffset failed: %v", err)
	}
	if offset != export.StartOffset {
		t.Errorf("expected start offset, got %d", offset)
	}
}

func TestManifestIsHumanReadable(t *testing.T) {
	store, path := testStore(t)
	id := export.ColumnIdentity{Table: "documents", Column: "payload"}
	if err := store.SaveOffset(id, 4096); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read manifest: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, `"documents"`) || !strings.Contains(content, `"payload"`) || !strings.Contains(content, "4096") {
		t.Errorf("manifest content not recognizable: %s", content)
	}
}

func TestSaveOffsetCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "nested", "manifest.json")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	id := export.ColumnIdentity{Table: "documents", Column: "payload"}
	if err := store.SaveOffset(id, 42); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("manifest file not created: %v", err)
	}
}

func TestSaveOffsetLeavesNoTempFile(t *testing.T) {
	store, path := testStore(t)
	id := export.ColumnIdentity{Table: "documents", Column: "payload"}
	if err := store.SaveOffset(id, 7); err != nil {
		t.Fatalf("SaveOffset failed: %v", err)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file left behind after save")
	}
}

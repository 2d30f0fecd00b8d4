package clickhouse

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/config"
)

func testSource(t *testing.T, keyColumn, keyValue string) *ColumnSource {
	t.Helper()
	cfg := &config.ClickHouseConfig{
		Addresses:   []string{"localhost:9000"},
		Database:    "appdb",
		Username:    "exporter",
		DialTimeout: 10 * time.Second,
	}
	source := NewColumnSource(cfg, keyColumn, keyValue, zap.NewNop())
	t.Cleanup(func() { source.Close() })
	return source
}

func TestBuildRangeQuery(t *testing.T) {
	source := testSource(t, "", "")

	query, err := source.buildRangeQuery("documents", "payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT substring(`payload`, ?, ?) FROM `appdb`.`documents` LIMIT 1"
	if query != want {
		t.Errorf("expected %q, got %q", want, query)
	}
}

func TestBuildRangeQueryWithKey(t *testing.T) {
	source := testSource(t, "id", "42")

	query, err := source.buildRangeQuery("documents", "payload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "SELECT substring(`payload`, ?, ?) FROM `appdb`.`documents` WHERE `id` = ? LIMIT 1"
	if query != want {
		t.Errorf("expected %q, got %q", want, query)
	}
}

func TestBuildRangeQueryRejectsInvalidIdentifiers(t *testing.T) {
	source := testSource(t, "", "")

	tests := []struct {
		name   string
		table  string
		column string
	}{
		{"injection in table", "documents'; SELECT 1", "payload"},
		{"empty table", "", "payload"},
		{"empty column", "documents", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := source.buildRangeQuery(tt.table, tt.column); err == nil {
				t.Errorf("expected error for table=%q column=%q", tt.table, tt.column)
			}
		})
	}
}

package observability

import "testing"

func TestSeverityString(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityFatal, "fatal"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.severity.String(); got != tt.want {
			t.Errorf("Severity(%d).String(): expected %q, got %q", tt.severity, tt.want, got)
		}
	}
}

func TestErrorContextBuilder(t *testing.T) {
	ec := NewErrorContext("export", "fetch_range").
		WithTable("documents").
		WithColumn("payload").
		WithOffset(129).
		WithRunID("run-1").
		WithExtra("chunk_size", 128)

	if ec.Component != "export" || ec.Operation != "fetch_range" {
		t.Errorf("component/operation not set: %+v", ec)
	}
	if ec.Table != "documents" || ec.Column != "payload" {
		t.Errorf("table/column not set: %+v", ec)
	}
	if ec.Offset != 129 {
		t.Errorf("expected offset 129, got %d", ec.Offset)
	}
	if ec.RunID != "run-1" {
		t.Errorf("expected run ID run-1, got %q", ec.RunID)
	}
}

func TestErrorContextToMap(t *testing.T) {
	ec := NewErrorContext("manifest", "offset_save").
		WithTable("documents").
		WithColumn("payload").
		WithOffset(257).
		WithRunID("run-2").
		WithExtra("path", "/var/lib/blobstream/manifest.json")

	m := ec.ToMap()

	want := map[string]interface{}{
		"component": "manifest",
		"operation": "offset_save",
		"table":     "documents",
		"column":    "payload",
		"offset":    int64(257),
		"run_id":    "run-2",
		"path":      "/var/lib/blobstream/manifest.json",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s: expected %v, got %v", k, v, m[k])
		}
	}
}

func TestErrorContextToMapOmitsEmptyFields(t *testing.T) {
	m := NewErrorContext("export", "process").ToMap()

	for _, k := range []string{"table", "column", "offset", "run_id"} {
		if _, ok := m[k]; ok {
			t.Errorf("unset field %q should be omitted, got %v", k, m[k])
		}
	}
	if m["component"] != "export" || m["operation"] != "process" {
		t.Errorf("expected component/operation present, got %v", m)
	}
}

func TestErrorContextWithExtraNilMap(t *testing.T) {
	ec := &ErrorContext{Component: "export"}
	ec.WithExtra("k", "v")
	if ec.Extra["k"] != "v" {
		t.Error("WithExtra must initialize the map when nil")
	}
}

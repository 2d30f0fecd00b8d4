package observability

import (
	"context"
	"time"
)

// NoopErrorReporter is a no-op ErrorReporter used when error reporting is
// disabled.
type NoopErrorReporter struct{}

func NewNoopErrorReporter() *NoopErrorReporter {
	return &NoopErrorReporter{}
}

func (n *NoopErrorReporter) CaptureError(_ context.Context, _ error, _ *ErrorContext) error {
	return nil
}

func (n *NoopErrorReporter) CaptureMessage(_ context.Context, _ string, _ Severity, _ *ErrorContext) error {
	return nil
}

func (n *NoopErrorReporter) SetTag(_, _ string) {}

func (n *NoopErrorReporter) Flush(_ time.Duration) bool {
	return true
}

func (n *NoopErrorReporter) Close() error {
	return nil
}

// NoopLogExporter is a no-op LogExporter used when log exporting is
// disabled.
type NoopLogExporter struct{}

func NewNoopLogExporter() *NoopLogExporter {
	return &NoopLogExporter{}
}

func (n *NoopLogExporter) Flush(_ time.Duration) bool {
	return true
}

func (n *NoopLogExporter) Close() error {
	return nil
}

var (
	_ ErrorReporter = (*NoopErrorReporter)(nil)
	_ LogExporter   = (*NoopLogExporter)(nil)
)

package observability

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"
)

// ErrorReporter defines the interface for error reporting providers.
type ErrorReporter interface {
	// CaptureError captures an error with optional context information.
	CaptureError(ctx context.Context, err error, errCtx *ErrorContext) error

	// CaptureMessage captures a message with severity and optional context.
	CaptureMessage(ctx context.Context, msg string, severity Severity, errCtx *ErrorContext) error

	// SetTag sets a global tag included in all subsequent events.
	SetTag(key, value string)

	// Flush waits for pending events to be sent up to the given timeout.
	// Returns true if all events were sent before the timeout.
	Flush(timeout time.Duration) bool

	// Close cleanly shuts down the error reporter.
	Close() error
}

// LogExporter defines the interface for log exporting providers. Providers
// that forward logs by wrapping the zap core additionally implement
// CoreWrapper.
type LogExporter interface {
	// Flush waits for pending log entries to be sent up to the given
	// timeout. Returns true if everything was sent before the timeout.
	Flush(timeout time.Duration) bool

	// Close cleanly shuts down the log exporter.
	Close() error
}

// CoreWrapper is implemented by log exporters that intercept log output by
// wrapping the zap core the application logger is built from.
type CoreWrapper interface {
	WrapZapCore(core zapcore.Core) (zapcore.Core, error)
}

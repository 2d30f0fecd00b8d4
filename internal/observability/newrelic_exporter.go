package observability

import (
	"fmt"
	"time"

	"github.com/newrelic/go-agent/v3/integrations/logcontext-v2/nrzap"
	"github.com/newrelic/go-agent/v3/newrelic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/philippevezina/blobstream/internal/config"
)

// NewRelicExporter forwards logs to NewRelic by wrapping the zap core
// through the nrzap integration.
type NewRelicExporter struct {
	app    *newrelic.Application
	logger *zap.Logger
}

// NewNewRelicExporter creates a new NewRelic log exporter.
func NewNewRelicExporter(cfg *config.NewRelicConfig, logger *zap.Logger) (*NewRelicExporter, error) {
	if cfg.LicenseKey == "" {
		return nil, fmt.Errorf("NewRelic license key is required")
	}
	if cfg.AppName == "" {
		return nil, fmt.Errorf("NewRelic app name is required")
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.LicenseKey),
		newrelic.ConfigAppLogForwardingEnabled(cfg.LogForwarding),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create NewRelic application: %w", err)
	}

	if err := app.WaitForConnection(10 * time.Second); err != nil {
		logger.Warn("NewRelic connection timeout, will continue in background", zap.Error(err))
	}

	return &NewRelicExporter{
		app:    app,
		logger: logger,
	}, nil
}

// WrapZapCore wraps a zap core for background (non-transactional) logging,
// enabling automatic log forwarding to NewRelic Logs.
func (e *NewRelicExporter) WrapZapCore(core zapcore.Core) (zapcore.Core, error) {
	wrappedCore, err := nrzap.WrapBackgroundCore(core, e.app)
	if err != nil {
		return core, fmt.Errorf("failed to wrap zap core for NewRelic: %w", err)
	}
	return wrappedCore, nil
}

// Flush waits for all pending log entries to be sent up to the given timeout.
func (e *NewRelicExporter) Flush(timeout time.Duration) bool {
	e.app.Shutdown(timeout)
	return true
}

// Close cleanly shuts down the NewRelic exporter.
func (e *NewRelicExporter) Close() error {
	e.app.Shutdown(5 * time.Second)
	return nil
}

// Compile-time interface compliance checks
var (
	_ LogExporter = (*NewRelicExporter)(nil)
	_ CoreWrapper = (*NewRelicExporter)(nil)
)

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/philippevezina/blobstream/internal/clickhouse"
	"github.com/philippevezina/blobstream/internal/common"
	"github.com/philippevezina/blobstream/internal/config"
	"github.com/philippevezina/blobstream/internal/export"
	"github.com/philippevezina/blobstream/internal/manifest"
	"github.com/philippevezina/blobstream/internal/metrics"
	"github.com/philippevezina/blobstream/internal/mysql"
	"github.com/philippevezina/blobstream/internal/observability"
)

// columnSource is what main needs from a backend: the fetch capability plus
// lifecycle hooks.
type columnSource interface {
	export.ChunkSource
	Ping(ctx context.Context) error
	Close() error
}

func main() {
	var (
		configPath = flag.String("config", "configs/blobstream.yaml", "Path to configuration file")
		version    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Printf("blobstream %s\n", common.GetVersion())
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create logger core first so the observability manager can wrap it
	// for log forwarding before the final logger is built.
	loggerCore, err := common.NewLoggerCore(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger core: %w", err)
	}

	initialLogger := loggerCore.BuildLogger(loggerCore.Core)

	observabilityManager, err := observability.NewManager(
		&cfg.Observability,
		common.LoggerWithComponent(initialLogger, "observability"),
	)
	if err != nil {
		return fmt.Errorf("failed to create observability manager: %w", err)
	}

	wrappedCore := observabilityManager.WrapZapCore(loggerCore.Core)

	runID := uuid.New().String()
	logger := loggerCore.BuildLogger(wrappedCore).With(zap.String("run_id", runID))
	defer logger.Sync()

	reporter := observabilityManager.GetErrorReporter()
	reporter.SetTag("run_id", runID)

	metricsManager := metrics.NewManager(&cfg.Monitoring, common.LoggerWithComponent(logger, "metrics"))
	if err := metricsManager.Start(); err != nil {
		return fmt.Errorf("failed to start metrics manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportErr := runExport(ctx, cfg, logger, metricsManager, reporter, runID)

	var shutdownErrs []error
	if err := metricsManager.Stop(); err != nil {
		shutdownErrs = append(shutdownErrs, fmt.Errorf("metrics manager stop error: %w", err))
	}
	if err := observabilityManager.Stop(); err != nil {
		shutdownErrs = append(shutdownErrs, fmt.Errorf("observability manager stop error: %w", err))
	}

	if exportErr != nil {
		return exportErr
	}
	if len(shutdownErrs) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrs)
	}
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, logger *zap.Logger, metricsManager *metrics.Manager, reporter observability.ErrorReporter, runID string) error {
	identity := export.ColumnIdentity{
		Table:  cfg.Export.Table,
		Column: cfg.Export.Column,
	}

	source, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logger.Warn("Failed to close source", zap.Error(err))
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := source.Ping(pingCtx); err != nil {
		metricsManager.GetMetrics().SetConnectionStatus(cfg.Source.Type, false)
		return fmt.Errorf("failed to reach %s source: %w", cfg.Source.Type, err)
	}
	metricsManager.GetMetrics().SetConnectionStatus(cfg.Source.Type, true)

	store, err := manifest.NewStore(cfg.Export.ManifestPath, common.LoggerWithComponent(logger, "manifest"))
	if err != nil {
		return fmt.Errorf("failed to create manifest store: %w", err)
	}

	// The sink needs the resume offset up front so it can position the
	// destination file at exactly the durable progress point.
	startOffset, err := store.GetOffset(identity)
	if err != nil {
		return fmt.Errorf("failed to load manifest offset: %w", err)
	}

	sink, err := export.NewFileSink(cfg.Export.OutputPath, startOffset)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}

	reader, err := export.NewReader(source, sink, store, identity, cfg.Export.ChunkSize,
		metricsManager.GetMetrics(), common.LoggerWithComponent(logger, "export"))
	if err != nil {
		sink.Close()
		return err
	}

	logger.Info("blobstream started",
		zap.String("version", common.GetVersion()),
		zap.String("source", cfg.Source.Type),
		zap.String("table", identity.Table),
		zap.String("column", identity.Column),
		zap.String("output_path", cfg.Export.OutputPath),
		zap.Int64("start_offset", startOffset))

	processErr := reader.Process(ctx)

	if err := sink.Close(); err != nil {
		logger.Error("Failed to close output file", zap.Error(err))
		if processErr == nil {
			processErr = err
		}
	}

	if processErr != nil {
		metricsManager.GetMetrics().IncExportsFailed()
		reporter.CaptureError(ctx, processErr,
			observability.NewErrorContext("export", "process").
				WithTable(identity.Table).
				WithColumn(identity.Column).
				WithRunID(runID))
		logger.Error("Export failed; re-run to resume from the last persisted offset",
			zap.Error(processErr))
		return processErr
	}

	metricsManager.GetMetrics().IncExportsCompleted()
	logger.Info("Export completed")
	return nil
}

func buildSource(cfg *config.Config, logger *zap.Logger) (columnSource, error) {
	switch cfg.Source.Type {
	case config.SourceMySQL:
		return mysql.NewColumnSource(&cfg.MySQL, cfg.Export.KeyColumn, cfg.Export.KeyValue,
			common.LoggerWithComponent(logger, "mysql")), nil
	case config.SourceClickHouse:
		return clickhouse.NewColumnSource(&cfg.ClickHouse, cfg.Export.KeyColumn, cfg.Export.KeyValue,
			common.LoggerWithComponent(logger, "clickhouse")), nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Source.Type)
	}
}

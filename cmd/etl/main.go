package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	duckdbadapter "github.com/couchcryptid/covid-pivot-etl/internal/adapter/duckdb"
	kafkaadapter "github.com/couchcryptid/covid-pivot-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-pivot-etl/internal/adapter/shapefile"
	"github.com/couchcryptid/covid-pivot-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/covid-pivot-etl/internal/config"
	"github.com/couchcryptid/covid-pivot-etl/internal/observability"
	"github.com/couchcryptid/covid-pivot-etl/internal/pipeline"
)

const pushJob = "covid_pivot_etl"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := newLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := duckdbadapter.Open(ctx, cfg.DuckDBPath, cfg.ParquetCompression, logger)
	if err != nil {
		logger.Error("failed to open duckdb", "error", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("duckdb close error", "error", err)
		}
	}()

	var opts []pipeline.Option
	if cfg.GeoShapefilePath != "" {
		opts = append(opts, pipeline.WithGeometry(shapefile.NewReader(logger)))
	}
	if cfg.StateWorkbookPath != "" {
		opts = append(opts, pipeline.WithWorkbook(xlsx.NewWorkbook(logger)))
	}
	if cfg.NotifyEnabled() {
		notifier := kafkaadapter.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		opts = append(opts, pipeline.WithNotifier(notifier))
	}

	settings := pipeline.Settings{
		InputPath:        cfg.InputPath,
		StateOutputPath:  cfg.StateOutputPath,
		CountyOutputPath: cfg.CountyOutputPath,
		CountyPivot:      cfg.CountyPivotEnabled,
		FillMissing:      cfg.FillMissing,
		GeoShapefilePath: cfg.GeoShapefilePath,
		MapOutputPath:    cfg.MapOutputPath,
		WorkbookPath:     cfg.StateWorkbookPath,
	}
	p := pipeline.New(settings, store, store, logger, metrics, opts...)

	_, runErr := p.Run(ctx)

	if cfg.PushgatewayURL != "" {
		// Push even after a failure so the failure counter is visible.
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, pushJob); err != nil {
			logger.Error("metrics push failed", "error", err)
		}
	}

	if runErr != nil {
		return 1
	}
	return 0
}

// newLogger builds the process logger from config and installs it as the slog default.
func newLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// cmd/retail-etl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dataforge/retail-etl/pkg/config"
	"github.com/dataforge/retail-etl/pkg/pipeline"
	"github.com/dataforge/retail-etl/pkg/sink"
	"github.com/dataforge/retail-etl/pkg/source"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, source.ErrMissingInput) {
			fmt.Fprintf(os.Stderr, "retail-etl: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "retail-etl: run failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	factory := source.NewSourceFactory(cfg, logger)
	src, err := factory.CreateSource(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s source: %w", cfg.Source, err)
	}
	defer src.Close()

	sinkFactory := sink.NewSinkFactory(cfg, logger)
	out, err := sinkFactory.CreateSink(ctx)
	if err != nil {
		return fmt.Errorf("failed to create %s sink: %w", cfg.Sink, err)
	}
	defer out.Close()

	runner, err := pipeline.NewRunner(src, out, logger)
	if err != nil {
		return err
	}

	result, report, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	for _, violation := range result.Violations {
		logger.Warn("Output invariant violation", zap.String("violation", violation))
	}

	printer := sink.NewSummaryPrinter(os.Stdout)
	printer.Print(result.CustomersOut, result.ProductsOut, result.TransactionsOut, report)

	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.LogFormat == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

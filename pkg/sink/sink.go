// pkg/sink/sink.go
package sink

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/config"
	"github.com/dataforge/retail-etl/pkg/model"
)

// OutputSink persists the cleaned tables, the cleaning audit trail, and
// the report tables of one run.
type OutputSink interface {
	// WriteCleaned persists the three cleaned entity tables
	WriteCleaned(ctx context.Context, customers []model.Customer, products []model.Product, transactions []model.Transaction) error

	// WriteOperations persists the cleaning audit trail
	WriteOperations(ctx context.Context, operations []model.CleaningOperation) error

	// WriteReports persists the five report tables
	WriteReports(ctx context.Context, report *analytics.Report) error

	// Close releases any resources held by the sink
	Close() error
}

// SinkFactory creates output sinks from configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSink builds the output sink selected by the configuration.
func (f *SinkFactory) CreateSink(ctx context.Context) (OutputSink, error) {
	f.logger.Info("Creating output sink", zap.String("kind", f.cfg.Sink))

	switch f.cfg.Sink {
	case config.SinkCSV:
		return NewCSVSink(f.cfg.CleanDir, f.cfg.ReportDir, f.logger)
	case config.SinkSQLite:
		return NewSQLiteSink(ctx, f.cfg.SQLite, f.logger)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", f.cfg.Sink)
	}
}

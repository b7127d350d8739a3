// pkg/source/source.go
package source

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/config"
	"github.com/dataforge/retail-etl/pkg/model"
)

// ErrMissingInput marks a fatal bootstrap condition: one or more required
// raw tables could not be located. The surrounding program reports it and
// exits non-zero; the cleaning core is never invoked.
var ErrMissingInput = errors.New("required input missing")

// TableSource loads the three raw entity tables. Every field is produced
// as raw text so no coercion can fail before the cleaners run.
type TableSource interface {
	// LoadCustomers reads the raw customer table
	LoadCustomers(ctx context.Context) ([]model.RawCustomer, error)

	// LoadProducts reads the raw product table
	LoadProducts(ctx context.Context) ([]model.RawProduct, error)

	// LoadTransactions reads the raw transaction table
	LoadTransactions(ctx context.Context) ([]model.RawTransaction, error)

	// Close releases any resources held by the source
	Close() error
}

// SourceFactory creates table sources from configuration
type SourceFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSourceFactory creates a new source factory
func NewSourceFactory(cfg *config.Config, logger *zap.Logger) *SourceFactory {
	return &SourceFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateSource builds the table source selected by the configuration.
func (f *SourceFactory) CreateSource(ctx context.Context) (TableSource, error) {
	f.logger.Info("Creating table source", zap.String("kind", f.cfg.Source))

	switch f.cfg.Source {
	case config.SourceCSV:
		return NewCSVSource(f.cfg.DataDir, f.logger)
	case config.SourceXLSX:
		return NewXLSXSource(f.cfg.WorkbookPath, f.logger)
	case config.SourcePostgres:
		return NewPostgresSource(ctx, f.cfg.Postgres, f.logger)
	case config.SourceSnowflake:
		return NewSnowflakeSource(ctx, f.cfg.Snowflake, f.logger)
	default:
		return nil, fmt.Errorf("unknown source kind %q", f.cfg.Source)
	}
}

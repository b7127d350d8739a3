// pkg/source/postgres.go
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/config"
)

// PostgresSource reads the three raw tables from a PostgreSQL schema,
// casting every column to text on the way out.
type PostgresSource struct {
	dbSource
	cfg *config.PostgresConfig
}

// NewPostgresSource creates and validates a new PostgreSQL-backed source
func NewPostgresSource(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresSource, error) {
	logger = logger.Named("postgres-source")

	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	schema := cfg.Schema
	return &PostgresSource{
		dbSource: dbSource{
			db:           db,
			logger:       logger,
			queryTimeout: cfg.QueryTimeout,
			customersQuery: fmt.Sprintf(
				`SELECT customer_id::text, name::text, email::text, registration_date::text, country::text, age::text FROM %s.customers`, schema),
			productsQuery: fmt.Sprintf(
				`SELECT product_id::text, product_name::text, category::text, price::text, stock::text FROM %s.products`, schema),
			transactionsQuery: fmt.Sprintf(
				`SELECT transaction_id::text, customer_id::text, product_id::text, quantity::text, transaction_date::text, payment_method::text FROM %s.transactions`, schema),
		},
		cfg: cfg,
	}, nil
}

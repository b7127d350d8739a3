// pkg/source/snowflake.go
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/config"
)

// SnowflakeSource reads the three raw tables from a Snowflake schema,
// converting every column to VARCHAR on the way out.
type SnowflakeSource struct {
	dbSource
	cfg *config.SnowflakeConfig
}

// NewSnowflakeSource creates and validates a new Snowflake-backed source
func NewSnowflakeSource(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeSource, error) {
	logger = logger.Named("snowflake-source")

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse))

	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := pingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	return &SnowflakeSource{
		dbSource: dbSource{
			db:           db,
			logger:       logger,
			queryTimeout: cfg.QueryTimeout,
			customersQuery: `SELECT TO_VARCHAR(customer_id) AS customer_id, TO_VARCHAR(name) AS name, TO_VARCHAR(email) AS email,
				TO_VARCHAR(registration_date) AS registration_date, TO_VARCHAR(country) AS country, TO_VARCHAR(age) AS age FROM customers`,
			productsQuery: `SELECT TO_VARCHAR(product_id) AS product_id, TO_VARCHAR(product_name) AS product_name,
				TO_VARCHAR(category) AS category, TO_VARCHAR(price) AS price, TO_VARCHAR(stock) AS stock FROM products`,
			transactionsQuery: `SELECT TO_VARCHAR(transaction_id) AS transaction_id, TO_VARCHAR(customer_id) AS customer_id,
				TO_VARCHAR(product_id) AS product_id, TO_VARCHAR(quantity) AS quantity,
				TO_VARCHAR(transaction_date) AS transaction_date, TO_VARCHAR(payment_method) AS payment_method FROM transactions`,
		},
		cfg: cfg,
	}, nil
}

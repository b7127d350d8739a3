// pkg/sink/sqlite.go
package sink

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/config"
	"github.com/dataforge/retail-etl/pkg/model"
)

// SQLiteSink writes cleaned tables and reports into one embedded database
// file. Tables are recreated on every run; a run is a full batch, not an
// incremental update.
type SQLiteSink struct {
	db     *sqlx.DB
	path   string
	logger *zap.Logger
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS customers_clean (
		customer_id TEXT,
		name TEXT,
		email TEXT NOT NULL,
		registration_date TEXT,
		country TEXT,
		age INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS products_clean (
		product_id TEXT,
		product_name TEXT,
		category TEXT NOT NULL,
		price REAL NOT NULL,
		stock INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS transactions_clean (
		transaction_id TEXT,
		customer_id TEXT NOT NULL,
		product_id TEXT,
		quantity INTEGER NOT NULL,
		transaction_date TEXT,
		payment_method TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cleaning_operations (
		entity TEXT NOT NULL,
		column_name TEXT,
		row_identifier TEXT,
		original_value TEXT,
		new_value TEXT,
		cleaning_operation TEXT NOT NULL,
		cleaning_reason TEXT NOT NULL,
		cleaned_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS revenue_by_category (category TEXT, revenue REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS revenue_by_country (country TEXT, revenue REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS top_customers (customer_id TEXT, revenue REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS monthly_revenue (month TEXT, revenue REAL NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS payment_share (payment_method TEXT, revenue REAL NOT NULL)`,
}

// NewSQLiteSink opens the database and prepares the output tables.
func NewSQLiteSink(ctx context.Context, cfg *config.SQLiteConfig, logger *zap.Logger) (*SQLiteSink, error) {
	logger = logger.Named("sqlite-sink")

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare output tables: %w", err)
		}
	}

	logger.Info("Opened SQLite sink", zap.String("path", cfg.Path))

	return &SQLiteSink{db: db, path: cfg.Path, logger: logger}, nil
}

// WriteCleaned persists the three cleaned entity tables
func (s *SQLiteSink) WriteCleaned(ctx context.Context, customers []model.Customer, products []model.Product, transactions []model.Transaction) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"customers_clean", "products_clean", "transactions_clean"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, c := range customers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO customers_clean (customer_id, name, email, registration_date, country, age) VALUES (?, ?, ?, ?, ?, ?)`,
				c.CustomerID, c.Name, c.Email, c.RegistrationDate, c.Country, c.Age); err != nil {
				return fmt.Errorf("failed to insert customer: %w", err)
			}
		}

		for _, p := range products {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO products_clean (product_id, product_name, category, price, stock) VALUES (?, ?, ?, ?, ?)`,
				p.ProductID, p.ProductName, p.Category, p.Price, p.Stock); err != nil {
				return fmt.Errorf("failed to insert product: %w", err)
			}
		}

		for _, t := range transactions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO transactions_clean (transaction_id, customer_id, product_id, quantity, transaction_date, payment_method) VALUES (?, ?, ?, ?, ?, ?)`,
				t.TransactionID, t.CustomerID, t.ProductID, t.Quantity, nullableDate(t.TransactionDate), t.PaymentMethod); err != nil {
				return fmt.Errorf("failed to insert transaction: %w", err)
			}
		}

		return nil
	})
}

// WriteOperations persists the cleaning audit trail
func (s *SQLiteSink) WriteOperations(ctx context.Context, operations []model.CleaningOperation) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM cleaning_operations"); err != nil {
			return fmt.Errorf("failed to clear cleaning_operations: %w", err)
		}

		for _, op := range operations {
			record := operationRecord(op)
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cleaning_operations (entity, column_name, row_identifier, original_value, new_value, cleaning_operation, cleaning_reason, cleaned_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				record[0], record[1], record[2], record[3], record[4], record[5], record[6], record[7]); err != nil {
				return fmt.Errorf("failed to insert cleaning operation: %w", err)
			}
		}

		return nil
	})
}

// WriteReports persists the five report tables
func (s *SQLiteSink) WriteReports(ctx context.Context, report *analytics.Report) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		reports := []struct {
			table   string
			keyCol  string
			records [][]string
		}{
			{"revenue_by_category", "category", keyRevenueRecords(report.RevenueByCategory)},
			{"revenue_by_country", "country", keyRevenueRecords(report.RevenueByCountry)},
			{"top_customers", "customer_id", keyRevenueRecords(report.TopCustomers)},
			{"monthly_revenue", "month", monthRevenueRecords(report.MonthlyRevenue)},
			{"payment_share", "payment_method", keyRevenueRecords(report.PaymentShare)},
		}

		for _, r := range reports {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+r.table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", r.table, err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (%s, revenue) VALUES (?, ?)", r.table, r.keyCol)
			for _, record := range r.records {
				if _, err := tx.ExecContext(ctx, insert, record[0], record[1]); err != nil {
					return fmt.Errorf("failed to insert into %s: %w", r.table, err)
				}
			}
		}

		return nil
	})
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	s.logger.Info("Closing SQLite sink", zap.String("path", s.path))
	return s.db.Close()
}

func (s *SQLiteSink) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nullableDate stores dates as day-precision text, NULL when unparsed.
func nullableDate(t sql.NullTime) interface{} {
	if !t.Valid {
		return nil
	}
	return t.Time.Format(dateLayout)
}

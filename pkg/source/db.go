// pkg/source/db.go
package source

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/model"
)

// dbSource implements TableSource over a SQL database. The concrete
// sources only differ in driver, DSN, and the text-cast syntax of their
// SELECT statements; everything else lives here.
type dbSource struct {
	db           *sqlx.DB
	logger       *zap.Logger
	queryTimeout time.Duration

	customersQuery    string
	productsQuery     string
	transactionsQuery string
}

// Row types scanned from the raw tables. Every column is read as nullable
// text; NULLs become empty strings, exactly like an absent CSV field.
type rawCustomerRow struct {
	CustomerID       sql.NullString `db:"customer_id"`
	Name             sql.NullString `db:"name"`
	Email            sql.NullString `db:"email"`
	RegistrationDate sql.NullString `db:"registration_date"`
	Country          sql.NullString `db:"country"`
	Age              sql.NullString `db:"age"`
}

type rawProductRow struct {
	ProductID   sql.NullString `db:"product_id"`
	ProductName sql.NullString `db:"product_name"`
	Category    sql.NullString `db:"category"`
	Price       sql.NullString `db:"price"`
	Stock       sql.NullString `db:"stock"`
}

type rawTransactionRow struct {
	TransactionID   sql.NullString `db:"transaction_id"`
	CustomerID      sql.NullString `db:"customer_id"`
	ProductID       sql.NullString `db:"product_id"`
	Quantity        sql.NullString `db:"quantity"`
	TransactionDate sql.NullString `db:"transaction_date"`
	PaymentMethod   sql.NullString `db:"payment_method"`
}

// LoadCustomers reads the raw customer table
func (s *dbSource) LoadCustomers(ctx context.Context) ([]model.RawCustomer, error) {
	var rows []rawCustomerRow
	if err := s.selectWithTimeout(ctx, &rows, s.customersQuery, "customers"); err != nil {
		return nil, err
	}

	customers := make([]model.RawCustomer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, model.RawCustomer{
			CustomerID:       row.CustomerID.String,
			Name:             row.Name.String,
			Email:            row.Email.String,
			RegistrationDate: row.RegistrationDate.String,
			Country:          row.Country.String,
			Age:              row.Age.String,
		})
	}
	return customers, nil
}

// LoadProducts reads the raw product table
func (s *dbSource) LoadProducts(ctx context.Context) ([]model.RawProduct, error) {
	var rows []rawProductRow
	if err := s.selectWithTimeout(ctx, &rows, s.productsQuery, "products"); err != nil {
		return nil, err
	}

	products := make([]model.RawProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, model.RawProduct{
			ProductID:   row.ProductID.String,
			ProductName: row.ProductName.String,
			Category:    row.Category.String,
			Price:       row.Price.String,
			Stock:       row.Stock.String,
		})
	}
	return products, nil
}

// LoadTransactions reads the raw transaction table
func (s *dbSource) LoadTransactions(ctx context.Context) ([]model.RawTransaction, error) {
	var rows []rawTransactionRow
	if err := s.selectWithTimeout(ctx, &rows, s.transactionsQuery, "transactions"); err != nil {
		return nil, err
	}

	transactions := make([]model.RawTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, model.RawTransaction{
			TransactionID:   row.TransactionID.String,
			CustomerID:      row.CustomerID.String,
			ProductID:       row.ProductID.String,
			Quantity:        row.Quantity.String,
			TransactionDate: row.TransactionDate.String,
			PaymentMethod:   row.PaymentMethod.String,
		})
	}
	return transactions, nil
}

// Close closes the underlying connection pool
func (s *dbSource) Close() error {
	s.logger.Info("Closing database source")
	return s.db.Close()
}

func (s *dbSource) selectWithTimeout(ctx context.Context, dest interface{}, query, table string) error {
	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.db.SelectContext(queryCtx, dest, query); err != nil {
		return fmt.Errorf("failed to load %s table: %w", table, err)
	}

	s.logger.Debug("Loaded database table", zap.String("table", table))
	return nil
}

// pingWithTimeout verifies a fresh connection before the pipeline starts.
func pingWithTimeout(ctx context.Context, db *sqlx.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping failed after %v: %w", timeout, err)
	}
	return nil
}

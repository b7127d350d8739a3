// pkg/sink/sqlite_test.go
package sink

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/config"
	"github.com/dataforge/retail-etl/pkg/model"
)

func newTestSQLiteSink(t *testing.T) (*SQLiteSink, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retail.db")
	sink, err := NewSQLiteSink(context.Background(), &config.SQLiteConfig{Path: path}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })
	return sink, path
}

func TestSQLiteSinkWriteCleaned(t *testing.T) {
	sink, path := newTestSQLiteSink(t)

	customers := []model.Customer{
		{CustomerID: "C1", Name: "Jane", Email: "jane@example.com", Country: "Canada", Age: sql.NullInt64{Int64: 30, Valid: true}},
		{CustomerID: "C2", Name: "Bob", Email: "bob@example.com"},
	}
	products := []model.Product{
		{ProductID: "P1", ProductName: "Widget", Category: "Electronics", Price: 19.99, Stock: 5},
	}
	transactions := []model.Transaction{
		{TransactionID: "T1", CustomerID: "C1", ProductID: "P1", Quantity: 2,
			TransactionDate: sql.NullTime{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true},
			PaymentMethod:   "PayPal"},
		{TransactionID: "T2", CustomerID: "C2", ProductID: "P1", Quantity: 1, PaymentMethod: "Other"},
	}

	require.NoError(t, sink.WriteCleaned(context.Background(), customers, products, transactions))

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var customerCount int
	require.NoError(t, db.Get(&customerCount, "SELECT COUNT(*) FROM customers_clean"))
	assert.Equal(t, 2, customerCount)

	var age sql.NullInt64
	require.NoError(t, db.Get(&age, "SELECT age FROM customers_clean WHERE customer_id = 'C2'"))
	assert.False(t, age.Valid)

	var price float64
	require.NoError(t, db.Get(&price, "SELECT price FROM products_clean WHERE product_id = 'P1'"))
	assert.Equal(t, 19.99, price)

	var txnDate sql.NullString
	require.NoError(t, db.Get(&txnDate, "SELECT transaction_date FROM transactions_clean WHERE transaction_id = 'T1'"))
	require.True(t, txnDate.Valid)
	assert.Equal(t, "2024-06-01", txnDate.String)

	require.NoError(t, db.Get(&txnDate, "SELECT transaction_date FROM transactions_clean WHERE transaction_id = 'T2'"))
	assert.False(t, txnDate.Valid)
}

func TestSQLiteSinkRerunReplacesRows(t *testing.T) {
	sink, path := newTestSQLiteSink(t)
	ctx := context.Background()

	first := []model.Customer{{CustomerID: "C1", Email: "a@example.com"}, {CustomerID: "C2", Email: "b@example.com"}}
	require.NoError(t, sink.WriteCleaned(ctx, first, nil, nil))

	second := []model.Customer{{CustomerID: "C3", Email: "c@example.com"}}
	require.NoError(t, sink.WriteCleaned(ctx, second, nil, nil))

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var ids []string
	require.NoError(t, db.Select(&ids, "SELECT customer_id FROM customers_clean"))
	assert.Equal(t, []string{"C3"}, ids)
}

func TestSQLiteSinkWriteReports(t *testing.T) {
	sink, path := newTestSQLiteSink(t)

	report := &analytics.Report{
		TotalRevenue: 320,
		RevenueByCategory: []analytics.KeyRevenue{
			{Key: "Electronics", Revenue: 300},
			{Key: "Books", Revenue: 20},
		},
		TopCustomers: []analytics.KeyRevenue{{Key: "C1", Revenue: 320}},
		MonthlyRevenue: []analytics.MonthRevenue{
			{Month: sql.NullTime{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true}, Revenue: 320},
		},
		PaymentShare: []analytics.KeyRevenue{{Key: "PayPal", Revenue: 320}},
	}

	require.NoError(t, sink.WriteReports(context.Background(), report))

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	type row struct {
		Category string  `db:"category"`
		Revenue  float64 `db:"revenue"`
	}
	var rows []row
	require.NoError(t, db.Select(&rows, "SELECT category, revenue FROM revenue_by_category ORDER BY revenue DESC"))
	require.Len(t, rows, 2)
	assert.Equal(t, row{Category: "Electronics", Revenue: 300}, rows[0])
	assert.Equal(t, row{Category: "Books", Revenue: 20}, rows[1])

	var month string
	require.NoError(t, db.Get(&month, "SELECT month FROM monthly_revenue"))
	assert.Equal(t, "2024-06-01", month)
}

func TestSQLiteSinkWriteOperations(t *testing.T) {
	sink, path := newTestSQLiteSink(t)

	ops := []model.CleaningOperation{
		model.NewCleaningOperation("products", "price", "P1", "", "100", "price_imputation", "category_median"),
	}
	require.NoError(t, sink.WriteOperations(context.Background(), ops))

	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	type opRow struct {
		Entity    string `db:"entity"`
		Operation string `db:"cleaning_operation"`
		Reason    string `db:"cleaning_reason"`
	}
	var rows []opRow
	require.NoError(t, db.Select(&rows, "SELECT entity, cleaning_operation, cleaning_reason FROM cleaning_operations"))
	require.Len(t, rows, 1)
	assert.Equal(t, opRow{Entity: "products", Operation: "price_imputation", Reason: "category_median"}, rows[0])
}

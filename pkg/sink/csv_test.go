// pkg/sink/csv_test.go
package sink

import (
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/model"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVSinkWriteCleaned(t *testing.T) {
	dir := t.TempDir()
	cleanDir := filepath.Join(dir, "clean")
	reportDir := filepath.Join(dir, "reports")

	sink, err := NewCSVSink(cleanDir, reportDir, zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	customers := []model.Customer{
		{CustomerID: "C1", Name: "Jane Doe", Email: "jane@example.com", RegistrationDate: "2023-01-01", Country: "United States", Age: sql.NullInt64{Int64: 30, Valid: true}},
		{CustomerID: "C2", Name: "Bob", Email: "bob@example.com", Country: "Canada"},
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

	customerRows := readCSV(t, filepath.Join(cleanDir, "customers_clean.csv"))
	require.Len(t, customerRows, 3)
	assert.Equal(t, model.CustomerColumns, customerRows[0])
	assert.Equal(t, []string{"C1", "Jane Doe", "jane@example.com", "2023-01-01", "United States", "30"}, customerRows[1])
	// Null age serializes as an empty field.
	assert.Equal(t, "", customerRows[2][5])

	productRows := readCSV(t, filepath.Join(cleanDir, "products_clean.csv"))
	require.Len(t, productRows, 2)
	assert.Equal(t, []string{"P1", "Widget", "Electronics", "19.99", "5"}, productRows[1])

	transactionRows := readCSV(t, filepath.Join(cleanDir, "transactions_clean.csv"))
	require.Len(t, transactionRows, 3)
	assert.Equal(t, []string{"T1", "C1", "P1", "2", "2024-06-01", "PayPal"}, transactionRows[1])
	// Null transaction date serializes as an empty field.
	assert.Equal(t, "", transactionRows[2][4])
}

func TestCSVSinkWriteOperations(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewCSVSink(filepath.Join(dir, "clean"), filepath.Join(dir, "reports"), zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	op := model.NewCleaningOperation("customers", "age", "C1", "30 yrs", "30", "age_extraction", "non_numeric_age")
	require.NoError(t, sink.WriteOperations(context.Background(), []model.CleaningOperation{op}))

	rows := readCSV(t, filepath.Join(dir, "clean", "cleaning_operations.csv"))
	require.Len(t, rows, 2)
	assert.Equal(t, model.CleaningOperationColumns, rows[0])
	assert.Equal(t, "customers", rows[1][0])
	assert.Equal(t, "age", rows[1][1])
	assert.Equal(t, "C1", rows[1][2])
	assert.Equal(t, "30 yrs", rows[1][3])
	assert.Equal(t, "30", rows[1][4])
	assert.Equal(t, "age_extraction", rows[1][5])
	assert.Equal(t, "non_numeric_age", rows[1][6])
	_, parseErr := time.Parse(time.RFC3339, rows[1][7])
	assert.NoError(t, parseErr)
}

func TestCSVSinkWriteReports(t *testing.T) {
	dir := t.TempDir()
	reportDir := filepath.Join(dir, "reports")
	sink, err := NewCSVSink(filepath.Join(dir, "clean"), reportDir, zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	report := &analytics.Report{
		TotalRevenue:  420,
		AvgOrderValue: 140,
		RevenueByCategory: []analytics.KeyRevenue{
			{Key: "Electronics", Revenue: 400},
			{Key: "Books", Revenue: 20},
		},
		RevenueByCountry: []analytics.KeyRevenue{{Key: "Canada", Revenue: 420}},
		TopCustomers:     []analytics.KeyRevenue{{Key: "C1", Revenue: 420}},
		MonthlyRevenue: []analytics.MonthRevenue{
			{Revenue: 20},
			{Month: sql.NullTime{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Valid: true}, Revenue: 400},
		},
		PaymentShare: []analytics.KeyRevenue{{Key: "PayPal", Revenue: 420}},
	}

	require.NoError(t, sink.WriteReports(context.Background(), report))

	categoryRows := readCSV(t, filepath.Join(reportDir, "revenue_by_category.csv"))
	require.Len(t, categoryRows, 3)
	assert.Equal(t, []string{"category", "revenue"}, categoryRows[0])
	assert.Equal(t, []string{"Electronics", "400"}, categoryRows[1])
	assert.Equal(t, []string{"Books", "20"}, categoryRows[2])

	monthlyRows := readCSV(t, filepath.Join(reportDir, "monthly_revenue.csv"))
	require.Len(t, monthlyRows, 3)
	assert.Equal(t, []string{"month", "revenue"}, monthlyRows[0])
	// The null month bucket serializes its key as empty.
	assert.Equal(t, []string{"", "20"}, monthlyRows[1])
	assert.Equal(t, []string{"2024-01-01", "400"}, monthlyRows[2])

	for _, name := range []string{"revenue_by_country.csv", "top_customers.csv", "payment_share.csv"} {
		rows := readCSV(t, filepath.Join(reportDir, name))
		assert.Len(t, rows, 2, name)
	}
}

func TestCSVSinkEmptyTablesStillWriteHeaders(t *testing.T) {
	dir := t.TempDir()
	cleanDir := filepath.Join(dir, "clean")
	sink, err := NewCSVSink(cleanDir, filepath.Join(dir, "reports"), zap.NewNop())
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.WriteCleaned(context.Background(), nil, nil, nil))
	require.NoError(t, sink.WriteOperations(context.Background(), nil))

	rows := readCSV(t, filepath.Join(cleanDir, "customers_clean.csv"))
	require.Len(t, rows, 1)
	assert.Equal(t, model.CustomerColumns, rows[0])
}

func TestFormatFloatDropsTrailingZeros(t *testing.T) {
	assert.Equal(t, "19.99", formatFloat(19.99))
	assert.Equal(t, "20", formatFloat(20.0))
	assert.Equal(t, "0.5", formatFloat(0.5))
}

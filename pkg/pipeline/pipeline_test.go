// pkg/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/sink"
	"github.com/dataforge/retail-etl/pkg/source"
)

func writeFixture(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	return records
}

func TestRunnerEndToEnd(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	originalDir := filepath.Join(dataDir, "original")
	cleanDir := filepath.Join(dataDir, "clean")
	reportDir := filepath.Join(root, "reports")

	writeFixture(t, originalDir, "customers.csv",
		"customer_id,name,email,registration_date,country,age\n"+
			"C1,Jane Doe,,2023-01-01,USA,30 yrs\n"+
			"C1,Jane Doe,,2023-01-01,USA,30 yrs\n"+ // exact duplicate
			"C2,Bob Ray,bob@example.com,2023-02-01,Canada,41\n")

	writeFixture(t, originalDir, "products.csv",
		"product_id,product_name,category,price,stock\n"+
			"P1, Widget ,electronics,100,50\n"+
			"P2,Gadget,electronics,,5000\n"+ // missing price, stock over cap
			"P3,Thing,mystery,20,-3\n")

	writeFixture(t, originalDir, "transactions.csv",
		"transaction_id,customer_id,product_id,quantity,transaction_date,payment_method\n"+
			"T1,C1,P1,2,2024-06-01,paypal\n"+
			"T1,C1,P1,2,2024-06-01,paypal\n"+ // duplicate id
			"T2,C2,P2,0,2025-06-01,credit card\n"+ // quantity floored, date clamped
			"T3,C404,P1,1,2024-06-01,paypal\n") // orphan customer

	logger := zap.NewNop()
	src, err := source.NewCSVSource(dataDir, logger)
	require.NoError(t, err)
	defer src.Close()

	out, err := sink.NewCSVSink(cleanDir, reportDir, logger)
	require.NoError(t, err)
	defer out.Close()

	runner, err := NewRunner(src, out, logger)
	require.NoError(t, err)

	result, report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.False(t, result.EndTime.IsZero())
	assert.Empty(t, result.Violations)

	assert.Equal(t, 3, result.CustomersIn)
	assert.Equal(t, 2, result.CustomersOut)
	assert.Equal(t, 3, result.ProductsIn)
	assert.Equal(t, 3, result.ProductsOut)
	assert.Equal(t, 4, result.TransactionsIn)
	assert.Equal(t, 2, result.TransactionsOut)

	// T1: 2 * 100 = 200. T2: quantity floored to 1 against the imputed
	// electronics price of 100.
	assert.Equal(t, 2, report.FactRows)
	assert.InDelta(t, 300.0, report.TotalRevenue, 1e-9)
	assert.InDelta(t, 150.0, report.AvgOrderValue, 1e-9)

	customerRows := readCSV(t, filepath.Join(cleanDir, "customers_clean.csv"))
	require.Len(t, customerRows, 3)
	assert.Equal(t, "jane.doe.c1@example.com", customerRows[1][2])
	assert.Equal(t, "United States", customerRows[1][4])
	assert.Equal(t, "30", customerRows[1][5])

	productRows := readCSV(t, filepath.Join(cleanDir, "products_clean.csv"))
	require.Len(t, productRows, 4)
	assert.Equal(t, "Widget", productRows[1][1])
	assert.Equal(t, "100", productRows[2][3]) // imputed from the electronics median
	assert.Equal(t, "1000", productRows[2][4])
	assert.Equal(t, "Other", productRows[3][2])
	assert.Equal(t, "0", productRows[3][4])

	transactionRows := readCSV(t, filepath.Join(cleanDir, "transactions_clean.csv"))
	require.Len(t, transactionRows, 3)
	assert.Equal(t, "2024-06-01", transactionRows[1][4])
	assert.Equal(t, "1", transactionRows[2][3])
	assert.Equal(t, "2024-12-31", transactionRows[2][4])
	assert.Equal(t, "Credit Card", transactionRows[2][5])

	operationRows := readCSV(t, filepath.Join(cleanDir, "cleaning_operations.csv"))
	assert.Greater(t, len(operationRows), 1)
	assert.Equal(t, result.CleaningOperations, len(operationRows)-1)

	categoryRows := readCSV(t, filepath.Join(reportDir, "revenue_by_category.csv"))
	require.Len(t, categoryRows, 2)
	assert.Equal(t, []string{"Electronics", "300"}, categoryRows[1])

	countryRows := readCSV(t, filepath.Join(reportDir, "revenue_by_country.csv"))
	require.Len(t, countryRows, 3)
	assert.Equal(t, []string{"United States", "200"}, countryRows[1])
	assert.Equal(t, []string{"Canada", "100"}, countryRows[2])

	topRows := readCSV(t, filepath.Join(reportDir, "top_customers.csv"))
	require.Len(t, topRows, 3)
	assert.Equal(t, []string{"C1", "200"}, topRows[1])

	monthlyRows := readCSV(t, filepath.Join(reportDir, "monthly_revenue.csv"))
	require.Len(t, monthlyRows, 3)
	assert.Equal(t, []string{"2024-06-01", "200"}, monthlyRows[1])
	assert.Equal(t, []string{"2024-12-01", "100"}, monthlyRows[2])

	paymentRows := readCSV(t, filepath.Join(reportDir, "payment_share.csv"))
	require.Len(t, paymentRows, 3)
	assert.Equal(t, []string{"PayPal", "200"}, paymentRows[1])
	assert.Equal(t, []string{"Credit Card", "100"}, paymentRows[2])
}

func TestRunnerDeterministicAcrossRuns(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	originalDir := filepath.Join(dataDir, "original")

	writeFixture(t, originalDir, "customers.csv",
		"customer_id,name,email,registration_date,country,age\nC1,A B,,2023-01-01,US,30\n")
	writeFixture(t, originalDir, "products.csv",
		"product_id,product_name,category,price,stock\nP1,X,books,10,1\n")
	writeFixture(t, originalDir, "transactions.csv",
		"transaction_id,customer_id,product_id,quantity,transaction_date,payment_method\nT1,C1,P1,3,2024-03-05,paypal\n")

	logger := zap.NewNop()

	var firstClean, firstReports map[string][][]string
	for run := 0; run < 2; run++ {
		cleanDir := filepath.Join(root, "clean")
		reportDir := filepath.Join(root, "reports")

		src, err := source.NewCSVSource(dataDir, logger)
		require.NoError(t, err)
		out, err := sink.NewCSVSink(cleanDir, reportDir, logger)
		require.NoError(t, err)

		runner, err := NewRunner(src, out, logger)
		require.NoError(t, err)
		_, _, err = runner.Run(context.Background())
		require.NoError(t, err)
		require.NoError(t, src.Close())
		require.NoError(t, out.Close())

		clean := map[string][][]string{}
		for _, name := range []string{"customers_clean.csv", "products_clean.csv", "transactions_clean.csv"} {
			clean[name] = readCSV(t, filepath.Join(cleanDir, name))
		}
		reports := map[string][][]string{}
		for _, name := range []string{"revenue_by_category.csv", "revenue_by_country.csv", "top_customers.csv", "monthly_revenue.csv", "payment_share.csv"} {
			reports[name] = readCSV(t, filepath.Join(reportDir, name))
		}

		if run == 0 {
			firstClean, firstReports = clean, reports
			continue
		}
		assert.Equal(t, firstClean, clean)
		assert.Equal(t, firstReports, reports)
	}
}

func TestNewRunnerValidation(t *testing.T) {
	logger := zap.NewNop()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	writeFixture(t, filepath.Join(dataDir, "original"), "customers.csv", "customer_id\n")
	writeFixture(t, filepath.Join(dataDir, "original"), "products.csv", "product_id\n")
	writeFixture(t, filepath.Join(dataDir, "original"), "transactions.csv", "transaction_id\n")

	src, err := source.NewCSVSource(dataDir, logger)
	require.NoError(t, err)
	defer src.Close()

	out, err := sink.NewCSVSink(filepath.Join(root, "clean"), filepath.Join(root, "reports"), logger)
	require.NoError(t, err)
	defer out.Close()

	_, err = NewRunner(nil, out, logger)
	assert.Error(t, err)
	_, err = NewRunner(src, nil, logger)
	assert.Error(t, err)
	_, err = NewRunner(src, out, nil)
	assert.Error(t, err)

	runner, err := NewRunner(src, out, logger)
	require.NoError(t, err)
	assert.NotNil(t, runner)
}

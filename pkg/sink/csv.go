// pkg/sink/csv.go
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/model"
)

// Output file names. Cleaned tables go to the clean directory, report
// tables to the report directory.
const (
	customersCleanFile    = "customers_clean.csv"
	productsCleanFile     = "products_clean.csv"
	transactionsCleanFile = "transactions_clean.csv"
	operationsFile        = "cleaning_operations.csv"

	revenueByCategoryFile = "revenue_by_category.csv"
	revenueByCountryFile  = "revenue_by_country.csv"
	topCustomersFile      = "top_customers.csv"
	monthlyRevenueFile    = "monthly_revenue.csv"
	paymentShareFile      = "payment_share.csv"
)

// CSVSink writes cleaned tables and reports as flat CSV files with fixed
// column orders.
type CSVSink struct {
	cleanDir  string
	reportDir string
	logger    *zap.Logger
}

// NewCSVSink prepares the output directories.
func NewCSVSink(cleanDir, reportDir string, logger *zap.Logger) (*CSVSink, error) {
	for _, dir := range []string{cleanDir, reportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}
	return &CSVSink{cleanDir: cleanDir, reportDir: reportDir, logger: logger}, nil
}

// WriteCleaned persists the three cleaned entity tables
func (s *CSVSink) WriteCleaned(ctx context.Context, customers []model.Customer, products []model.Product, transactions []model.Transaction) error {
	customerRecords := make([][]string, 0, len(customers))
	for _, c := range customers {
		customerRecords = append(customerRecords, customerRecord(c))
	}
	if err := s.writeFile(ctx, s.cleanDir, customersCleanFile, model.CustomerColumns, customerRecords); err != nil {
		return err
	}

	productRecords := make([][]string, 0, len(products))
	for _, p := range products {
		productRecords = append(productRecords, productRecord(p))
	}
	if err := s.writeFile(ctx, s.cleanDir, productsCleanFile, model.ProductColumns, productRecords); err != nil {
		return err
	}

	transactionRecords := make([][]string, 0, len(transactions))
	for _, t := range transactions {
		transactionRecords = append(transactionRecords, transactionRecord(t))
	}
	return s.writeFile(ctx, s.cleanDir, transactionsCleanFile, model.TransactionColumns, transactionRecords)
}

// WriteOperations persists the cleaning audit trail
func (s *CSVSink) WriteOperations(ctx context.Context, operations []model.CleaningOperation) error {
	records := make([][]string, 0, len(operations))
	for _, op := range operations {
		records = append(records, operationRecord(op))
	}
	return s.writeFile(ctx, s.cleanDir, operationsFile, model.CleaningOperationColumns, records)
}

// WriteReports persists the five report tables
func (s *CSVSink) WriteReports(ctx context.Context, report *analytics.Report) error {
	if err := s.writeFile(ctx, s.reportDir, revenueByCategoryFile, []string{"category", "revenue"}, keyRevenueRecords(report.RevenueByCategory)); err != nil {
		return err
	}
	if err := s.writeFile(ctx, s.reportDir, revenueByCountryFile, []string{"country", "revenue"}, keyRevenueRecords(report.RevenueByCountry)); err != nil {
		return err
	}
	if err := s.writeFile(ctx, s.reportDir, topCustomersFile, []string{"customer_id", "revenue"}, keyRevenueRecords(report.TopCustomers)); err != nil {
		return err
	}
	if err := s.writeFile(ctx, s.reportDir, monthlyRevenueFile, []string{"month", "revenue"}, monthRevenueRecords(report.MonthlyRevenue)); err != nil {
		return err
	}
	return s.writeFile(ctx, s.reportDir, paymentShareFile, []string{"payment_method", "revenue"}, keyRevenueRecords(report.PaymentShare))
}

// Close releases any resources held by the sink
func (s *CSVSink) Close() error {
	return nil
}

// writeFile writes one CSV file with a header row.
func (s *CSVSink) writeFile(ctx context.Context, dir, name string, header []string, records [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(dir, name)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", path, err)
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d of %s: %w", i, path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	s.logger.Debug("Wrote CSV file",
		zap.String("file", path),
		zap.Int("rows", len(records)))

	return nil
}

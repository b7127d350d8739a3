// pkg/source/csv.go
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/model"
)

// Input file names expected under <dataDir>/original.
const (
	customersFile    = "customers.csv"
	productsFile     = "products.csv"
	transactionsFile = "transactions.csv"
)

// CSVSource reads the three raw tables from CSV files under
// <dataDir>/original. Files found at the project root are copied into
// place first, matching the bootstrap behavior users expect.
type CSVSource struct {
	originalDir string
	logger      *zap.Logger
}

// NewCSVSource prepares the directory layout and verifies that every
// required input file exists. A missing file is fatal here, before any
// cleaning work starts.
func NewCSVSource(dataDir string, logger *zap.Logger) (*CSVSource, error) {
	originalDir := filepath.Join(dataDir, "original")
	if err := os.MkdirAll(originalDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create input directory: %w", err)
	}

	var missing []string
	for _, name := range []string{customersFile, productsFile, transactionsFile} {
		target := filepath.Join(originalDir, name)
		if _, err := os.Stat(target); err == nil {
			continue
		}

		// Auto-copy from the directory above dataDir when present there.
		rootCopy := filepath.Join(filepath.Dir(dataDir), name)
		if copyFile(rootCopy, target) == nil {
			logger.Info("Copied input file into place",
				zap.String("from", rootCopy),
				zap.String("to", target))
			continue
		}

		missing = append(missing, name)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s not found in %s; generate the raw datasets and place them there (or in the project root for auto-copy), then re-run",
			ErrMissingInput, strings.Join(missing, ", "), originalDir)
	}

	return &CSVSource{originalDir: originalDir, logger: logger}, nil
}

// LoadCustomers reads the raw customer table
func (s *CSVSource) LoadCustomers(ctx context.Context) ([]model.RawCustomer, error) {
	rows, header, err := s.readTable(ctx, customersFile)
	if err != nil {
		return nil, err
	}

	customers := make([]model.RawCustomer, 0, len(rows))
	for _, row := range rows {
		customers = append(customers, model.RawCustomer{
			CustomerID:       header.Field(row, "customer_id"),
			Name:             header.Field(row, "name"),
			Email:            header.Field(row, "email"),
			RegistrationDate: header.Field(row, "registration_date"),
			Country:          header.Field(row, "country"),
			Age:              header.Field(row, "age"),
		})
	}
	return customers, nil
}

// LoadProducts reads the raw product table
func (s *CSVSource) LoadProducts(ctx context.Context) ([]model.RawProduct, error) {
	rows, header, err := s.readTable(ctx, productsFile)
	if err != nil {
		return nil, err
	}

	products := make([]model.RawProduct, 0, len(rows))
	for _, row := range rows {
		products = append(products, model.RawProduct{
			ProductID:   header.Field(row, "product_id"),
			ProductName: header.Field(row, "product_name"),
			Category:    header.Field(row, "category"),
			Price:       header.Field(row, "price"),
			Stock:       header.Field(row, "stock"),
		})
	}
	return products, nil
}

// LoadTransactions reads the raw transaction table
func (s *CSVSource) LoadTransactions(ctx context.Context) ([]model.RawTransaction, error) {
	rows, header, err := s.readTable(ctx, transactionsFile)
	if err != nil {
		return nil, err
	}

	transactions := make([]model.RawTransaction, 0, len(rows))
	for _, row := range rows {
		transactions = append(transactions, model.RawTransaction{
			TransactionID:   header.Field(row, "transaction_id"),
			CustomerID:      header.Field(row, "customer_id"),
			ProductID:       header.Field(row, "product_id"),
			Quantity:        header.Field(row, "quantity"),
			TransactionDate: header.Field(row, "transaction_date"),
			PaymentMethod:   header.Field(row, "payment_method"),
		})
	}
	return transactions, nil
}

// Close releases any resources held by the source
func (s *CSVSource) Close() error {
	return nil
}

// readTable parses one CSV file into its header index and data rows.
func (s *CSVSource) readTable(ctx context.Context, name string) ([][]string, model.HeaderIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	path := filepath.Join(s.originalDir, name)
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // tolerate ragged rows, missing fields read as ""

	header, err := reader.Read()
	if err == io.EOF {
		return nil, model.NewHeaderIndex(nil), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, row)
	}

	s.logger.Debug("Loaded CSV table",
		zap.String("file", name),
		zap.Int("rows", len(rows)))

	return rows, model.NewHeaderIndex(header), nil
}

// copyFile copies src to dst, failing if src does not exist.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

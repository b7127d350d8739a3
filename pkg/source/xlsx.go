// pkg/source/xlsx.go
package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/model"
)

// Sheet names expected in the input workbook.
const (
	customersSheet    = "customers"
	productsSheet     = "products"
	transactionsSheet = "transactions"
)

// XLSXSource reads the three raw tables from one workbook, one sheet per
// entity. Cell values arrive as strings already, which matches the
// text-first loading contract.
type XLSXSource struct {
	workbook *excelize.File
	path     string
	logger   *zap.Logger
}

// NewXLSXSource opens the workbook and verifies the three sheets exist.
func NewXLSXSource(path string, logger *zap.Logger) (*XLSXSource, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open workbook %s: %v; set WORKBOOK_PATH to a workbook with customers, products and transactions sheets",
			ErrMissingInput, path, err)
	}

	for _, sheet := range []string{customersSheet, productsSheet, transactionsSheet} {
		index, err := workbook.GetSheetIndex(sheet)
		if err != nil || index < 0 {
			workbook.Close()
			return nil, fmt.Errorf("%w: workbook %s has no %q sheet", ErrMissingInput, path, sheet)
		}
	}

	return &XLSXSource{workbook: workbook, path: path, logger: logger}, nil
}

// LoadCustomers reads the raw customer table
func (s *XLSXSource) LoadCustomers(ctx context.Context) ([]model.RawCustomer, error) {
	rows, header, err := s.readSheet(ctx, customersSheet)
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
func (s *XLSXSource) LoadProducts(ctx context.Context) ([]model.RawProduct, error) {
	rows, header, err := s.readSheet(ctx, productsSheet)
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
func (s *XLSXSource) LoadTransactions(ctx context.Context) ([]model.RawTransaction, error) {
	rows, header, err := s.readSheet(ctx, transactionsSheet)
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

// Close releases the open workbook
func (s *XLSXSource) Close() error {
	return s.workbook.Close()
}

// readSheet returns the data rows and header index of one sheet.
func (s *XLSXSource) readSheet(ctx context.Context, sheet string) ([][]string, model.HeaderIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	rows, err := s.workbook.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s of %s: %w", sheet, s.path, err)
	}
	if len(rows) == 0 {
		return nil, model.NewHeaderIndex(nil), nil
	}

	s.logger.Debug("Loaded workbook sheet",
		zap.String("sheet", sheet),
		zap.Int("rows", len(rows)-1))

	return rows[1:], model.NewHeaderIndex(rows[0]), nil
}

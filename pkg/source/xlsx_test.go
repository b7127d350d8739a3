// pkg/source/xlsx_test.go
package source

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()

	workbook := excelize.NewFile()
	defer workbook.Close()

	for sheet, rows := range sheets {
		_, err := workbook.NewSheet(sheet)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, workbook.SetSheetRow(sheet, cell, &row))
		}
	}
	require.NoError(t, workbook.DeleteSheet("Sheet1"))
	require.NoError(t, workbook.SaveAs(path))
}

func defaultWorkbookSheets() map[string][][]interface{} {
	return map[string][][]interface{}{
		"customers": {
			{"customer_id", "name", "email", "registration_date", "country", "age"},
			{"C1", "Jane Doe", "jane@x.com", "2023-01-01", "USA", "30"},
		},
		"products": {
			{"product_id", "product_name", "category", "price", "stock"},
			{"P1", "Widget", "electronics", "19.99", "5"},
		},
		"transactions": {
			{"transaction_id", "customer_id", "product_id", "quantity", "transaction_date", "payment_method"},
			{"T1", "C1", "P1", "2", "2024-06-01", "paypal"},
		},
	}
}

func TestXLSXSourceLoadsAllTables(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.xlsx")
	writeWorkbook(t, path, defaultWorkbookSheets())

	src, err := NewXLSXSource(path, zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	ctx := context.Background()

	customers, err := src.LoadCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "C1", customers[0].CustomerID)
	assert.Equal(t, "30", customers[0].Age)

	products, err := src.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "19.99", products[0].Price)

	transactions, err := src.LoadTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, "paypal", transactions[0].PaymentMethod)
}

func TestXLSXSourceMissingWorkbook(t *testing.T) {
	_, err := NewXLSXSource(filepath.Join(t.TempDir(), "absent.xlsx"), zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestXLSXSourceMissingSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.xlsx")
	sheets := defaultWorkbookSheets()
	delete(sheets, "transactions")
	writeWorkbook(t, path, sheets)

	_, err := NewXLSXSource(path, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingInput)
	assert.Contains(t, err.Error(), "transactions")
}

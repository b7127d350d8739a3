// pkg/sink/format.go
package sink

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/model"
)

const dateLayout = "2006-01-02"

func formatAge(age sql.NullInt64) string {
	if !age.Valid {
		return ""
	}
	return strconv.FormatInt(age.Int64, 10)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(dateLayout)
}

func customerRecord(c model.Customer) []string {
	return []string{c.CustomerID, c.Name, c.Email, c.RegistrationDate, c.Country, formatAge(c.Age)}
}

func productRecord(p model.Product) []string {
	return []string{p.ProductID, p.ProductName, p.Category, formatFloat(p.Price), strconv.FormatInt(p.Stock, 10)}
}

func transactionRecord(t model.Transaction) []string {
	return []string{t.TransactionID, t.CustomerID, t.ProductID, strconv.FormatInt(t.Quantity, 10), formatDate(t.TransactionDate), t.PaymentMethod}
}

func operationRecord(op model.CleaningOperation) []string {
	return []string{op.Entity, op.ColumnName, op.RowIdentifier, op.OriginalValue, op.NewValue, op.CleaningOperation, op.CleaningReason, op.CleanedAt.UTC().Format(time.RFC3339)}
}

func keyRevenueRecords(rows []analytics.KeyRevenue) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{row.Key, formatFloat(row.Revenue)})
	}
	return records
}

func monthRevenueRecords(rows []analytics.MonthRevenue) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{formatDate(row.Month), formatFloat(row.Revenue)})
	}
	return records
}

// pkg/analytics/types.go
package analytics

import (
	"database/sql"
)

// Fact is a denormalized transaction row used only for report derivation.
// Price and Category stay null when the product reference is an orphan;
// the customer join is total because the cleaner already filtered
// transactions against the cleaned customer set.
type Fact struct {
	TransactionID string
	CustomerID    string
	ProductID     string
	Quantity      int64
	Date          sql.NullTime
	PaymentMethod string
	Price         sql.NullFloat64
	Category      sql.NullString
	Country       string
	Revenue       sql.NullFloat64
}

// KeyRevenue is one row of a grouped revenue report.
type KeyRevenue struct {
	Key     string
	Revenue float64
}

// MonthRevenue is one row of the monthly revenue report. A null month
// collects the fact rows whose transaction date could not be parsed.
type MonthRevenue struct {
	Month   sql.NullTime
	Revenue float64
}

// Report bundles the report tables and KPI scalars of one analytics run.
type Report struct {
	TotalRevenue  float64
	AvgOrderValue float64

	RevenueByCategory []KeyRevenue
	RevenueByCountry  []KeyRevenue
	TopCustomers      []KeyRevenue
	MonthlyRevenue    []MonthRevenue
	PaymentShare      []KeyRevenue

	FactRows int
}

// pkg/sink/summary.go
package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/dataforge/retail-etl/pkg/analytics"
)

// SummaryPrinter renders a human-readable digest of already-computed
// results. Pure presentation: nothing here recomputes a number.
type SummaryPrinter struct {
	out io.Writer
}

// NewSummaryPrinter creates a printer writing to out.
func NewSummaryPrinter(out io.Writer) *SummaryPrinter {
	return &SummaryPrinter{out: out}
}

// Print writes the run digest: row counts, KPIs, and the report tables.
func (p *SummaryPrinter) Print(customerRows, productRows, transactionRows int, report *analytics.Report) {
	rule := strings.Repeat("=", 60)

	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out, "Cleaned Data Summary")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintf(p.out, "customers_clean:    %d rows\n", customerRows)
	fmt.Fprintf(p.out, "products_clean:     %d rows\n", productRows)
	fmt.Fprintf(p.out, "transactions_clean: %d rows\n", transactionRows)
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, rule)
	fmt.Fprintln(p.out, "KPIs")
	fmt.Fprintln(p.out, rule)
	fmt.Fprintf(p.out, "Total Revenue:         %.2f\n", report.TotalRevenue)
	fmt.Fprintf(p.out, "Average Order Value:   %.2f\n", report.AvgOrderValue)
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, "Top 5 Customers by Revenue:")
	p.printKeyRevenue(report.TopCustomers)

	fmt.Fprintln(p.out, "Revenue by Category:")
	p.printKeyRevenue(report.RevenueByCategory)

	fmt.Fprintln(p.out, "Monthly Revenue:")
	for _, row := range report.MonthlyRevenue {
		month := "(no date)"
		if row.Month.Valid {
			month = row.Month.Time.Format("2006-01")
		}
		fmt.Fprintf(p.out, "  %-20s %12.2f\n", month, row.Revenue)
	}
	fmt.Fprintln(p.out)

	fmt.Fprintln(p.out, "Payment Method Share:")
	p.printKeyRevenue(report.PaymentShare)
}

func (p *SummaryPrinter) printKeyRevenue(rows []analytics.KeyRevenue) {
	for _, row := range rows {
		key := row.Key
		if key == "" {
			key = "(none)"
		}
		fmt.Fprintf(p.out, "  %-20s %12.2f\n", key, row.Revenue)
	}
	fmt.Fprintln(p.out)
}

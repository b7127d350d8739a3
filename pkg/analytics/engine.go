// pkg/analytics/engine.go
package analytics

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/model"
)

// Engine derives the report bundle from the three cleaned tables. It is a
// pure function of its inputs: no external state, fully reproducible.
type Engine struct {
	logger *zap.Logger
	topN   int
}

// NewEngine creates a new analytics engine
func NewEngine(logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Engine{logger: logger, topN: 5}, nil
}

// BuildFacts left-joins transactions with product price/category and
// customer country. Orphan product references keep null price and
// category instead of dropping the row.
func (e *Engine) BuildFacts(transactions []model.Transaction, products []model.Product, customers []model.Customer) []Fact {
	productByID := make(map[string]model.Product, len(products))
	for _, p := range products {
		if _, exists := productByID[p.ProductID]; !exists {
			productByID[p.ProductID] = p
		}
	}

	countryByCustomer := make(map[string]string, len(customers))
	for _, c := range customers {
		if _, exists := countryByCustomer[c.CustomerID]; !exists {
			countryByCustomer[c.CustomerID] = c.Country
		}
	}

	facts := make([]Fact, 0, len(transactions))
	for _, t := range transactions {
		fact := Fact{
			TransactionID: t.TransactionID,
			CustomerID:    t.CustomerID,
			ProductID:     t.ProductID,
			Quantity:      t.Quantity,
			Date:          t.TransactionDate,
			PaymentMethod: t.PaymentMethod,
			Country:       countryByCustomer[t.CustomerID],
		}

		if p, ok := productByID[t.ProductID]; ok {
			fact.Price = sql.NullFloat64{Float64: p.Price, Valid: true}
			fact.Category = sql.NullString{String: p.Category, Valid: true}
			fact.Revenue = sql.NullFloat64{Float64: float64(t.Quantity) * p.Price, Valid: true}
		}

		facts = append(facts, fact)
	}

	return facts
}

// Compute builds the fact view and derives every report plus the two KPIs.
func (e *Engine) Compute(transactions []model.Transaction, products []model.Product, customers []model.Customer) *Report {
	facts := e.BuildFacts(transactions, products, customers)

	report := &Report{FactRows: len(facts)}

	validRevenues := 0
	revenueSum := 0.0
	byCategory := newAccumulator()
	byCountry := newAccumulator()
	byCustomer := newAccumulator()
	byPayment := newAccumulator()
	byMonth := newAccumulator()

	for _, f := range facts {
		if f.Revenue.Valid {
			revenueSum += f.Revenue.Float64
			validRevenues++
		}

		byCategory.add(f.Category.String, f.Revenue)
		byCountry.add(f.Country, f.Revenue)
		byCustomer.add(f.CustomerID, f.Revenue)
		byPayment.add(f.PaymentMethod, f.Revenue)
		byMonth.add(monthKey(f.Date), f.Revenue)
	}

	report.TotalRevenue = revenueSum
	if validRevenues > 0 {
		// Null-skipping mean: rows without a revenue are excluded from
		// both the numerator and the denominator.
		report.AvgOrderValue = revenueSum / float64(validRevenues)
	}

	report.RevenueByCategory = byCategory.sortedDescending()
	report.RevenueByCountry = byCountry.sortedDescending()
	report.PaymentShare = byPayment.sortedDescending()
	report.TopCustomers = limit(byCustomer.sortedDescending(), e.topN)
	report.MonthlyRevenue = monthlyAscending(byMonth)

	e.logger.Info("Computed analytics",
		zap.Int("fact_rows", len(facts)),
		zap.Float64("total_revenue", report.TotalRevenue),
		zap.Float64("avg_order_value", report.AvgOrderValue),
		zap.Int("categories", len(report.RevenueByCategory)),
		zap.Int("countries", len(report.RevenueByCountry)),
		zap.Int("months", len(report.MonthlyRevenue)))

	return report
}

// monthKey truncates a transaction date to the first day of its month.
// Null dates land in the "" bucket.
func monthKey(date sql.NullTime) string {
	if !date.Valid {
		return ""
	}
	return time.Date(date.Time.Year(), date.Time.Month(), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

// revenueAccumulator sums revenue per group key while remembering key
// insertion order, so tie-breaks are stable instead of depending on map
// iteration order.
type revenueAccumulator struct {
	keys []string
	sums map[string]float64
}

func newAccumulator() *revenueAccumulator {
	return &revenueAccumulator{sums: make(map[string]float64)}
}

// add registers the key even when the revenue is null, so groups made up
// entirely of null revenue still appear with a zero sum.
func (a *revenueAccumulator) add(key string, revenue sql.NullFloat64) {
	if _, exists := a.sums[key]; !exists {
		a.keys = append(a.keys, key)
		a.sums[key] = 0
	}
	if revenue.Valid {
		a.sums[key] += revenue.Float64
	}
}

// sortedDescending returns the groups ordered by summed revenue, largest
// first, with insertion order breaking ties.
func (a *revenueAccumulator) sortedDescending() []KeyRevenue {
	rows := make([]KeyRevenue, 0, len(a.keys))
	for _, key := range a.keys {
		rows = append(rows, KeyRevenue{Key: key, Revenue: a.sums[key]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Revenue > rows[j].Revenue
	})
	return rows
}

func limit(rows []KeyRevenue, n int) []KeyRevenue {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

// monthlyAscending orders the month buckets chronologically, with the
// null-month bucket (unparsable dates) first.
func monthlyAscending(a *revenueAccumulator) []MonthRevenue {
	rows := make([]MonthRevenue, 0, len(a.keys))
	for _, key := range a.keys {
		row := MonthRevenue{Revenue: a.sums[key]}
		if key != "" {
			t, err := time.Parse("2006-01-02", key)
			if err == nil {
				row.Month = sql.NullTime{Time: t, Valid: true}
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Month.Valid != rows[j].Month.Valid {
			return !rows[i].Month.Valid
		}
		return rows[i].Month.Time.Before(rows[j].Month.Time)
	})
	return rows
}

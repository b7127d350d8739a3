// pkg/pipeline/verifier.go
package pipeline

import (
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/model"
)

// Verifier checks the cleaned tables and the report bundle against the
// pipeline's output invariants. Violations are diagnostic: they indicate
// a bug in the cleaners or the engine, never bad input data, so they are
// logged and reported but do not fail the run.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

var (
	validCategories = map[string]struct{}{
		"Electronics": {}, "Clothing": {}, "Books": {}, "Home": {}, "Sports": {}, model.CategoryOther: {},
	}
	validPaymentMethods = map[string]struct{}{
		"Credit Card": {}, "PayPal": {}, "Bank Transfer": {}, model.PaymentOther: {},
	}
)

// Verify runs every output check and returns the violations found.
func (v *Verifier) Verify(customers []model.Customer, products []model.Product, transactions []model.Transaction, report *analytics.Report) []string {
	var violations []string

	for _, c := range customers {
		if c.Email == "" {
			violations = append(violations, fmt.Sprintf("customer %s: empty email", c.CustomerID))
		} else if c.Email != strings.ToLower(c.Email) {
			violations = append(violations, fmt.Sprintf("customer %s: email not lower-case", c.CustomerID))
		}
	}

	for _, p := range products {
		if _, ok := validCategories[p.Category]; !ok {
			violations = append(violations, fmt.Sprintf("product %s: category %q outside canonical set", p.ProductID, p.Category))
		}
		if p.Price < 0 {
			violations = append(violations, fmt.Sprintf("product %s: negative price", p.ProductID))
		}
		if p.Stock < 0 || p.Stock > 1000 {
			violations = append(violations, fmt.Sprintf("product %s: stock %d outside [0, 1000]", p.ProductID, p.Stock))
		}
	}

	customerIDs := make(map[string]struct{}, len(customers))
	for _, c := range customers {
		customerIDs[c.CustomerID] = struct{}{}
	}

	for _, t := range transactions {
		if t.Quantity < 1 {
			violations = append(violations, fmt.Sprintf("transaction %s: quantity below one", t.TransactionID))
		}
		if _, ok := validPaymentMethods[t.PaymentMethod]; !ok {
			violations = append(violations, fmt.Sprintf("transaction %s: payment method %q outside canonical set", t.TransactionID, t.PaymentMethod))
		}
		if t.TransactionDate.Valid && t.TransactionDate.Time.After(model.TransactionDateCutoff) {
			violations = append(violations, fmt.Sprintf("transaction %s: date after cutoff", t.TransactionID))
		}
		if _, ok := customerIDs[t.CustomerID]; !ok {
			violations = append(violations, fmt.Sprintf("transaction %s: customer %q not in cleaned customer set", t.TransactionID, t.CustomerID))
		}
	}

	violations = append(violations, v.verifyPartitions(report)...)

	if len(violations) > 0 {
		v.logger.Warn("Output verification found violations",
			zap.Int("count", len(violations)),
			zap.Strings("violations", violations))
	} else {
		v.logger.Info("Output verification passed")
	}

	return violations
}

// verifyPartitions checks that the grouped reports partition the same
// revenue: each by-dimension sum must equal the total.
func (v *Verifier) verifyPartitions(report *analytics.Report) []string {
	var violations []string

	sums := map[string][]analytics.KeyRevenue{
		"revenue_by_category": report.RevenueByCategory,
		"revenue_by_country":  report.RevenueByCountry,
		"payment_share":       report.PaymentShare,
	}

	for name, rows := range sums {
		total := 0.0
		for _, row := range rows {
			total += row.Revenue
		}
		if !almostEqual(total, report.TotalRevenue) {
			violations = append(violations, fmt.Sprintf("%s sums to %f, expected total revenue %f", name, total, report.TotalRevenue))
		}
	}

	return violations
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

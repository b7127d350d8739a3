// pkg/cleaner/cleaner.go
package cleaner

import (
	"database/sql"
	"errors"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dataforge/retail-etl/pkg/model"
)

// DataCleaner applies the deterministic cleaning rules to the three raw
// entity tables. Dirty data is always repaired or dropped by policy, never
// rejected: none of the Clean methods can fail on malformed input.
type DataCleaner struct {
	logger *zap.Logger
}

// NewDataCleaner creates a new DataCleaner instance
func NewDataCleaner(logger *zap.Logger) (*DataCleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &DataCleaner{logger: logger}, nil
}

// CleanCustomers removes exact duplicate rows, canonicalizes countries,
// extracts numeric ages, and guarantees a non-empty lower-case email for
// every row. No row is dropped except exact duplicates.
func (c *DataCleaner) CleanCustomers(raw []model.RawCustomer) ([]model.Customer, []model.CleaningOperation) {
	cleaned := make([]model.Customer, 0, len(raw))
	var operations []model.CleaningOperation

	seen := make(map[string]struct{}, len(raw))
	for _, row := range raw {
		key := rawCustomerKey(row)
		if _, dup := seen[key]; dup {
			operations = append(operations, model.NewCleaningOperation(
				"customers", "", row.CustomerID, "", "",
				"duplicate_removal", "exact_duplicate_row"))
			continue
		}
		seen[key] = struct{}{}

		customer := model.Customer{
			CustomerID:       row.CustomerID,
			Name:             row.Name,
			RegistrationDate: row.RegistrationDate,
		}

		customer.Country = canonicalizeCountry(row.Country)
		if _, aliased := countryAliases[strings.TrimSpace(row.Country)]; aliased {
			operations = append(operations, model.NewCleaningOperation(
				"customers", "country", row.CustomerID, row.Country, customer.Country,
				"country_canonicalization", "country_alias"))
		}

		if age, ok := extractAge(row.Age); ok {
			customer.Age = sql.NullInt64{Int64: age, Valid: true}
			if strings.TrimSpace(row.Age) != strconv.FormatInt(age, 10) {
				operations = append(operations, model.NewCleaningOperation(
					"customers", "age", row.CustomerID, row.Age, strconv.FormatInt(age, 10),
					"age_extraction", "non_numeric_age"))
			}
		} else if strings.TrimSpace(row.Age) != "" {
			operations = append(operations, model.NewCleaningOperation(
				"customers", "age", row.CustomerID, row.Age, "",
				"age_nulled", "no_digits_in_age"))
		}

		email, synthesized := synthesizeEmail(row.Email, row.Name, row.CustomerID)
		customer.Email = email
		if synthesized {
			operations = append(operations, model.NewCleaningOperation(
				"customers", "email", row.CustomerID, row.Email, email,
				"email_synthesis", "missing_email"))
		}

		cleaned = append(cleaned, customer)
	}

	c.logger.Info("Cleaned customers",
		zap.Int("rows_in", len(raw)),
		zap.Int("rows_out", len(cleaned)),
		zap.Int("operations", len(operations)))

	return cleaned, operations
}

// CleanProducts trims names, canonicalizes categories, imputes missing or
// negative prices from category medians (falling back to the global
// median), and clamps stock into [0, 1000]. No rows are dropped.
func (c *DataCleaner) CleanProducts(raw []model.RawProduct) ([]model.Product, []model.CleaningOperation) {
	cleaned := make([]model.Product, 0, len(raw))
	var operations []model.CleaningOperation

	// First pass: parse every field and collect valid prices per category.
	// Medians are always computed over original prices only, so an imputed
	// value can never depend on other rows imputed in the same run.
	prices := make([]sql.NullFloat64, len(raw))
	pricesByCategory := make(map[string][]float64)
	var allPrices []float64

	for i, row := range raw {
		product := model.Product{
			ProductID:   row.ProductID,
			ProductName: strings.TrimSpace(row.ProductName),
		}

		product.Category = canonicalizeCategory(row.Category)
		if product.Category == model.CategoryOther && strings.ToLower(strings.TrimSpace(row.Category)) != strings.ToLower(model.CategoryOther) {
			operations = append(operations, model.NewCleaningOperation(
				"products", "category", row.ProductID, row.Category, product.Category,
				"category_default", "unmapped_category"))
		}

		price, ok := parseFloat(row.Price)
		switch {
		case !ok && strings.TrimSpace(row.Price) != "":
			operations = append(operations, model.NewCleaningOperation(
				"products", "price", row.ProductID, row.Price, "",
				"price_nulled", "unparsable_price"))
		case ok && price < 0:
			operations = append(operations, model.NewCleaningOperation(
				"products", "price", row.ProductID, row.Price, "",
				"price_nulled", "negative_price"))
			ok = false
		}
		if ok {
			prices[i] = sql.NullFloat64{Float64: price, Valid: true}
			pricesByCategory[product.Category] = append(pricesByCategory[product.Category], price)
			allPrices = append(allPrices, price)
		}

		product.Stock = c.cleanStock(row, &operations)

		cleaned = append(cleaned, product)
	}

	categoryMedians := make(map[string]float64, len(pricesByCategory))
	for category, values := range pricesByCategory {
		if m, ok := median(values); ok {
			categoryMedians[category] = m
		}
	}
	globalMedian, haveGlobal := median(allPrices)

	// Second pass: fill the nulls.
	imputed := 0
	for i := range cleaned {
		if prices[i].Valid {
			cleaned[i].Price = prices[i].Float64
			continue
		}

		value, reason := 0.0, "no_valid_prices"
		if m, ok := categoryMedians[cleaned[i].Category]; ok {
			value, reason = m, "category_median"
		} else if haveGlobal {
			value, reason = globalMedian, "global_median"
		}
		cleaned[i].Price = value
		imputed++

		operations = append(operations, model.NewCleaningOperation(
			"products", "price", cleaned[i].ProductID, raw[i].Price,
			strconv.FormatFloat(value, 'f', -1, 64),
			"price_imputation", reason))
	}

	c.logger.Info("Cleaned products",
		zap.Int("rows_in", len(raw)),
		zap.Int("rows_out", len(cleaned)),
		zap.Int("prices_imputed", imputed),
		zap.Int("operations", len(operations)))

	return cleaned, operations
}

// cleanStock parses and clamps a raw stock value into [0, 1000].
func (c *DataCleaner) cleanStock(row model.RawProduct, operations *[]model.CleaningOperation) int64 {
	value, ok := parseFloat(row.Stock)
	if !ok {
		if strings.TrimSpace(row.Stock) != "" {
			*operations = append(*operations, model.NewCleaningOperation(
				"products", "stock", row.ProductID, row.Stock, "0",
				"stock_default", "unparsable_stock"))
		}
		return 0
	}

	stock := int64(math.Trunc(value))
	clamped := clampInt(stock, 0, 1000)
	if clamped != stock {
		*operations = append(*operations, model.NewCleaningOperation(
			"products", "stock", row.ProductID, row.Stock, strconv.FormatInt(clamped, 10),
			"stock_clamped", "out_of_range_stock"))
	}
	return clamped
}

// CleanTransactions deduplicates by transaction id, repairs quantities and
// dates, canonicalizes payment methods, and keeps only rows whose customer
// reference exists in validCustomerIDs. The referential drop is policy,
// not an error, and is therefore silent beyond the audit record.
func (c *DataCleaner) CleanTransactions(raw []model.RawTransaction, validCustomerIDs []string) ([]model.Transaction, []model.CleaningOperation) {
	cleaned := make([]model.Transaction, 0, len(raw))
	var operations []model.CleaningOperation

	validIDs := make(map[string]struct{}, len(validCustomerIDs))
	for _, id := range validCustomerIDs {
		validIDs[id] = struct{}{}
	}

	dropped := 0
	seen := make(map[string]struct{}, len(raw))
	for _, row := range raw {
		// Rows with a transaction id dedup on the id alone; rows without
		// one fall back to exact row-content keys.
		key := strings.TrimSpace(row.TransactionID)
		if key == "" {
			key = rawTransactionKey(row)
		}
		if _, dup := seen[key]; dup {
			operations = append(operations, model.NewCleaningOperation(
				"transactions", "", row.TransactionID, "", "",
				"duplicate_removal", "repeated_transaction_id"))
			continue
		}
		seen[key] = struct{}{}

		if _, ok := validIDs[row.CustomerID]; !ok {
			dropped++
			operations = append(operations, model.NewCleaningOperation(
				"transactions", "customer_id", row.TransactionID, row.CustomerID, "",
				"referential_filter", "unknown_customer"))
			continue
		}

		txn := model.Transaction{
			TransactionID: row.TransactionID,
			CustomerID:    row.CustomerID,
			ProductID:     row.ProductID,
		}

		txn.Quantity = 1
		if quantity, ok := parseFloat(row.Quantity); ok {
			truncated := int64(math.Trunc(quantity))
			if truncated < 1 {
				operations = append(operations, model.NewCleaningOperation(
					"transactions", "quantity", row.TransactionID, row.Quantity, "1",
					"quantity_floored", "quantity_below_one"))
			} else {
				txn.Quantity = truncated
			}
		} else if strings.TrimSpace(row.Quantity) != "" {
			operations = append(operations, model.NewCleaningOperation(
				"transactions", "quantity", row.TransactionID, row.Quantity, "1",
				"quantity_default", "unparsable_quantity"))
		}

		if date, ok := parseDate(row.TransactionDate); ok {
			if date.After(model.TransactionDateCutoff) {
				operations = append(operations, model.NewCleaningOperation(
					"transactions", "transaction_date", row.TransactionID, row.TransactionDate,
					model.TransactionDateCutoff.Format("2006-01-02"),
					"date_clamped", "date_after_cutoff"))
				date = model.TransactionDateCutoff
			}
			txn.TransactionDate = sql.NullTime{Time: date, Valid: true}
		} else if strings.TrimSpace(row.TransactionDate) != "" {
			operations = append(operations, model.NewCleaningOperation(
				"transactions", "transaction_date", row.TransactionID, row.TransactionDate, "",
				"date_nulled", "unparsable_date"))
		}

		txn.PaymentMethod = canonicalizePaymentMethod(row.PaymentMethod)
		if txn.PaymentMethod == model.PaymentOther && strings.TrimSpace(row.PaymentMethod) != model.PaymentOther {
			operations = append(operations, model.NewCleaningOperation(
				"transactions", "payment_method", row.TransactionID, row.PaymentMethod, txn.PaymentMethod,
				"payment_method_default", "unmapped_payment_method"))
		}

		cleaned = append(cleaned, txn)
	}

	c.logger.Info("Cleaned transactions",
		zap.Int("rows_in", len(raw)),
		zap.Int("rows_out", len(cleaned)),
		zap.Int("orphans_dropped", dropped),
		zap.Int("operations", len(operations)))

	return cleaned, operations
}

// pkg/cleaner/operations.go
package cleaner

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dataforge/retail-etl/pkg/model"
)

// Canonical lookup tables. Unmapped countries pass through trimmed;
// unmapped categories and payment methods fall back to "Other".
var (
	countryAliases = map[string]string{
		"USA": "United States",
		"US":  "United States",
	}

	canonicalCategories = map[string]string{
		"electronics": "Electronics",
		"clothing":    "Clothing",
		"books":       "Books",
		"home":        "Home",
		"sports":      "Sports",
	}

	canonicalPaymentMethods = map[string]string{
		"CREDIT CARD":   "Credit Card",
		"PAYPAL":        "PayPal",
		"BANK TRANSFER": "Bank Transfer",
	}
)

var digitRun = regexp.MustCompile(`\d+`)

// canonicalizeCountry trims the raw value and resolves known aliases.
func canonicalizeCountry(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := countryAliases[trimmed]; ok {
		return canonical
	}
	return trimmed
}

// canonicalizeCategory maps a raw category onto the fixed canonical set,
// falling back to Other for anything unmapped (including empty values).
func canonicalizeCategory(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if canonical, ok := canonicalCategories[key]; ok {
		return canonical
	}
	return model.CategoryOther
}

// canonicalizePaymentMethod maps a raw payment method onto the fixed
// canonical set, falling back to Other.
func canonicalizePaymentMethod(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if canonical, ok := canonicalPaymentMethods[key]; ok {
		return canonical
	}
	return model.PaymentOther
}

// extractAge pulls the first run of digits out of a raw age value.
// No digits means a null age; there is no range clamping.
func extractAge(raw string) (int64, bool) {
	digits := digitRun.FindString(raw)
	if digits == "" {
		return 0, false
	}
	age, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return age, true
}

// synthesizeEmail returns the cleaned email for a customer and whether it
// had to be synthesized. Existing values are trimmed and lower-cased;
// missing ones are derived from the name and customer id.
func synthesizeEmail(rawEmail, rawName, customerID string) (string, bool) {
	if email := strings.TrimSpace(rawEmail); email != "" {
		return strings.ToLower(email), false
	}

	local := model.EmailFallbackLocal
	if parts := strings.Fields(strings.ToLower(strings.TrimSpace(rawName))); len(parts) >= 2 {
		local = parts[0] + "." + parts[1]
	} else if len(parts) == 1 {
		local = parts[0]
	}

	if id := strings.ToLower(strings.TrimSpace(customerID)); id != "" {
		local = local + "." + id
	}

	return local + "@" + model.EmailDomain, true
}

// parseFloat parses a raw numeric field. The second result is false for
// missing or unparsable values.
func parseFloat(raw string) (float64, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}

// dateFormats are tried in order when parsing transaction dates.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

// parseDate parses a raw date field against the supported formats.
func parseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// clampInt forces a value into the closed range [lo, hi].
func clampInt(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// median computes the median of values; the mean of the two middle values
// for an even count. The input slice is not modified.
func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2, true
	}
	return sorted[mid], true
}

// Row-content keys for exact-duplicate detection. The separator is a
// control character that cannot appear in parsed field values.
const rowKeySep = "\x1f"

func rawCustomerKey(c model.RawCustomer) string {
	return strings.Join([]string{c.CustomerID, c.Name, c.Email, c.RegistrationDate, c.Country, c.Age}, rowKeySep)
}

func rawTransactionKey(t model.RawTransaction) string {
	return strings.Join([]string{t.TransactionID, t.CustomerID, t.ProductID, t.Quantity, t.TransactionDate, t.PaymentMethod}, rowKeySep)
}

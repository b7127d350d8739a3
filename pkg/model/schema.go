// pkg/model/schema.go
package model

import "strings"

// Column orders for the three entity tables. Sources use these to map
// header rows onto raw entities; sinks use them to emit a stable layout.
var (
	CustomerColumns = []string{"customer_id", "name", "email", "registration_date", "country", "age"}

	ProductColumns = []string{"product_id", "product_name", "category", "price", "stock"}

	TransactionColumns = []string{"transaction_id", "customer_id", "product_id", "quantity", "transaction_date", "payment_method"}

	CleaningOperationColumns = []string{"entity", "column_name", "row_identifier", "original_value", "new_value", "cleaning_operation", "cleaning_reason", "cleaned_at"}
)

// HeaderIndex maps normalized column names to their position in a header
// row. Lookup is case-insensitive and ignores surrounding whitespace.
type HeaderIndex map[string]int

// NewHeaderIndex builds an index from a header row.
func NewHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, name := range header {
		idx[normalizeColumnName(name)] = i
	}
	return idx
}

// Field returns the value of the named column in row, or "" when the
// column is absent or the row is short.
func (h HeaderIndex) Field(row []string, name string) string {
	i, ok := h[normalizeColumnName(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Has reports whether the named column appeared in the header.
func (h HeaderIndex) Has(name string) bool {
	_, ok := h[normalizeColumnName(name)]
	return ok
}

func normalizeColumnName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

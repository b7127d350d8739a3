// pkg/model/entities.go
package model

import (
	"database/sql"
	"time"
)

// RawCustomer is a customer row exactly as loaded, every field as text.
// Coercion happens in the cleaner, never at load time.
type RawCustomer struct {
	CustomerID       string
	Name             string
	Email            string
	RegistrationDate string
	Country          string
	Age              string
}

// RawProduct is a product row as loaded, all fields as text.
type RawProduct struct {
	ProductID   string
	ProductName string
	Category    string
	Price       string
	Stock       string
}

// RawTransaction is a transaction row as loaded, all fields as text.
type RawTransaction struct {
	TransactionID   string
	CustomerID      string
	ProductID       string
	Quantity        string
	TransactionDate string
	PaymentMethod   string
}

// Customer is a cleaned customer row. Email is always non-empty and
// lower-cased; RegistrationDate passes through unvalidated.
type Customer struct {
	CustomerID       string
	Name             string
	Email            string
	RegistrationDate string
	Country          string
	Age              sql.NullInt64
}

// Product is a cleaned product row. Price is always set (imputed when the
// raw value was missing or negative) and Stock is an integer in [0, 1000].
type Product struct {
	ProductID   string
	ProductName string
	Category    string
	Price       float64
	Stock       int64
}

// Transaction is a cleaned transaction row. Every surviving row references
// a customer from the cleaned customer set. A null TransactionDate means
// the raw value could not be parsed; the row is kept regardless.
type Transaction struct {
	TransactionID   string
	CustomerID      string
	ProductID       string
	Quantity        int64
	TransactionDate sql.NullTime
	PaymentMethod   string
}

// Canonical category and payment method values.
const (
	CategoryOther      = "Other"
	PaymentOther       = "Other"
	EmailDomain        = "example.com"
	EmailFallbackLocal = "user"
)

// TransactionDateCutoff is the latest date a cleaned transaction may carry.
// Later dates are clamped down to exactly this day.
var TransactionDateCutoff = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

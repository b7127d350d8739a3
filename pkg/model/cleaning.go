// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single field repair performed while
// cleaning a table. Operations are collected per run, surfaced as counts
// in the run result, and persisted next to the cleaned tables.
type CleaningOperation struct {
	Entity            string    // Entity name ("customers", "products", "transactions")
	ColumnName        string    // Column that was repaired
	OriginalValue     string    // Raw value before cleaning (may be empty)
	NewValue          string    // Value after cleaning
	RowIdentifier     string    // Identifier of the affected row
	CleaningOperation string    // Kind of repair (e.g. "email_synthesis")
	CleaningReason    string    // Why the repair was needed (e.g. "missing_email")
	CleanedAt         time.Time // When the repair occurred
}

// NewCleaningOperation builds an operation record stamped with the current time.
func NewCleaningOperation(entity, column, rowID, original, newValue, operation, reason string) CleaningOperation {
	return CleaningOperation{
		Entity:            entity,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     rowID,
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         time.Now(),
	}
}

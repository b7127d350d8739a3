// pkg/pipeline/result.go
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// RunResult captures the lifecycle of one batch run: identification,
// timing, per-stage row counts, the cleaning audit volume, and the KPI
// scalars handed to the summary printer.
type RunResult struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	CustomersIn     int
	CustomersOut    int
	ProductsIn      int
	ProductsOut     int
	TransactionsIn  int
	TransactionsOut int

	CleaningOperations int
	FactRows           int

	TotalRevenue  float64
	AvgOrderValue float64

	// Violations lists output invariant checks that failed.
	// A non-empty list never fails the run; it is diagnostic only.
	Violations []string
}

// NewRunResult initializes a result for a fresh run
func NewRunResult() *RunResult {
	return &RunResult{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
	}
}

// Complete marks the run as finished and calculates duration
func (r *RunResult) Complete() {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}

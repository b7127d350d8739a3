// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dataforge/retail-etl/pkg/analytics"
	"github.com/dataforge/retail-etl/pkg/cleaner"
	"github.com/dataforge/retail-etl/pkg/model"
	"github.com/dataforge/retail-etl/pkg/sink"
	"github.com/dataforge/retail-etl/pkg/source"
)

// Runner orchestrates one batch run: load the three raw tables, clean
// them in dependency order, derive the report bundle, and persist
// everything through the sink.
//
// The dependency chain is fixed: customer and product cleaning are
// independent and run concurrently; transaction cleaning needs the
// cleaned customer id set; analytics needs all three cleaned tables.
type Runner struct {
	source   source.TableSource
	sink     sink.OutputSink
	cleaner  *cleaner.DataCleaner
	engine   *analytics.Engine
	verifier *Verifier
	logger   *zap.Logger
}

// NewRunner creates a pipeline runner over the given source and sink
func NewRunner(src source.TableSource, out sink.OutputSink, logger *zap.Logger) (*Runner, error) {
	if src == nil {
		return nil, errors.New("source cannot be nil")
	}
	if out == nil {
		return nil, errors.New("sink cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	dataCleaner, err := cleaner.NewDataCleaner(logger)
	if err != nil {
		return nil, err
	}

	engine, err := analytics.NewEngine(logger)
	if err != nil {
		return nil, err
	}

	return &Runner{
		source:   src,
		sink:     out,
		cleaner:  dataCleaner,
		engine:   engine,
		verifier: NewVerifier(logger),
		logger:   logger,
	}, nil
}

// Run executes one full batch and returns the run result and the report
// bundle. Dirty data never fails a run; only I/O does.
func (r *Runner) Run(ctx context.Context) (*RunResult, *analytics.Report, error) {
	result := NewRunResult()
	logger := r.logger.With(zap.String("run_id", result.RunID))
	logger.Info("Starting pipeline run")

	// Load the three raw tables concurrently.
	var (
		rawCustomers    []model.RawCustomer
		rawProducts     []model.RawProduct
		rawTransactions []model.RawTransaction
	)

	loadGroup, loadCtx := errgroup.WithContext(ctx)
	loadGroup.Go(func() error {
		var err error
		rawCustomers, err = r.source.LoadCustomers(loadCtx)
		return err
	})
	loadGroup.Go(func() error {
		var err error
		rawProducts, err = r.source.LoadProducts(loadCtx)
		return err
	})
	loadGroup.Go(func() error {
		var err error
		rawTransactions, err = r.source.LoadTransactions(loadCtx)
		return err
	})
	if err := loadGroup.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load raw tables: %w", err)
	}

	result.CustomersIn = len(rawCustomers)
	result.ProductsIn = len(rawProducts)
	result.TransactionsIn = len(rawTransactions)

	logger.Info("Loaded raw tables",
		zap.Int("customers", len(rawCustomers)),
		zap.Int("products", len(rawProducts)),
		zap.Int("transactions", len(rawTransactions)))

	// Customer and product cleaning have no mutual dependency: fork-join.
	var (
		customers    []model.Customer
		products     []model.Product
		customerOps  []model.CleaningOperation
		productOps   []model.CleaningOperation
	)

	var cleanGroup errgroup.Group
	cleanGroup.Go(func() error {
		customers, customerOps = r.cleaner.CleanCustomers(rawCustomers)
		return nil
	})
	cleanGroup.Go(func() error {
		products, productOps = r.cleaner.CleanProducts(rawProducts)
		return nil
	})
	if err := cleanGroup.Wait(); err != nil {
		return nil, nil, err
	}

	// Transaction cleaning waits on the cleaned customer id set.
	validIDs := make([]string, 0, len(customers))
	for _, c := range customers {
		validIDs = append(validIDs, c.CustomerID)
	}
	transactions, transactionOps := r.cleaner.CleanTransactions(rawTransactions, validIDs)

	operations := make([]model.CleaningOperation, 0, len(customerOps)+len(productOps)+len(transactionOps))
	operations = append(operations, customerOps...)
	operations = append(operations, productOps...)
	operations = append(operations, transactionOps...)

	result.CustomersOut = len(customers)
	result.ProductsOut = len(products)
	result.TransactionsOut = len(transactions)
	result.CleaningOperations = len(operations)

	// Analytics waits on all three cleaned tables.
	report := r.engine.Compute(transactions, products, customers)
	result.FactRows = report.FactRows
	result.TotalRevenue = report.TotalRevenue
	result.AvgOrderValue = report.AvgOrderValue

	result.Violations = r.verifier.Verify(customers, products, transactions, report)

	if err := r.sink.WriteCleaned(ctx, customers, products, transactions); err != nil {
		return nil, nil, fmt.Errorf("failed to write cleaned tables: %w", err)
	}
	if err := r.sink.WriteOperations(ctx, operations); err != nil {
		return nil, nil, fmt.Errorf("failed to write cleaning operations: %w", err)
	}
	if err := r.sink.WriteReports(ctx, report); err != nil {
		return nil, nil, fmt.Errorf("failed to write reports: %w", err)
	}

	result.Complete()

	logger.Info("Pipeline run completed",
		zap.Int("customers_out", result.CustomersOut),
		zap.Int("products_out", result.ProductsOut),
		zap.Int("transactions_out", result.TransactionsOut),
		zap.Int("cleaning_operations", result.CleaningOperations),
		zap.Float64("total_revenue", result.TotalRevenue),
		zap.Duration("duration", result.Duration))

	return result, report, nil
}

// Package pipeline runs reports end to end: fetch, transform, serialize and load
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/loader"
	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/ethpandaops/ga4ch/pkg/transform"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DateLayout is the only accepted report date format
const DateLayout = "2006-01-02"

// Run statuses recorded in metrics
const (
	StatusSuccess        = "success"
	StatusFetchError     = "fetch_error"
	StatusTransformError = "transform_error"
	StatusLoadError      = "load_error"
	StatusInvalid        = "invalid"
)

var (
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("date must be in YYYY-MM-DD format")
	// ErrNoReports is returned by RunAll when there is nothing to run
	ErrNoReports = errors.New("no reports to run")
)

// Fetcher retrieves one day of a report
type Fetcher interface {
	Fetch(ctx context.Context, spec reports.ReportSpec, date string) (*ga4.Report, error)
}

// Loader inserts a serialized batch
type Loader interface {
	Load(ctx context.Context, b loader.Batch) ([]byte, error)
}

// Result describes one completed report run
type Result struct {
	RunID       string
	Report      string
	Table       string
	Date        string
	RowsFetched int
	RowsLoaded  int
	Duration    time.Duration
}

// Runner wires the pipeline stages together. Reports are run one at a time.
type Runner struct {
	log         logrus.FieldLogger
	registry    *reports.Registry
	fetcher     Fetcher
	transformer *transform.Transformer
	loader      Loader
}

// NewRunner creates a runner
func NewRunner(log logrus.FieldLogger, registry *reports.Registry, fetcher Fetcher, transformer *transform.Transformer, l Loader) *Runner {
	return &Runner{
		log:         log.WithField("component", "pipeline"),
		registry:    registry,
		fetcher:     fetcher,
		transformer: transformer,
		loader:      l,
	}
}

// ValidateDate checks date is a calendar day in YYYY-MM-DD form
func ValidateDate(date string) error {
	t, err := time.Parse(DateLayout, date)
	if err != nil || t.Format(DateLayout) != date {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	return nil
}

// Yesterday returns the day before now in YYYY-MM-DD form
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(DateLayout)
}

// Run executes the named report for date. A fetch failure returns before anything
// is sent to ClickHouse.
func (r *Runner) Run(ctx context.Context, name, date string) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	log := r.log.WithFields(logrus.Fields{
		"run_id": runID,
		"report": name,
		"date":   date,
	})

	finish := func(status string) {
		observability.RecordReportRun(name, status, time.Since(start).Seconds())
	}

	if err := ValidateDate(date); err != nil {
		finish(StatusInvalid)

		return nil, err
	}

	spec, err := r.registry.Get(name)
	if err != nil {
		finish(StatusInvalid)

		return nil, err
	}

	log = log.WithField("table", spec.Table)
	log.Info("Starting report run")

	report, err := r.fetcher.Fetch(ctx, spec, date)
	if err != nil {
		finish(StatusFetchError)
		log.WithError(err).Error("Failed to fetch report")

		return nil, err
	}

	rows, err := r.transformer.Rows(date, spec, report.Rows)
	if err != nil {
		finish(StatusTransformError)
		log.WithError(err).Error("Failed to transform report rows")

		return nil, fmt.Errorf("transform %s: %w", name, err)
	}

	batch := loader.Batch{
		Report: spec.Name,
		Date:   date,
		Table:  spec.Table,
		Rows:   len(rows),
		Values: clickhouse.FormatValues(transform.Values(rows)),
	}

	if _, err := r.loader.Load(ctx, batch); err != nil {
		finish(StatusLoadError)
		log.WithError(err).Error("Failed to load report rows")

		return nil, err
	}

	finish(StatusSuccess)

	result := &Result{
		RunID:       runID,
		Report:      spec.Name,
		Table:       spec.Table,
		Date:        date,
		RowsFetched: len(report.Rows),
		RowsLoaded:  len(rows),
		Duration:    time.Since(start),
	}

	log.WithFields(logrus.Fields{
		"rows_fetched": result.RowsFetched,
		"rows_loaded":  result.RowsLoaded,
		"duration":     result.Duration.String(),
	}).Info("Report run completed")

	return result, nil
}

// RunAll runs names in order and stops at the first failure, returning the results
// completed so far alongside the error.
func (r *Runner) RunAll(ctx context.Context, names []string, date string) ([]*Result, error) {
	if len(names) == 0 {
		return nil, ErrNoReports
	}

	results := make([]*Result, 0, len(names))

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := r.Run(ctx, name, date)
		if err != nil {
			return results, err
		}

		results = append(results, result)
	}

	return results, nil
}

package ga4

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/sirupsen/logrus"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

var (
	// ErrNilResponse is returned when the API returns neither a response nor an error
	ErrNilResponse = errors.New("empty response from GA4 Data API")
	// ErrNilRow is returned when the response contains a null row
	ErrNilRow = errors.New("null row in GA4 Data API response")
)

// Row holds the dimension and metric values of one report row, positionally
// aligned with the report's dimensions and metrics.
type Row struct {
	Dimensions []string
	Metrics    []string
}

// QuotaStatus is the consumed and remaining amount of one property quota
type QuotaStatus struct {
	Consumed  int64
	Remaining int64
}

// Report is the raw result of one report request
type Report struct {
	Rows     []Row
	RowCount int64
	Quota    map[string]QuotaStatus
}

// FetchError is returned when the report request fails
type FetchError struct {
	PropertyID string
	Date       string
	Report     string
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch report %s for property %s on %s: %v", e.Report, e.PropertyID, e.Date, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher issues daily report requests for one property
type Fetcher struct {
	log        logrus.FieldLogger
	reporter   Reporter
	propertyID string
	property   string
	timeout    time.Duration
}

// NewFetcher creates a fetcher for the property in cfg
func NewFetcher(log logrus.FieldLogger, reporter Reporter, cfg *Config) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid GA4 config: %w", err)
	}

	return &Fetcher{
		log:        log.WithField("component", "ga4"),
		reporter:   reporter,
		propertyID: cfg.PropertyID,
		property:   cfg.Property(),
		timeout:    cfg.Timeout,
	}, nil
}

// Fetch runs spec for a single day. Errors are returned as *FetchError; there is
// no retry and no pagination beyond spec.Limit.
func (f *Fetcher) Fetch(ctx context.Context, spec reports.ReportSpec, date string) (*Report, error) {
	fail := func(err error) (*Report, error) {
		observability.RecordError("ga4", "fetch")

		return nil, &FetchError{PropertyID: f.propertyID, Date: date, Report: spec.Name, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	log := f.log.WithFields(logrus.Fields{
		"report": spec.Name,
		"date":   date,
	})

	log.Info("Requesting report")

	resp, err := f.reporter.RunReport(ctx, f.property, BuildRequest(spec, date))
	if err != nil {
		return fail(err)
	}

	if resp == nil {
		return fail(ErrNilResponse)
	}

	report := &Report{
		Rows:     make([]Row, 0, len(resp.Rows)),
		RowCount: resp.RowCount,
		Quota:    quotaStatuses(resp.PropertyQuota),
	}

	for i, r := range resp.Rows {
		if r == nil {
			return fail(fmt.Errorf("%w at index %d", ErrNilRow, i))
		}

		row := Row{
			Dimensions: make([]string, len(r.DimensionValues)),
			Metrics:    make([]string, len(r.MetricValues)),
		}

		for i, v := range r.DimensionValues {
			if v != nil {
				row.Dimensions[i] = v.Value
			}
		}

		for i, v := range r.MetricValues {
			if v != nil {
				row.Metrics[i] = v.Value
			}
		}

		report.Rows = append(report.Rows, row)
	}

	for name, q := range report.Quota {
		observability.RecordQuota(f.propertyID, name, q.Consumed, q.Remaining)
	}

	observability.RecordRowsFetched(spec.Name, len(report.Rows))

	fields := logrus.Fields{
		"rows":      len(report.Rows),
		"row_count": report.RowCount,
	}

	if q, ok := report.Quota["tokens_per_day"]; ok {
		fields["tokens_per_day_remaining"] = q.Remaining
	}

	log.WithFields(fields).Info("Received report")

	if report.RowCount > int64(len(report.Rows)) {
		log.WithFields(fields).Warn("Report truncated by row limit")
	}

	return report, nil
}

func quotaStatuses(q *analyticsdata.PropertyQuota) map[string]QuotaStatus {
	out := make(map[string]QuotaStatus)
	if q == nil {
		return out
	}

	add := func(name string, s *analyticsdata.QuotaStatus) {
		if s != nil {
			out[name] = QuotaStatus{Consumed: s.Consumed, Remaining: s.Remaining}
		}
	}

	add("tokens_per_day", q.TokensPerDay)
	add("tokens_per_hour", q.TokensPerHour)
	add("tokens_per_project_per_hour", q.TokensPerProjectPerHour)
	add("concurrent_requests", q.ConcurrentRequests)
	add("server_errors_per_project_per_hour", q.ServerErrorsPerProjectPerHour)
	add("potentially_thresholded_requests_per_hour", q.PotentiallyThresholdedRequestsPerHour)

	return out
}

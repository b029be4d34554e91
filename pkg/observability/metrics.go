package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// ReportRunsTotal tracks the total number of report runs
	ReportRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_report_runs_total",
			Help: "Total number of report runs",
		},
		[]string{"report", "status"}, // status: success, fetch_error, transform_error, load_error
	)

	// ReportRunDuration measures report run duration in seconds
	ReportRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ga4ch_report_run_duration_seconds",
			Help:    "Report run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"report"},
	)

	// RowsFetched counts rows returned by the GA4 Data API
	RowsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_rows_fetched_total",
			Help: "Total number of rows returned by the GA4 Data API",
		},
		[]string{"report"},
	)

	// RowsLoaded counts rows inserted into ClickHouse
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_rows_loaded_total",
			Help: "Total number of rows inserted into ClickHouse",
		},
		[]string{"report"},
	)

	// InvalidMetricValues counts metric values that could not be coerced to a number
	InvalidMetricValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_invalid_metric_values_total",
			Help: "Total number of metric values that could not be coerced to a number",
		},
		[]string{"report", "metric"},
	)

	// GA4QuotaRemaining tracks the remaining GA4 property quota reported with the last response
	GA4QuotaRemaining = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ga4ch_ga4_quota_remaining",
			Help: "Remaining GA4 property quota as reported by the last response",
		},
		[]string{"property", "quota"},
	)

	// GA4QuotaConsumed tracks the GA4 property quota consumed by the last request
	GA4QuotaConsumed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ga4ch_ga4_quota_consumed",
			Help: "GA4 property quota consumed by the last request",
		},
		[]string{"property", "quota"},
	)

	// ClickHouseQueries counts total number of ClickHouse queries executed
	ClickHouseQueries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_clickhouse_queries_total",
			Help: "Total number of ClickHouse queries executed",
		},
		[]string{"query_type", "status"}, // status: success, error
	)

	// ClickHouseQueryDuration measures ClickHouse query execution time
	ClickHouseQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ga4ch_clickhouse_query_duration_seconds",
			Help:    "ClickHouse query execution time",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~10s
		},
		[]string{"query_type"},
	)

	// ErrorsTotal counts total number of errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ga4ch_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordReportRun records the outcome of one report run
func RecordReportRun(report, status string, duration float64) {
	ReportRunsTotal.WithLabelValues(report, status).Inc()
	ReportRunDuration.WithLabelValues(report).Observe(duration)
}

// RecordRowsFetched records rows returned by the GA4 Data API
func RecordRowsFetched(report string, count int) {
	RowsFetched.WithLabelValues(report).Add(float64(count))
}

// RecordRowsLoaded records rows inserted into ClickHouse
func RecordRowsLoaded(report string, count int) {
	RowsLoaded.WithLabelValues(report).Add(float64(count))
}

// RecordInvalidMetric records a metric value that failed coercion
func RecordInvalidMetric(report, metric string) {
	InvalidMetricValues.WithLabelValues(report, metric).Inc()
}

// RecordQuota records one GA4 quota status
func RecordQuota(property, quota string, consumed, remaining int64) {
	GA4QuotaConsumed.WithLabelValues(property, quota).Set(float64(consumed))
	GA4QuotaRemaining.WithLabelValues(property, quota).Set(float64(remaining))
}

// RecordClickHouseQuery records ClickHouse query metrics
func RecordClickHouseQuery(queryType, status string, duration float64) {
	ClickHouseQueries.WithLabelValues(queryType, status).Inc()
	ClickHouseQueryDuration.WithLabelValues(queryType).Observe(duration)
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

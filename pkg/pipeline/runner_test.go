package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethpandaops/ga4ch/internal/testutil"
	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/loader"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/ethpandaops/ga4ch/pkg/transform"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	runner   *Runner
	reporter *testutil.FakeReporter
	ch       *testutil.FakeClickHouse
}

func newHarness(t *testing.T, policy transform.Policy, specs ...reports.ReportSpec) *harness {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	registry, err := reports.NewRegistry(specs...)
	require.NoError(t, err)

	reporter := testutil.NewFakeReporter()

	fetcher, err := ga4.NewFetcher(logger, reporter, &ga4.Config{PropertyID: "123456789"})
	require.NoError(t, err)

	transformer, err := transform.NewTransformer(logger, policy)
	require.NoError(t, err)

	ch := testutil.NewFakeClickHouse()

	l, err := loader.New(logger, ch, loader.Config{VerifyTables: true})
	require.NoError(t, err)

	return &harness{
		runner:   NewRunner(logger, registry, fetcher, transformer, l),
		reporter: reporter,
		ch:       ch,
	}
}

func sessions() reports.ReportSpec {
	return reports.ReportSpec{
		Name:       "sessions",
		Table:      "ga4.sessions",
		Dimensions: []string{"source", "medium"},
		Metrics:    []string{"sessions"},
	}
}

func transactions() reports.ReportSpec {
	return reports.ReportSpec{
		Name:       "transactions",
		Table:      "ga4.transactions",
		Dimensions: []string{"source", "customEvent:transaction_id"},
		Filter:     reports.Contains("eventName", "purchase"),
	}
}

func TestRunner_Run(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"42"}},
	))

	result, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"INSERT INTO ga4.sessions VALUES ('2024-04-02','google','organic',42)",
	}, h.ch.Statements())

	assert.Equal(t, "sessions", result.Report)
	assert.Equal(t, "ga4.sessions", result.Table)
	assert.Equal(t, "2024-04-02", result.Date)
	assert.Equal(t, 1, result.RowsFetched)
	assert.Equal(t, 1, result.RowsLoaded)
	assert.NotEmpty(t, result.RunID)

	calls := h.reporter.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "properties/123456789", calls[0].Property)
	require.Len(t, calls[0].Request.DateRanges, 1)
	assert.Equal(t, "2024-04-02", calls[0].Request.DateRanges[0].StartDate)
	assert.Equal(t, "2024-04-02", calls[0].Request.DateRanges[0].EndDate)
}

func TestRunner_RunCleansAndCoerces(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"O'Brien's blog", "referral"}, {"1,234"}},
		[2][]string{{"bing", "cpc"}, {"7"}},
	))

	_, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"INSERT INTO ga4.sessions VALUES ('2024-04-02','OBriens blog','referral',1.234),('2024-04-02','bing','cpc',7)",
	}, h.ch.Statements())
}

func TestRunner_RunDimensionsOnly(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, transactions())
	h.reporter.Respond([]string{"source", "customEvent:transaction_id"}, testutil.Response(
		[2][]string{{"google", "T-1001"}, nil},
	))

	_, err := h.runner.Run(context.Background(), "transactions", "2024-04-02")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"INSERT INTO ga4.transactions VALUES ('2024-04-02','google','T-1001')",
	}, h.ch.Statements())
}

func TestRunner_RunFetchErrorSkipsLoad(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())
	apiErr := errors.New("googleapi: Error 403: PERMISSION_DENIED")
	h.reporter.Fail(apiErr)

	result, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apiErr)

	var fetchErr *ga4.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "123456789", fetchErr.PropertyID)
	assert.Equal(t, "2024-04-02", fetchErr.Date)

	assert.Empty(t, h.ch.Statements(), "nothing is sent to ClickHouse")
}

func TestRunner_RunInvalidMetricFails(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"n/a"}},
	))

	_, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.Error(t, err)
	assert.ErrorIs(t, err, transform.ErrInvalidMetric)
	assert.Empty(t, h.ch.Statements())
}

func TestRunner_RunInvalidMetricNull(t *testing.T) {
	h := newHarness(t, transform.PolicyNull, sessions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"n/a"}},
	))

	_, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"INSERT INTO ga4.sessions VALUES ('2024-04-02','google','organic',NULL)",
	}, h.ch.Statements())
}

func TestRunner_RunEmptyReport(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())

	result, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")
	require.NoError(t, err)
	assert.Equal(t, 0, result.RowsLoaded)
	assert.Empty(t, h.ch.Statements())
}

func TestRunner_RunLoadError(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"42"}},
	))
	h.ch.MissingTable("sessions")

	_, err := h.runner.Run(context.Background(), "sessions", "2024-04-02")

	var loadErr *loader.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.ErrorIs(t, err, loader.ErrTableNotFound)
}

func TestRunner_RunUnknownReport(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())

	_, err := h.runner.Run(context.Background(), "pageviews", "2024-04-02")
	assert.ErrorIs(t, err, reports.ErrReportNotFound)
	assert.Empty(t, h.reporter.Calls())
}

func TestRunner_RunInvalidDate(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())

	for _, date := range []string{"", "2024-4-2", "02/04/2024", "2024-02-30", "yesterday"} {
		_, err := h.runner.Run(context.Background(), "sessions", date)
		assert.ErrorIs(t, err, ErrInvalidDate, date)
	}

	assert.Empty(t, h.reporter.Calls())
}

func TestRunner_RunAll(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions(), transactions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"42"}},
	))
	h.reporter.Respond([]string{"source", "customEvent:transaction_id"}, testutil.Response(
		[2][]string{{"google", "T-1001"}, nil},
	))

	results, err := h.runner.RunAll(context.Background(), []string{"sessions", "transactions"}, "2024-04-02")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "sessions", results[0].Report)
	assert.Equal(t, "transactions", results[1].Report)
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
	assert.Len(t, h.ch.Statements(), 2)
}

func TestRunner_RunAllStopsAtFirstError(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions(), transactions())
	h.reporter.Respond([]string{"source", "medium"}, testutil.Response(
		[2][]string{{"google", "organic"}, {"42"}},
	))

	results, err := h.runner.RunAll(context.Background(), []string{"sessions", "missing", "transactions"}, "2024-04-02")
	assert.ErrorIs(t, err, reports.ErrReportNotFound)
	require.Len(t, results, 1)
	assert.Equal(t, "sessions", results[0].Report)
	assert.Len(t, h.reporter.Calls(), 1, "transactions never runs")
}

func TestRunner_RunAllEmpty(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())

	_, err := h.runner.RunAll(context.Background(), nil, "2024-04-02")
	assert.ErrorIs(t, err, ErrNoReports)
}

func TestRunner_RunAllCanceled(t *testing.T) {
	h := newHarness(t, transform.PolicyFail, sessions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := h.runner.RunAll(ctx, []string{"sessions"}, "2024-04-02")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestYesterday(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-02-29", Yesterday(now))
	assert.NoError(t, ValidateDate(Yesterday(now)))
}

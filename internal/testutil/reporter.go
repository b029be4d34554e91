package testutil

import (
	"context"
	"strings"
	"sync"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// ReportCall records one RunReport invocation.
type ReportCall struct {
	Property string
	Request  *analyticsdata.RunReportRequest
}

// FakeReporter is an in-memory GA4 reporter. Responses are keyed by the
// comma-joined dimension names of the request so one fake can serve several reports.
type FakeReporter struct {
	mu        sync.Mutex
	responses map[string]*analyticsdata.RunReportResponse
	err       error
	calls     []ReportCall
}

// NewFakeReporter creates an empty fake reporter.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{responses: make(map[string]*analyticsdata.RunReportResponse)}
}

// Respond registers the response returned for requests with the given dimensions.
func (f *FakeReporter) Respond(dimensions []string, resp *analyticsdata.RunReportResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[key(dimensions)] = resp
}

// Fail makes every subsequent call return err.
func (f *FakeReporter) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.err = err
}

// Calls returns the recorded invocations.
func (f *FakeReporter) Calls() []ReportCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]ReportCall(nil), f.calls...)
}

// RunReport implements the reporter interface.
func (f *FakeReporter) RunReport(_ context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, ReportCall{Property: property, Request: req})

	if f.err != nil {
		return nil, f.err
	}

	names := make([]string, 0, len(req.Dimensions))
	for _, d := range req.Dimensions {
		names = append(names, d.Name)
	}

	if resp, ok := f.responses[key(names)]; ok {
		return resp, nil
	}

	return &analyticsdata.RunReportResponse{}, nil
}

// Response builds a RunReportResponse from rows of dimension and metric values.
func Response(rows ...[2][]string) *analyticsdata.RunReportResponse {
	resp := &analyticsdata.RunReportResponse{RowCount: int64(len(rows))}

	for _, r := range rows {
		row := &analyticsdata.Row{}

		for _, v := range r[0] {
			row.DimensionValues = append(row.DimensionValues, &analyticsdata.DimensionValue{Value: v})
		}

		for _, v := range r[1] {
			row.MetricValues = append(row.MetricValues, &analyticsdata.MetricValue{Value: v})
		}

		resp.Rows = append(resp.Rows, row)
	}

	return resp
}

func key(names []string) string {
	return strings.Join(names, ",")
}

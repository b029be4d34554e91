package ga4

import (
	"context"
	"fmt"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// Reporter runs a single report request against a GA4 property
type Reporter interface {
	RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
}

// apiReporter implements Reporter with the Google API client
type apiReporter struct {
	svc *analyticsdata.Service
}

// NewReporter creates a Reporter authenticated from cfg
func NewReporter(ctx context.Context, cfg *Config) (Reporter, error) {
	opts := []option.ClientOption{
		option.WithScopes(analyticsdata.AnalyticsReadonlyScope),
	}

	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := analyticsdata.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data service: %w", err)
	}

	return &apiReporter{svc: svc}, nil
}

func (r *apiReporter) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	return r.svc.Properties.RunReport(property, req).Context(ctx).Do()
}

package ga4

import (
	"github.com/ethpandaops/ga4ch/pkg/reports"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// BuildRequest builds the single-day report request for spec. Empty rows are kept
// so every dimension combination is returned, and property quota is requested
// alongside the data.
func BuildRequest(spec reports.ReportSpec, date string) *analyticsdata.RunReportRequest {
	dimensions := make([]*analyticsdata.Dimension, 0, len(spec.Dimensions))
	for _, name := range spec.Dimensions {
		dimensions = append(dimensions, &analyticsdata.Dimension{Name: name})
	}

	metrics := make([]*analyticsdata.Metric, 0, len(spec.Metrics))
	for _, name := range spec.Metrics {
		metrics = append(metrics, &analyticsdata.Metric{Name: name})
	}

	limit := spec.Limit
	if limit == 0 {
		limit = reports.DefaultLimit
	}

	return &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: date, EndDate: date},
		},
		Dimensions:          dimensions,
		Metrics:             metrics,
		DimensionFilter:     ToAPIFilter(spec.Filter),
		Limit:               limit,
		KeepEmptyRows:       true,
		ReturnPropertyQuota: true,
	}
}

// ToAPIFilter converts a filter tree into its Data API form. A nil tree yields nil.
func ToAPIFilter(expr *reports.FilterExpression) *analyticsdata.FilterExpression {
	if expr == nil {
		return nil
	}

	switch {
	case expr.Filter != nil:
		matchType := string(expr.Filter.MatchType)
		if matchType == "" {
			matchType = string(reports.MatchExact)
		}

		return &analyticsdata.FilterExpression{
			Filter: &analyticsdata.Filter{
				FieldName: expr.Filter.Field,
				StringFilter: &analyticsdata.StringFilter{
					Value:         expr.Filter.Value,
					MatchType:     matchType,
					CaseSensitive: expr.Filter.CaseSensitive,
				},
			},
		}
	case expr.Not != nil:
		return &analyticsdata.FilterExpression{NotExpression: ToAPIFilter(expr.Not)}
	default:
		group := &analyticsdata.FilterExpressionList{
			Expressions: make([]*analyticsdata.FilterExpression, 0, len(expr.And)),
		}

		for _, sub := range expr.And {
			group.Expressions = append(group.Expressions, ToAPIFilter(sub))
		}

		return &analyticsdata.FilterExpression{AndGroup: group}
	}
}

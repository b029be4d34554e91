package transform

import (
	"errors"
	"fmt"

	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/sirupsen/logrus"
)

var (
	// ErrArityMismatch is returned when an API row does not line up with the report's fields
	ErrArityMismatch = errors.New("row does not match report dimensions and metrics")
	// ErrInvalidPolicy is returned for an unknown invalid-metric policy
	ErrInvalidPolicy = errors.New("invalid metric policy must be 'fail' or 'null'")
)

// Policy decides what happens to a metric value that cannot be coerced
type Policy string

const (
	// PolicyFail aborts the report with a RowError
	PolicyFail Policy = "fail"
	// PolicyNull inserts NULL for the value and keeps the row
	PolicyNull Policy = "null"
)

// Validate checks p is a known policy
func (p Policy) Validate() error {
	switch p {
	case PolicyFail, PolicyNull:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPolicy, p)
	}
}

// Row is a transformed report row: the report date, cleaned dimension values and
// coerced metric values, in report order.
type Row struct {
	Date       string
	Dimensions []string
	Metrics    []Number
}

// Values flattens the row into date, dimensions then metrics
func (r Row) Values() []interface{} {
	out := make([]interface{}, 0, 1+len(r.Dimensions)+len(r.Metrics))
	out = append(out, r.Date)

	for _, d := range r.Dimensions {
		out = append(out, d)
	}

	for _, m := range r.Metrics {
		out = append(out, m.Value())
	}

	return out
}

// RowError locates a failure within the fetched rows
type RowError struct {
	Index  int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %v", e.Index, e.Err)
	}

	return fmt.Sprintf("row %d, column %s: %v", e.Index, e.Column, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// Transformer converts fetched rows into typed rows
type Transformer struct {
	log       logrus.FieldLogger
	onInvalid Policy
}

// NewTransformer creates a transformer applying policy to unparseable metrics
func NewTransformer(log logrus.FieldLogger, policy Policy) (*Transformer, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &Transformer{
		log:       log.WithField("component", "transformer"),
		onInvalid: policy,
	}, nil
}

// Rows transforms every fetched row for date. Each output row has exactly
// spec.Columns() values; a row that cannot satisfy that is rejected with a RowError.
func (t *Transformer) Rows(date string, spec reports.ReportSpec, rows []ga4.Row) ([]Row, error) {
	out := make([]Row, 0, len(rows))

	for i, raw := range rows {
		if len(raw.Dimensions) != len(spec.Dimensions) || len(raw.Metrics) != len(spec.Metrics) {
			return nil, &RowError{
				Index: i,
				Err: fmt.Errorf("%w: got %d dimensions and %d metrics, want %d and %d",
					ErrArityMismatch, len(raw.Dimensions), len(raw.Metrics), len(spec.Dimensions), len(spec.Metrics)),
			}
		}

		row := Row{
			Date:       date,
			Dimensions: make([]string, len(raw.Dimensions)),
			Metrics:    make([]Number, len(raw.Metrics)),
		}

		for j, v := range raw.Dimensions {
			row.Dimensions[j] = CleanDimension(v)
		}

		for j, v := range raw.Metrics {
			n, err := CoerceMetric(v)
			if err != nil {
				observability.RecordInvalidMetric(spec.Name, spec.Metrics[j])

				if t.onInvalid == PolicyFail {
					return nil, &RowError{Index: i, Column: spec.Metrics[j], Err: err}
				}

				t.log.WithFields(logrus.Fields{
					"report": spec.Name,
					"row":    i,
					"metric": spec.Metrics[j],
					"value":  v,
				}).Warn("Unparseable metric value, inserting NULL")
			}

			row.Metrics[j] = n
		}

		out = append(out, row)
	}

	return out, nil
}

// Values flattens rows for serialization
func Values(rows []Row) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}

	return out
}

package reports

import (
	"fmt"
	"regexp"

	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
)

// DefaultLimit is the row limit applied when a report does not set one
const DefaultLimit int64 = 10000

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(:[A-Za-z0-9_]+)?$`)

// ReportSpec describes one daily GA4 report and the ClickHouse table it is loaded into
type ReportSpec struct {
	Name       string            `yaml:"name"`
	Table      string            `yaml:"table"`
	Dimensions []string          `yaml:"dimensions"`
	Metrics    []string          `yaml:"metrics"`
	Filter     *FilterExpression `yaml:"filter,omitempty"`
	Limit      int64             `yaml:"limit,omitempty"`
}

// SetDefaults fills unset optional fields
func (s *ReportSpec) SetDefaults() {
	if s.Limit == 0 {
		s.Limit = DefaultLimit
	}
}

// Validate checks the report definition
func (s *ReportSpec) Validate() error {
	if s.Name == "" {
		return ErrNameRequired
	}

	if s.Table == "" {
		return fmt.Errorf("report %s: %w", s.Name, ErrTableRequired)
	}

	if _, _, err := clickhouse.SplitTable(s.Table); err != nil {
		return fmt.Errorf("report %s: %w", s.Name, err)
	}

	if len(s.Dimensions) == 0 {
		return fmt.Errorf("report %s: %w", s.Name, ErrDimensionsRequired)
	}

	seen := make(map[string]bool, len(s.Dimensions)+len(s.Metrics))

	for _, field := range append(append([]string{}, s.Dimensions...), s.Metrics...) {
		if !fieldNamePattern.MatchString(field) {
			return fmt.Errorf("report %s: %w: %q", s.Name, ErrInvalidFieldName, field)
		}

		if seen[field] {
			return fmt.Errorf("report %s: %w: %q", s.Name, ErrDuplicateField, field)
		}

		seen[field] = true
	}

	if s.Limit <= 0 {
		return fmt.Errorf("report %s: %w", s.Name, ErrInvalidLimit)
	}

	if s.Filter != nil {
		if err := s.Filter.Validate(); err != nil {
			return fmt.Errorf("report %s: filter: %w", s.Name, err)
		}
	}

	return nil
}

// Columns returns the number of values in each transformed row: the report date
// followed by every dimension and metric.
func (s ReportSpec) Columns() int {
	return 1 + len(s.Dimensions) + len(s.Metrics)
}

// merge overlays the non-empty fields of override onto s
func (s ReportSpec) merge(override ReportSpec) ReportSpec {
	if override.Table != "" {
		s.Table = override.Table
	}

	if override.Dimensions != nil {
		s.Dimensions = override.Dimensions
	}

	if override.Metrics != nil {
		s.Metrics = override.Metrics
	}

	if override.Filter != nil {
		s.Filter = override.Filter
	}

	if override.Limit != 0 {
		s.Limit = override.Limit
	}

	return s
}

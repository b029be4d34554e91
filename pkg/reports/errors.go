// Package reports holds the declarative GA4 report definitions and the
// filter-expression tree sent with each report request.
package reports

import "errors"

// Report configuration errors
var (
	ErrReportNotFound     = errors.New("report not found")
	ErrNameRequired       = errors.New("report name is required")
	ErrDuplicateReport    = errors.New("duplicate report name")
	ErrTableRequired      = errors.New("table is required")
	ErrDimensionsRequired = errors.New("at least one dimension is required")
	ErrInvalidFieldName   = errors.New("invalid dimension or metric name")
	ErrDuplicateField     = errors.New("duplicate dimension or metric name")
	ErrInvalidLimit       = errors.New("limit must be positive")

	// ErrEmptyExpression is returned when a filter node sets none of filter, not or and
	ErrEmptyExpression = errors.New("filter expression must set one of filter, not or and")
	// ErrAmbiguousExpression is returned when a filter node sets more than one variant
	ErrAmbiguousExpression = errors.New("filter expression must set exactly one of filter, not or and")
	// ErrFilterFieldRequired is returned when a leaf filter has no field name
	ErrFilterFieldRequired = errors.New("filter field is required")
	// ErrInvalidMatchType is returned when a leaf filter has an unknown match type
	ErrInvalidMatchType = errors.New("invalid match type")
	// ErrEmptyAndGroup is returned when an and group has no expressions
	ErrEmptyAndGroup = errors.New("and group cannot be empty")
)

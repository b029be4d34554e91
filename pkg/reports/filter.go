package reports

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchType is the string comparison applied by a leaf filter
type MatchType string

// Match types understood by the GA4 Data API string filter
const (
	MatchExact         MatchType = "EXACT"
	MatchBeginsWith    MatchType = "BEGINS_WITH"
	MatchEndsWith      MatchType = "ENDS_WITH"
	MatchContains      MatchType = "CONTAINS"
	MatchFullRegexp    MatchType = "FULL_REGEXP"
	MatchPartialRegexp MatchType = "PARTIAL_REGEXP"
)

// Valid reports whether m is a known match type. The empty value means EXACT.
func (m MatchType) Valid() bool {
	switch m {
	case "", MatchExact, MatchBeginsWith, MatchEndsWith, MatchContains, MatchFullRegexp, MatchPartialRegexp:
		return true
	default:
		return false
	}
}

// Filter is a leaf predicate comparing one field against a string value
type Filter struct {
	Field         string    `yaml:"field"`
	Value         string    `yaml:"value"`
	MatchType     MatchType `yaml:"matchType,omitempty"`
	CaseSensitive bool      `yaml:"caseSensitive,omitempty"`
}

// FilterExpression is a node of a boolean filter tree. Exactly one of Filter,
// Not or And is set.
type FilterExpression struct {
	Filter *Filter             `yaml:"filter,omitempty"`
	Not    *FilterExpression   `yaml:"not,omitempty"`
	And    []*FilterExpression `yaml:"and,omitempty"`
}

// Equals builds a leaf matching field exactly
func Equals(field, value string) *FilterExpression {
	return &FilterExpression{Filter: &Filter{Field: field, Value: value, MatchType: MatchExact}}
}

// Contains builds a leaf matching field containing value
func Contains(field, value string) *FilterExpression {
	return &FilterExpression{Filter: &Filter{Field: field, Value: value, MatchType: MatchContains}}
}

// Not negates expr
func Not(expr *FilterExpression) *FilterExpression {
	return &FilterExpression{Not: expr}
}

// And requires all exprs to hold
func And(exprs ...*FilterExpression) *FilterExpression {
	return &FilterExpression{And: exprs}
}

func (e *FilterExpression) variants() int {
	n := 0
	if e.Filter != nil {
		n++
	}

	if e.Not != nil {
		n++
	}

	if e.And != nil {
		n++
	}

	return n
}

// Validate checks the whole tree is well formed
func (e *FilterExpression) Validate() error {
	switch e.variants() {
	case 0:
		return ErrEmptyExpression
	case 1:
	default:
		return ErrAmbiguousExpression
	}

	switch {
	case e.Filter != nil:
		if e.Filter.Field == "" {
			return ErrFilterFieldRequired
		}

		if !fieldNamePattern.MatchString(e.Filter.Field) {
			return fmt.Errorf("%w: %q", ErrInvalidFieldName, e.Filter.Field)
		}

		if !e.Filter.MatchType.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidMatchType, e.Filter.MatchType)
		}
	case e.Not != nil:
		if err := e.Not.Validate(); err != nil {
			return fmt.Errorf("not: %w", err)
		}
	default:
		if len(e.And) == 0 {
			return ErrEmptyAndGroup
		}

		for i, sub := range e.And {
			if sub == nil {
				return fmt.Errorf("and[%d]: %w", i, ErrEmptyExpression)
			}

			if err := sub.Validate(); err != nil {
				return fmt.Errorf("and[%d]: %w", i, err)
			}
		}
	}

	return nil
}

// UnmarshalYAML decodes a node and rejects ones that set zero or several variants
func (e *FilterExpression) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: got %v at line %d", ErrEmptyExpression, node.Kind, node.Line)
	}

	type plain FilterExpression

	var decoded plain
	if err := node.Decode(&decoded); err != nil {
		return err
	}

	expr := FilterExpression(decoded)

	switch expr.variants() {
	case 0:
		return fmt.Errorf("%w (line %d)", ErrEmptyExpression, node.Line)
	case 1:
	default:
		return fmt.Errorf("%w (line %d)", ErrAmbiguousExpression, node.Line)
	}

	*e = expr

	return nil
}

// String renders the tree in a compact readable form
func (e *FilterExpression) String() string {
	if e == nil {
		return "-"
	}

	switch {
	case e.Filter != nil:
		op := "=="

		switch e.Filter.MatchType {
		case "", MatchExact:
		default:
			op = strings.ToLower(string(e.Filter.MatchType))
		}

		return fmt.Sprintf("%s %s %q", e.Filter.Field, op, e.Filter.Value)
	case e.Not != nil:
		return "not(" + e.Not.String() + ")"
	default:
		parts := make([]string, 0, len(e.And))
		for _, sub := range e.And {
			parts = append(parts, sub.String())
		}

		return "and(" + strings.Join(parts, ", ") + ")"
	}
}

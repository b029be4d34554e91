package transform

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/ethpandaops/ga4ch/pkg/ga4"
	"github.com/ethpandaops/ga4ch/pkg/reports"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanDimension(t *testing.T) {
	tests := map[string]string{
		"O'Brien":         "OBrien",
		"google":          "google",
		"''":              "",
		"it's Bob's shop": "its Bobs shop",
		"":                "",
		`say "hi"`:        `say "hi"`,
	}

	for in, expected := range tests {
		got := CleanDimension(in)
		assert.Equal(t, expected, got, in)
		assert.NotContains(t, got, "'")
		assert.Equal(t, len(in)-strings.Count(in, "'"), len(got), "apostrophes are removed, not replaced")
	}
}

func TestCoerceMetric(t *testing.T) {
	tests := []struct {
		in       string
		expected Number
	}{
		{in: "42", expected: Int(42)},
		{in: "0", expected: Int(0)},
		{in: "-7", expected: Int(-7)},
		{in: "12.5", expected: Float(12.5)},
		{in: "12,5", expected: Float(12.5)},
		{in: "1,234", expected: Float(1.234)},
		{in: "-0,75", expected: Float(-0.75)},
		{in: "9223372036854775807", expected: Int(9223372036854775807)},
		{in: "2.0", expected: Float(2)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CoerceMetric(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCoerceMetric_IntegerAndDecimalPatterns(t *testing.T) {
	for i := -1000; i <= 1000; i += 37 {
		s := strconv.Itoa(i)

		got, err := CoerceMetric(s)
		require.NoError(t, err)
		assert.Equal(t, Int(int64(i)), got)

		for _, sep := range []string{".", ","} {
			dec := s + sep + "25"

			got, err := CoerceMetric(dec)
			require.NoError(t, err, dec)

			expected, _ := strconv.ParseFloat(s+".25", 64)
			assert.Equal(t, Float(expected), got, dec)
		}
	}
}

func TestCoerceMetric_Errors(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{in: "", kind: KindInt},
		{in: "abc", kind: KindInt},
		{in: "1e5", kind: KindInt},
		{in: "9223372036854775808", kind: KindInt},
		{in: "1.2.3", kind: KindFloat},
		{in: "1,2,3", kind: KindFloat},
		{in: "12.5%", kind: KindFloat},
		{in: "n/a", kind: KindInt},
		{in: "1.5e3", kind: KindFloat},
		{in: "0x1.8p1", kind: KindFloat},
		{in: "+42", kind: KindInt},
		{in: ".5", kind: KindFloat},
		{in: "5.", kind: KindFloat},
		{in: "1,5e-2", kind: KindFloat},
		{in: "0x1F", kind: KindInt},
		{in: " 42", kind: KindInt},
		{in: "-", kind: KindInt},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := CoerceMetric(tt.in)
			require.Error(t, err)
			assert.Equal(t, KindNull, got.Kind())
			assert.ErrorIs(t, err, ErrInvalidMetric)

			var coercionErr *CoercionError
			require.ErrorAs(t, err, &coercionErr)
			assert.Equal(t, tt.kind, coercionErr.Kind)
			assert.Equal(t, tt.in, coercionErr.Value)
		})
	}
}

func TestCoerceMetric_MalformedNotParsed(t *testing.T) {
	for _, in := range []string{"1.5e3", "0x1.8p1", "+42", ".5", "5.", "1,5e-2"} {
		_, err := CoerceMetric(in)
		assert.ErrorIs(t, err, ErrMalformedNumber, in)
	}
}

func TestNumber(t *testing.T) {
	assert.Equal(t, int64(3), Int(3).Value())
	assert.Equal(t, 1.5, Float(1.5).Value())
	assert.Nil(t, Null().Value())

	assert.Equal(t, "3", Int(3).String())
	assert.Equal(t, "1.234", Float(1.234).String())
	assert.Equal(t, "2.0", Float(2).String())
	assert.Equal(t, "NULL", Null().String())

	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "null", KindNull.String())
}

func newTestTransformer(t *testing.T, policy Policy) *Transformer {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	tr, err := NewTransformer(logger, policy)
	require.NoError(t, err)

	return tr
}

func spec() reports.ReportSpec {
	return reports.ReportSpec{
		Name:       "sessions",
		Table:      "ga4.sessions",
		Dimensions: []string{"source", "medium"},
		Metrics:    []string{"sessions", "engagementRate"},
	}
}

func TestTransformer_Rows(t *testing.T) {
	tr := newTestTransformer(t, PolicyFail)

	rows, err := tr.Rows("2024-04-02", spec(), []ga4.Row{
		{Dimensions: []string{"google", "organic"}, Metrics: []string{"42", "0,5"}},
		{Dimensions: []string{"O'Brien's blog", "referral"}, Metrics: []string{"3", "1.25"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{Date: "2024-04-02", Dimensions: []string{"google", "organic"}, Metrics: []Number{Int(42), Float(0.5)}},
		{Date: "2024-04-02", Dimensions: []string{"OBriens blog", "referral"}, Metrics: []Number{Int(3), Float(1.25)}},
	}, rows)

	for _, r := range rows {
		assert.Len(t, r.Values(), spec().Columns())
	}

	assert.Equal(t, [][]interface{}{
		{"2024-04-02", "google", "organic", int64(42), 0.5},
		{"2024-04-02", "OBriens blog", "referral", int64(3), 1.25},
	}, Values(rows))
}

func TestTransformer_RowsDimensionsOnly(t *testing.T) {
	tr := newTestTransformer(t, PolicyFail)

	s := spec()
	s.Metrics = nil

	rows, err := tr.Rows("2024-04-02", s, []ga4.Row{{Dimensions: []string{"google", "T-1001"}}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{"2024-04-02", "google", "T-1001"}, rows[0].Values())
}

func TestTransformer_RowsEmpty(t *testing.T) {
	tr := newTestTransformer(t, PolicyFail)

	rows, err := tr.Rows("2024-04-02", spec(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransformer_InvalidMetricFail(t *testing.T) {
	tr := newTestTransformer(t, PolicyFail)

	rows, err := tr.Rows("2024-04-02", spec(), []ga4.Row{
		{Dimensions: []string{"google", "organic"}, Metrics: []string{"42", "0.5"}},
		{Dimensions: []string{"bing", "organic"}, Metrics: []string{"7", "n/a"}},
	})
	require.Error(t, err)
	assert.Nil(t, rows, "the whole report is rejected")

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 1, rowErr.Index)
	assert.Equal(t, "engagementRate", rowErr.Column)
	assert.ErrorIs(t, err, ErrInvalidMetric)
	assert.Contains(t, err.Error(), "row 1, column engagementRate")
}

func TestTransformer_InvalidMetricNull(t *testing.T) {
	tr := newTestTransformer(t, PolicyNull)

	rows, err := tr.Rows("2024-04-02", spec(), []ga4.Row{
		{Dimensions: []string{"bing", "organic"}, Metrics: []string{"7", "n/a"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []Number{Int(7), Null()}, rows[0].Metrics)
	assert.Equal(t, []interface{}{"2024-04-02", "bing", "organic", int64(7), nil}, rows[0].Values())
	assert.Len(t, rows[0].Values(), spec().Columns(), "arity is preserved")
}

func TestTransformer_ArityMismatch(t *testing.T) {
	tests := []struct {
		name string
		row  ga4.Row
	}{
		{name: "missing dimension", row: ga4.Row{Dimensions: []string{"google"}, Metrics: []string{"1", "2"}}},
		{name: "extra metric", row: ga4.Row{Dimensions: []string{"google", "cpc"}, Metrics: []string{"1", "2", "3"}}},
		{name: "no metrics", row: ga4.Row{Dimensions: []string{"google", "cpc"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, policy := range []Policy{PolicyFail, PolicyNull} {
				tr := newTestTransformer(t, policy)

				_, err := tr.Rows("2024-04-02", spec(), []ga4.Row{tt.row})
				assert.ErrorIs(t, err, ErrArityMismatch)

				var rowErr *RowError
				require.True(t, errors.As(err, &rowErr))
				assert.Equal(t, 0, rowErr.Index)
			}
		})
	}
}

func TestNewTransformer_InvalidPolicy(t *testing.T) {
	_, err := NewTransformer(logrus.New(), Policy("skip"))
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

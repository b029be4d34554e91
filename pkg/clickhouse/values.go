package clickhouse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteString renders s as a single-quoted ClickHouse string literal.
func QuoteString(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

// Literal renders a Go value as a ClickHouse literal. Strings are quoted, integers
// and floats are bare and nil is NULL. Floats always carry a decimal point. Non-finite floats have no literal form and
// render as NULL.
func Literal(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return QuoteString(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return "NULL"
		}

		out := strconv.FormatFloat(val, 'f', -1, 64)
		if !strings.Contains(out, ".") {
			out += ".0"
		}

		return out
	case fmt.Stringer:
		return QuoteString(val.String())
	default:
		return QuoteString(fmt.Sprint(val))
	}
}

// FormatValues renders rows as the body of an INSERT ... VALUES statement:
// parenthesized, comma-separated tuples joined by commas with no trailing comma.
func FormatValues(rows [][]interface{}) string {
	var b strings.Builder

	for i, row := range rows {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteByte('(')

		for j, v := range row {
			if j > 0 {
				b.WriteByte(',')
			}

			b.WriteString(Literal(v))
		}

		b.WriteByte(')')
	}

	return b.String()
}

package loader

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// DefaultInsertTemplate is the statement issued for every load
const DefaultInsertTemplate = `INSERT INTO {{ .table }} VALUES {{ .values }}`

// TemplateEngine renders statements with Sprig functions
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses content once for repeated rendering
func NewTemplateEngine(content string) (*TemplateEngine, error) {
	tmpl, err := template.New("insert").Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return &TemplateEngine{tmpl: tmpl}, nil
}

// Render renders the template with the given variables
func (t *TemplateEngine) Render(variables map[string]interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// BuildVariables builds the template variables for one insert
func BuildVariables(table, database, name, report, date string, rows int, values string) map[string]interface{} {
	return map[string]interface{}{
		"table":    table,
		"database": database,
		"name":     name,
		"report":   report,
		"date":     date,
		"rows":     rows,
		"values":   values,
	}
}

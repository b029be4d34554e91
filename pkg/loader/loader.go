// Package loader inserts serialized report rows into ClickHouse
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethpandaops/ga4ch/pkg/clickhouse"
	"github.com/ethpandaops/ga4ch/pkg/observability"
	"github.com/sirupsen/logrus"
)

// ErrTableNotFound is returned by CheckTable when the target table is missing
var ErrTableNotFound = errors.New("table does not exist")

// Config controls how inserts are issued
type Config struct {
	// VerifyTables checks the target table exists before inserting
	VerifyTables bool `yaml:"verifyTables" default:"true"`
	// InsertTemplate is a text/template (with Sprig functions) producing the statement
	InsertTemplate string `yaml:"insertTemplate"`
}

// LoadError is returned when the insert statement cannot be built or is rejected
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load into %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Batch is the serialized rows of one report for one day
type Batch struct {
	Report string
	Date   string
	Table  string
	Rows   int
	Values string
}

// Loader executes INSERT statements against ClickHouse. There is no transaction
// and no idempotency: loading the same batch twice inserts it twice.
type Loader struct {
	log          logrus.FieldLogger
	client       clickhouse.ClientInterface
	engine       *TemplateEngine
	verifyTables bool
}

// New creates a loader
func New(log logrus.FieldLogger, client clickhouse.ClientInterface, cfg Config) (*Loader, error) {
	content := cfg.InsertTemplate
	if content == "" {
		content = DefaultInsertTemplate
	}

	engine, err := NewTemplateEngine(content)
	if err != nil {
		return nil, err
	}

	return &Loader{
		log:          log.WithField("component", "loader"),
		client:       client,
		engine:       engine,
		verifyTables: cfg.VerifyTables,
	}, nil
}

// CheckTable returns a LoadError when the table does not exist
func (l *Loader) CheckTable(ctx context.Context, table string) error {
	database, name, err := clickhouse.SplitTable(table)
	if err != nil {
		return &LoadError{Table: table, Err: err}
	}

	exists, err := clickhouse.TableExists(ctx, l.client, database, name)
	if err != nil {
		return &LoadError{Table: table, Err: fmt.Errorf("failed to check table existence: %w", err)}
	}

	if !exists {
		return &LoadError{Table: table, Err: ErrTableNotFound}
	}

	return nil
}

// Statement renders the INSERT statement for b
func (l *Loader) Statement(b Batch) (string, error) {
	database, name, err := clickhouse.SplitTable(b.Table)
	if err != nil {
		return "", err
	}

	return l.engine.Render(BuildVariables(b.Table, database, name, b.Report, b.Date, b.Rows, b.Values))
}

// Load inserts b and returns the ClickHouse response body. An empty batch issues
// no statement.
func (l *Loader) Load(ctx context.Context, b Batch) ([]byte, error) {
	log := l.log.WithFields(logrus.Fields{
		"report": b.Report,
		"table":  b.Table,
		"date":   b.Date,
		"rows":   b.Rows,
	})

	if b.Values == "" {
		log.Warn("No rows to load, skipping insert")

		return nil, nil
	}

	if l.verifyTables {
		if err := l.CheckTable(ctx, b.Table); err != nil {
			observability.RecordError("loader", "table_check")

			return nil, err
		}
	}

	stmt, err := l.Statement(b)
	if err != nil {
		observability.RecordError("loader", "render")

		return nil, &LoadError{Table: b.Table, Err: fmt.Errorf("failed to render insert: %w", err)}
	}

	resp, err := l.client.Execute(ctx, stmt)
	if err != nil {
		observability.RecordError("loader", "insert")

		return nil, &LoadError{Table: b.Table, Err: err}
	}

	observability.RecordRowsLoaded(b.Report, b.Rows)
	log.Info("Inserted rows")

	return resp, nil
}

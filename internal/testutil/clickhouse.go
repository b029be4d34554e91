//go:build integration

package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
)

const (
	clickHouseImage = "clickhouse/clickhouse-server:25.5.10"

	// ReportDatabase is the database created in the test container
	ReportDatabase = "test_db"
)

// ClickHouseConnection holds the HTTP interface details of a test container.
type ClickHouseConnection struct {
	URL      string // http://host:port
	Database string
	Username string
	Password string
}

// Executor is the subset of clickhouse.ClientInterface needed to prepare tables.
type Executor interface {
	Execute(ctx context.Context, query string) ([]byte, error)
}

// NewClickHouseContainer starts a ClickHouse container and returns connection details
// for its HTTP interface. The container is terminated when the test completes.
func NewClickHouseContainer(t *testing.T) *ClickHouseConnection {
	t.Helper()

	ctx := context.Background()

	container, err := clickhouse.Run(ctx,
		clickHouseImage,
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword("test_password"),
		clickhouse.WithDatabase(ReportDatabase),
	)
	if err != nil {
		t.Fatalf("failed to start ClickHouse container: %v", err)
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate ClickHouse container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "8123/tcp")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}

	return &ClickHouseConnection{
		URL:      fmt.Sprintf("http://%s:%s", host, port.Port()),
		Database: ReportDatabase,
		Username: "default",
		Password: "test_password",
	}
}

// ReportTableDDL returns the CREATE TABLE statement for a report table laid out
// the way rows are inserted: date first, then one String column per dimension,
// then one Nullable(Float64) column per metric. Field names such as
// customEvent:transaction_id are backquoted.
func ReportTableDDL(table string, dimensions, metrics []string) string {
	columns := make([]string, 0, 1+len(dimensions)+len(metrics))
	columns = append(columns, "`date` Date")

	for _, d := range dimensions {
		columns = append(columns, fmt.Sprintf("`%s` String", d))
	}

	for _, m := range metrics {
		columns = append(columns, fmt.Sprintf("`%s` Nullable(Float64)", m))
	}

	return fmt.Sprintf("CREATE TABLE %s (%s) ENGINE = MergeTree() ORDER BY `date`",
		table, strings.Join(columns, ", "))
}

// CreateReportTable creates a report table in the container database.
func CreateReportTable(t *testing.T, exec Executor, table string, dimensions, metrics []string) {
	t.Helper()

	if _, err := exec.Execute(context.Background(), ReportTableDDL(table, dimensions, metrics)); err != nil {
		t.Fatalf("failed to create report table %s: %v", table, err)
	}
}

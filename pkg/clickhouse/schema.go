package clickhouse

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrInvalidTableName is returned when a table reference is not [database.]table
	ErrInvalidTableName = errors.New("invalid table name: expected [database.]table")

	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// SplitTable splits a "database.table" reference. The database part is empty
// when the reference is unqualified.
func SplitTable(ref string) (database, table string, err error) {
	parts := strings.Split(ref, ".")

	switch len(parts) {
	case 1:
		table = parts[0]
	case 2:
		database, table = parts[0], parts[1]
		if !identifierPattern.MatchString(database) {
			return "", "", fmt.Errorf("%w: %q", ErrInvalidTableName, ref)
		}
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTableName, ref)
	}

	if !identifierPattern.MatchString(table) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidTableName, ref)
	}

	return database, table, nil
}

// TableExists checks if a table exists. An empty database means the session's current database.
func TableExists(ctx context.Context, client ClientInterface, database, table string) (bool, error) {
	dbExpr := "currentDatabase()"
	if database != "" {
		dbExpr = QuoteString(database)
	}

	query := fmt.Sprintf(`
		SELECT count() as count
		FROM system.tables
		WHERE database = %s AND name = %s
	`, dbExpr, QuoteString(table))

	var result struct {
		Count uint64 `json:"count,string"`
	}

	err := client.QueryOne(ctx, query, &result)
	if err != nil {
		return false, err
	}

	return result.Count > 0, nil
}

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// FakeClickHouse records executed statements and answers table-existence checks.
// It satisfies clickhouse.ClientInterface.
type FakeClickHouse struct {
	mu         sync.Mutex
	statements []string
	missing    map[string]bool
	execErr    error
	queryErr   error
}

// NewFakeClickHouse creates a fake where every table exists.
func NewFakeClickHouse() *FakeClickHouse {
	return &FakeClickHouse{missing: make(map[string]bool)}
}

// MissingTable makes existence checks for name report false.
func (f *FakeClickHouse) MissingTable(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.missing[name] = true
}

// FailExecute makes every Execute call return err.
func (f *FakeClickHouse) FailExecute(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.execErr = err
}

// FailQuery makes every QueryOne/QueryMany call return err.
func (f *FakeClickHouse) FailQuery(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queryErr = err
}

// Statements returns the statements passed to Execute.
func (f *FakeClickHouse) Statements() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.statements...)
}

// QueryOne answers system.tables count queries; other queries leave dest untouched.
func (f *FakeClickHouse) QueryOne(_ context.Context, query string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.queryErr != nil {
		return f.queryErr
	}

	if !strings.Contains(query, "system.tables") {
		return nil
	}

	count := 1

	for name := range f.missing {
		if strings.Contains(query, fmt.Sprintf("name = '%s'", name)) {
			count = 0
		}
	}

	return json.Unmarshal([]byte(fmt.Sprintf(`{"count":"%d"}`, count)), dest)
}

// QueryMany returns no rows.
func (f *FakeClickHouse) QueryMany(_ context.Context, _ string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.queryErr
}

// Execute records the statement.
func (f *FakeClickHouse) Execute(_ context.Context, query string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.execErr != nil {
		return nil, f.execErr
	}

	f.statements = append(f.statements, query)

	return []byte("Ok.\n"), nil
}

// Start is a no-op.
func (f *FakeClickHouse) Start() error { return nil }

// Stop is a no-op.
func (f *FakeClickHouse) Stop() error { return nil }

// Package testutil provides test utilities for ga4ch, including:
//   - ClickHouse container helpers for integration tests (clickhouse.go)
//   - A fake GA4 reporter for unit tests (reporter.go)
//   - An in-memory ClickHouse client recording statements (clickhouse_fake.go)
//
// Container helpers require Docker and are gated behind the "integration"
// build tag. To run integration tests:
//
//	go test -tags=integration ./...
package testutil

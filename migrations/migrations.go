// Package migrations holds the schema applied by `portal migrate`.
package migrations

import _ "embed"

// MySQL creates the client registry. Runs as one multi-statement exec.
//
//go:embed 001_clients.sql
var MySQL string

// ClickHouse creates the usage events table. A single statement.
//
//go:embed 002_usage_events.sql
var ClickHouse string

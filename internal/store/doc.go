// Package store executes formatted plans against SQLite.
//
// Execution is outside the query compiler; this adapter exists so that
// generated SQL and DDL can be run end to end by the CLI and by
// integration tests. Parameters are bound exactly as the formatter
// ordered them, through querysql.Result.Args.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait on lock contention
//   - foreign_keys=ON: Enforce relationship columns
package store

// Package store provides SQLite-backed history of verification runs.
//
// Each run is one row in the runs table, written once and never updated.
// Rows are listed newest first by insertion sequence.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs are UUIDv7 by default, so they sort by creation time.
package store

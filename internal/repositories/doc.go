// Package repositories implements SQLite persistence for all domain entities.
//
// Each repository handles CRUD operations with atomic sequence generation for human-readable ordering.
// All repositories support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
//
// Key Implementations:
//   - [BookRepository] : Local cache of library books with server-id lookups
//   - [ImportRepository] : Upload history with per-batch and per-status queries
//
// Sequence numbers provide stable, human-readable ordering (e.g., book #42, import #15) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories

// Package models defines domain entities and persistence interfaces for the shelfctl library client.
//
// The package contains persistent entities backed by the local SQLite cache:
//   - [PersistedBook] : Cached books from the remote library, keyed by client-side UUID
//   - [ImportRecord] : Upload/import history with task ids, resulting book ids, and failure messages
//
// All persistent entities implement the [Model] interface providing ID generation, timestamps, validation, and soft delete support.
// The [Repository] interface defines standard CRUD operations for database access.
//
// Remote-only shapes (books, shelves, tasks as returned by the library server) live in
// the services package as DTOs; this package only models what the client persists.
package models

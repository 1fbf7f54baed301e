// Package docdb provides a SQLite-backed document database: named
// collections of JSON objects, each collection optionally guarded by a
// registered schema.
//
// # Storage
//
//   - documents: one row per document (seq, id, collection, body)
//   - schemas: one descriptor per collection, with its fingerprint
//   - meta: format version stamped at open time
//
// Bodies are stored as RFC 8785 canonical JSON (ir.MarshalCanonical), so
// equal documents are byte-identical on disk.
//
// # Ordering
//
// All queries order by seq ASC, id COLLATE BINARY ASC. "First match" is
// always the earliest inserted document.
//
// # Filters
//
// Equality filters are compiled through queryir and querysql into
// json_extract comparisons. Every candidate row is re-checked in process
// with queryir.Match, so results honor ir.Equal exactly.
//
// # Schemas
//
// A Schema is compiled to a CUE definition and every write to the
// collection is validated by unification. Compiled schemas are cached per
// collection.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Errors are *status.Error values: IO_ERROR for SQLite failures, CORRUPT
// for undecodable bodies, SCHEMA_VIOLATION for rejected writes.
package docdb

// Package store provides the SQLite run audit log.
//
// Every generate run may be recorded with its manifest digest, the digest
// of each emitted file and its diagnostics. The log is append only and is
// never read back into the pipeline: it answers "what changed between two
// runs" and nothing else.
//
// # Ordering
//
// Runs are ordered by seq, a logical counter assigned at insert. Listing
// queries always ORDER BY seq so results are identical across machines.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
//   - one open connection (single writer)
package store

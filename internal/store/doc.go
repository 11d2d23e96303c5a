// Package store provides the SQLite-backed build ledger.
//
// Every successful build can be recorded with the digest of its IR document
// and the digest of each file it wrote. The ledger answers two questions:
// what was built, and did the IR change since the last build for a target.
// The IR itself is never stored.
//
// # Ordering
//
// Builds are ordered by a logical sequence number assigned at write time,
// never by wall-clock time. Listing queries use ORDER BY seq with id as a
// tiebreaker so results are identical across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

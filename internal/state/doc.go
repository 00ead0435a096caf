// Package state provides SQLite-backed dedup and audit state for
// ingestion.
//
// Two tables:
//   - seen_transactions: every fingerprint ever staged, permanent.
//     A fingerprint present here is never staged again.
//   - ingest_runs: append-only audit of ingestion commands and their
//     counts.
//
// Marking is idempotent (ON CONFLICT DO NOTHING), so re-marking a
// fingerprint is harmless. Marks happen only after the corresponding
// journal entry has been written; a crash between the two re-stages a
// duplicate line on the next run, which review catches, rather than
// silently losing a transaction.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package state

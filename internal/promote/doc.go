// Package promote moves staged journal entries into permanent dated
// storage and regenerates the top-level ledger's include manifest.
//
// A run walks four phases: Scanning (find staged files and the months
// their entries actually cover), Promoting (append each staged file to
// its postings/<year>/<year-month>/<institution>.journal targets),
// Finalizing (delete staged files, rebuild main.journal wholesale),
// then Posted. A staged file's name month is only its creation-time
// bucket; entries are re-partitioned by their header dates at
// promotion time, so a batch spanning a month boundary lands where it
// belongs.
//
// Promotion is append-only on the postings tree and holds an exclusive
// lock on the staging directory for its whole duration. Finalizing is
// idempotent: re-running promotion after a crash between phases
// converges to a consistent manifest.
package promote

// Package canon defines the canonical transaction record that every
// ingestion source normalizes into, plus the content-derived fingerprint
// used for deduplication.
//
// The canonical record is the interchange format between source adapters
// (CSV files, the SimpleFIN API) and the journal writer. It is serialized
// one JSON object per line (JSONL) and is immutable once created.
//
// Sign convention: Amount is a fixed-point decimal string where positive
// means money leaving the source account (the expense convention). Source
// adapters are responsible for flipping signs so this holds regardless of
// the polarity the institution exports.
//
// Identity: Fingerprint hashes (account, date, amount, normalized payee,
// source id). Memo is deliberately excluded, so editing a memo never
// changes a transaction's identity. Payee normalization happens at the
// identity boundary only; the canonical record keeps the raw payee so the
// rules engine can match against what the bank actually sent.
package canon

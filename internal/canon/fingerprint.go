package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// fingerprintSep joins the identity fields before hashing. None of the
// fields may plausibly contain it after normalization (payee is reduced
// to [a-z0-9 ], dates and amounts are numeric, account paths use colons).
const fingerprintSep = "|"

// Fingerprint derives the stable deduplication identity of a transaction
// from its economically meaningful fields. The same five inputs always
// yield the same digest, on every host and every run.
//
// The payee is normalized (see NormalizePayee) before hashing, so
// formatting noise in bank exports does not change identity. Memo is not
// an input: two records differing only in memo are the same economic
// event.
//
// Returns the lowercase hex encoding of a SHA-256 digest (64 chars).
func Fingerprint(account, date, amount, payee, sourceID string) string {
	parts := strings.Join([]string{
		account,
		date,
		amount,
		NormalizePayee(payee),
		sourceID,
	}, fingerprintSep)

	sum := sha256.Sum256([]byte(parts))
	return hex.EncodeToString(sum[:])
}

// FingerprintOf is shorthand for fingerprinting a canonical record.
func FingerprintOf(t Transaction) string {
	return Fingerprint(t.Account, t.Date, t.Amount, t.Payee, t.SourceID)
}

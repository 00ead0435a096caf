package canon

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRE   = regexp.MustCompile(`[^a-z0-9\s]+`)
	whitespaceRE = regexp.MustCompile(`\s+`)
)

// NormalizePayee reduces a raw payee string to its identity form: NFKD
// decomposition (so precomposed and combining accent encodings agree,
// and the accents themselves drop out), lowercased, stripped of
// everything outside [a-z0-9] and whitespace, with whitespace runs
// collapsed to single spaces and the ends trimmed.
//
// The transform is idempotent: NormalizePayee(NormalizePayee(s)) ==
// NormalizePayee(s) for every input, which the fingerprint relies on.
//
//	NormalizePayee("  TRADER JOE'S #123  ")  // "trader joes 123"
//	NormalizePayee("AMZN Mktp US*AB1CD2EF3") // "amzn mktp usab1cd2ef3"
func NormalizePayee(raw string) string {
	s := norm.NFKD.String(raw)
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRE.ReplaceAllString(s, "")
	s = whitespaceRE.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

package simplefin

import (
	"strings"
	"time"
)

// AccountSet is the /accounts response body.
type AccountSet struct {
	// Errors carries bridge-side warnings, e.g. an institution the
	// bridge could not refresh. Non-fatal; surfaced to the user.
	Errors []string `json:"errors"`

	Accounts []Account `json:"accounts"`
}

// Account is one bank account as the bridge reports it.
type Account struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`

	// Balance is a decimal string in the account currency.
	Balance string `json:"balance"`

	Org Org `json:"org"`

	Transactions []Transaction `json:"transactions"`
}

// Org identifies the institution behind an account.
type Org struct {
	Domain string `json:"domain"`
	Name   string `json:"name"`
}

// Transaction is one transaction as the bridge reports it.
type Transaction struct {
	ID string `json:"id"`

	// Posted is the settlement time as a unix timestamp, 0 if not yet
	// settled.
	Posted int64 `json:"posted"`

	// Amount is a decimal string; negative means money leaving the
	// account (bank polarity, flipped during canonicalization).
	Amount string `json:"amount"`

	Description string `json:"description"`
	Pending     bool   `json:"pending"`

	// TransactedAt is when the transaction actually occurred, which for
	// card transactions precedes settlement by days. 0 when unknown.
	TransactedAt int64 `json:"transacted_at"`
}

// institutionByDomain maps known bridge org domains to the short
// institution tags the rest of the pipeline uses.
var institutionByDomain = map[string]string{
	"firsttechfed":    "firsttech",
	"chase":           "chase",
	"americanexpress": "amex",
	"bofa":            "bofa",
	"bankofamerica":   "bofa",
	"wellsfargo":      "wells",
	"wells":           "wells",
	"capitalone":      "capital_one",
	"citi":            "citi",
	"citibank":        "citi",
	"discover":        "discover",
}

// Institution derives the short institution tag for an account from
// its org domain: a known mapping when the domain contains one of the
// recognized names, otherwise the first label of the domain, lowered.
// An account with no domain at all is tagged "unknown".
func (a Account) Institution() string {
	domain := strings.ToLower(strings.TrimSpace(a.Org.Domain))
	if domain == "" {
		return "unknown"
	}
	for key, tag := range institutionByDomain {
		if strings.Contains(domain, key) {
			return tag
		}
	}
	return strings.SplitN(domain, ".", 2)[0]
}

// Date returns the transaction's calendar date in YYYY-MM-DD, UTC.
// TransactedAt is preferred over Posted; with neither set the current
// UTC date stands in so the record is never dropped for a missing
// timestamp.
func (t Transaction) Date() string {
	ts := t.TransactedAt
	if ts == 0 {
		ts = t.Posted
	}
	if ts == 0 {
		return time.Now().UTC().Format("2006-01-02")
	}
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}

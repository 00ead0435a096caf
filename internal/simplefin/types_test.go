package simplefin

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInstitutionKnownDomains(t *testing.T) {
	cases := []struct {
		domain string
		want   string
	}{
		{"www.firsttechfed.com", "firsttech"},
		{"chase.com", "chase"},
		{"www.americanexpress.com", "amex"},
		{"bankofamerica.com", "bofa"},
		{"wellsfargo.com", "wells"},
		{"capitalone.com", "capital_one"},
		{"citi.com", "citi"},
		{"discover.com", "discover"},
	}
	for _, tc := range cases {
		t.Run(tc.domain, func(t *testing.T) {
			a := Account{Org: Org{Domain: tc.domain}}
			assert.Equal(t, tc.want, a.Institution())
		})
	}
}

func TestInstitutionUnknownDomainUsesFirstLabel(t *testing.T) {
	a := Account{Org: Org{Domain: "SomeCreditUnion.org"}}
	assert.Equal(t, "somecreditunion", a.Institution())
}

func TestInstitutionEmptyDomain(t *testing.T) {
	a := Account{}
	assert.Equal(t, "unknown", a.Institution())
}

func TestDatePrefersTransactedAt(t *testing.T) {
	transacted := time.Date(2026, 2, 13, 23, 30, 0, 0, time.UTC)
	posted := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)

	txn := Transaction{TransactedAt: transacted.Unix(), Posted: posted.Unix()}
	assert.Equal(t, "2026-02-13", txn.Date())
}

func TestDateFallsBackToPosted(t *testing.T) {
	posted := time.Date(2026, 2, 15, 8, 0, 0, 0, time.UTC)
	txn := Transaction{Posted: posted.Unix()}
	assert.Equal(t, "2026-02-15", txn.Date())
}

func TestDateZeroTimestampsUseToday(t *testing.T) {
	txn := Transaction{}
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), txn.Date())
}

package simplefin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"finfeed/internal/canon"
)

var titleCaser = cases.Title(language.English)

// AccountPath maps a bridge account to a ledger account path using
// keywords in the account name. "checking" and "saving" select asset
// categories, "credit" and "loan" liability ones; anything else lands
// in a per-institution other-assets bucket.
func AccountPath(acct Account) string {
	inst := titleCaser.String(strings.ReplaceAll(acct.Institution(), "_", " "))
	inst = strings.ReplaceAll(inst, " ", "")

	name := strings.ToLower(acct.Name)
	switch {
	case strings.Contains(name, "checking"):
		return "Assets:Checking:" + inst
	case strings.Contains(name, "saving"):
		return "Assets:Savings:" + inst
	case strings.Contains(name, "credit"):
		return "Liabilities:CreditCard:" + inst
	case strings.Contains(name, "loan"):
		return "Liabilities:Loan:" + inst
	}
	return "Assets:Other:" + inst
}

// CanonicalizeResult reports what Canonicalize kept and dropped.
type CanonicalizeResult struct {
	Transactions []canon.Transaction

	// Pending counts transactions dropped because they have not
	// settled yet. They will reappear settled in a later pull.
	Pending int

	// Skipped counts transactions dropped for unparsable amounts.
	Skipped int
}

// Canonicalize converts a fetched account set into canonical
// transactions. Pending transactions are dropped; amounts are flipped
// from bank polarity (negative = debit) to the canonical convention
// (positive = outflow); the transaction id becomes the source id, so
// identical economic events from overlapping pulls fingerprint
// identically.
func Canonicalize(set *AccountSet) *CanonicalizeResult {
	res := &CanonicalizeResult{}

	for _, acct := range set.Accounts {
		account := AccountPath(acct)
		institution := acct.Institution()

		for _, txn := range acct.Transactions {
			if txn.Pending {
				res.Pending++
				continue
			}

			d, err := canon.ParseAmount(txn.Amount)
			if err != nil {
				res.Skipped++
				continue
			}

			res.Transactions = append(res.Transactions, canon.Transaction{
				Date:        txn.Date(),
				Amount:      canon.FormatAmount(d.Neg()),
				Payee:       txn.Description,
				Account:     account,
				SourceID:    txn.ID,
				Institution: institution,
			})
		}
	}

	return res
}

// Package journal renders canonical transactions as ledger-entry text
// and appends them to per-institution, per-month staging files.
//
// Each entry is three lines plus a trailing blank line:
//
//	2026-02-15 Trader Joe's  ; fingerprint:<64-hex>
//	    Expenses:Groceries    $42.50
//	    Assets:Chase:Checking
//
// The header carries the dedup fingerprint as a comment, so a duplicate
// that slips through (crash between file write and dedup mark) is
// detectable by inspection rather than silently merged. The second
// posting line has no amount; the ledger balances it implicitly.
//
// Staging files are named <institution>_<YYYY-MM>.journal, bucketed by
// transaction month. Entries whose dates do not parse go to an
// "unknown" bucket instead of being dropped.
package journal

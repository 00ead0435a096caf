// Package simplefin pulls accounts and transactions from a SimpleFIN
// Bridge and converts them into canonical transactions.
//
// A bridge hands out an access URL with basic-auth credentials baked
// in; everything after that is one read-only endpoint, GET /accounts
// with a unix start-date/end-date window. Bridges reject overly wide
// windows, so long ranges are fetched as a sequence of bounded windows
// and merged by transaction id. Pending transactions are dropped at
// canonicalization; a transaction seen pending in one window and
// settled in another keeps the settled version.
package simplefin

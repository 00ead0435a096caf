package journal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finfeed/internal/canon"
	"finfeed/internal/rules"
	"finfeed/internal/state"
)

// WriteResult summarizes one staging write.
type WriteResult struct {
	// Counts maps institution to the number of newly staged entries.
	// All-zero counts mean the run found nothing new.
	Counts map[string]int

	// Duplicates counts transactions suppressed because their
	// fingerprint was already seen, in the store or earlier in this
	// same batch.
	Duplicates int
}

// Total returns the number of newly staged entries across institutions.
func (r *WriteResult) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Write stages a batch of canonical transactions.
//
// For each transaction it computes the fingerprint, skips it if already
// seen, applies the rules, renders the entry, and groups it by staging
// file. Groups are then appended file by file in sorted name order;
// after each file append the group's fingerprints are marked seen.
// Marking after writing means a crash can at worst re-stage an entry on
// retry (a visible duplicate), never lose one.
func Write(ctx context.Context, txns []canon.Transaction, rs *rules.RuleSet, store *state.Store, stagingDir string) (*WriteResult, error) {
	res := &WriteResult{Counts: make(map[string]int)}

	type group struct {
		institution  string
		entries      []string
		fingerprints []string
	}
	groups := make(map[string]*group)

	// Fingerprints staged earlier in this batch. The store only learns
	// about them after the file append, so the same export containing
	// an exact duplicate row needs suppressing here.
	inBatch := make(map[string]struct{})

	for _, txn := range txns {
		fp := canon.FingerprintOf(txn)
		if _, dup := inBatch[fp]; dup {
			res.Duplicates++
			continue
		}
		seen, err := store.IsSeen(ctx, fp)
		if err != nil {
			return nil, err
		}
		if seen {
			res.Duplicates++
			continue
		}
		inBatch[fp] = struct{}{}

		payee, account := rs.Apply(txn)
		entry := FormatEntry(txn.Date, payee, fp, account, txn.Amount, txn.Account)

		name := StagingFileName(txn.Institution, txn.Date)
		g := groups[name]
		if g == nil {
			g = &group{institution: txn.Institution}
			groups[name] = g
		}
		g.entries = append(g.entries, entry)
		g.fingerprints = append(g.fingerprints, fp)
	}

	if len(groups) == 0 {
		return res, nil
	}

	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		g := groups[name]
		if err := appendFile(filepath.Join(stagingDir, name), strings.Join(g.entries, "")); err != nil {
			return nil, err
		}
		if _, err := store.MarkBatch(ctx, g.fingerprints, g.institution); err != nil {
			return nil, err
		}
		res.Counts[g.institution] += len(g.entries)
	}

	return res, nil
}

// FormatEntry renders one ledger entry, trailing blank line included.
// The format is fixed; downstream tools and the promotion scanner
// depend on it byte for byte.
func FormatEntry(date, payee, fingerprint, account, amount, sourceAccount string) string {
	return fmt.Sprintf("%s %s  ; fingerprint:%s\n    %s    $%s\n    %s\n\n",
		date, payee, fingerprint, account, amount, sourceAccount)
}

// StagingFileName returns the staging file for a transaction:
// <institution>_<YYYY-MM>.journal, bucketed by transaction month, or
// an "unknown" bucket when the date does not parse.
func StagingFileName(institution, date string) string {
	return institution + "_" + monthBucket(date) + ".journal"
}

func monthBucket(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "unknown"
	}
	return t.Format("2006-01")
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open staging file: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("append staging file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}
	return nil
}

package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// StagedEntry is one ledger entry parsed back out of a staging file,
// for review before promotion.
type StagedEntry struct {
	// File is the staging file's base name.
	File string

	Date        string
	Payee       string
	Fingerprint string

	// Account is the expense/income posting account.
	Account string

	// Amount as written, without the currency symbol.
	Amount string

	// SourceAccount is the balancing posting account.
	SourceAccount string
}

// Uncategorized reports whether the entry still needs an account rule.
func (e StagedEntry) Uncategorized() bool {
	return strings.HasSuffix(e.Account, ":Uncategorized")
}

var (
	headerRE  = regexp.MustCompile(`^(\S+) (.*?)  ; fingerprint:([0-9a-f]{64})$`)
	postingRE = regexp.MustCompile(`^    (\S+)    \$(-?[0-9.]+)$`)
	balanceRE = regexp.MustCompile(`^    (\S+)$`)
)

// ParseEntries parses rendered entry text back into staged entries.
// The format is the fixed one FormatEntry produces; lines that do not
// fit it (comments, stray blanks) are ignored rather than fatal, so a
// hand-annotated staging file still reviews cleanly.
func ParseEntries(file, content string) []StagedEntry {
	var entries []StagedEntry
	var cur *StagedEntry

	for _, line := range strings.Split(content, "\n") {
		if m := headerRE.FindStringSubmatch(line); m != nil {
			if cur != nil {
				entries = append(entries, *cur)
			}
			cur = &StagedEntry{File: file, Date: m[1], Payee: m[2], Fingerprint: m[3]}
			continue
		}
		if cur == nil {
			continue
		}
		if m := postingRE.FindStringSubmatch(line); m != nil && cur.Account == "" {
			cur.Account, cur.Amount = m[1], m[2]
			continue
		}
		if m := balanceRE.FindStringSubmatch(line); m != nil && cur.Account != "" && cur.SourceAccount == "" {
			cur.SourceAccount = m[1]
		}
	}
	if cur != nil {
		entries = append(entries, *cur)
	}
	return entries
}

// ParseStagingDir parses every staged journal file in dir, file name
// order. A missing directory means nothing staged.
func ParseStagingDir(dir string) ([]StagedEntry, error) {
	dirEntries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read staging dir: %w", err)
	}

	var names []string
	for _, ent := range dirEntries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".journal") {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)

	var entries []StagedEntry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read staged file %s: %w", name, err)
		}
		entries = append(entries, ParseEntries(name, string(data))...)
	}
	return entries, nil
}

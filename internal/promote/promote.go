package promote

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// phase names one stage of a promotion run, in order.
type phase string

const (
	phaseStaged     phase = "staged"
	phaseScanning   phase = "scanning"
	phasePromoting  phase = "promoting"
	phaseFinalizing phase = "finalizing"
	phasePosted     phase = "posted"
)

// entryHeaderRE matches a ledger entry header line and captures the
// entry's year-month. Headers are the only lines starting with a date.
var entryHeaderRE = regexp.MustCompile(`^(\d{4}-\d{2})-\d{2} `)

// Move is one planned or executed (staged file, month) promotion.
type Move struct {
	// StagedFile is the staging file's base name.
	StagedFile string

	// Institution parsed from the staging file name.
	Institution string

	// Month the entries carried, YYYY-MM.
	Month string

	// Dest is the postings path the content was (or would be) appended to.
	Dest string
}

// Result reports what one promotion run did.
type Result struct {
	// Moves in execution order, sorted by staged file then month.
	Moves []Move

	// ManifestFiles lists every promoted journal in the manifest after
	// Finalizing, manifest order. Empty for dry runs.
	ManifestFiles []string

	// DryRun reports that Promoting and Finalizing were skipped.
	DryRun bool
}

// Engine promotes one staging directory into a postings tree.
type Engine struct {
	// StagingDir holds <institution>_<bucket>.journal files.
	StagingDir string

	// PostingsDir is the permanent year/month/institution tree.
	PostingsDir string

	// MainJournal is the manifest file to regenerate.
	MainJournal string
}

// Run executes the promotion. With dryRun it stops after Scanning and
// reports the moves it would make. No staged files is a no-op success.
//
// The staging lock is held from before Scanning until after
// Finalizing and released on every exit path.
func (e *Engine) Run(dryRun bool) (*Result, error) {
	staged, err := e.stagedFiles()
	if err != nil {
		return nil, err
	}
	if len(staged) == 0 {
		slog.Info("nothing staged, nothing to promote")
		return &Result{DryRun: dryRun}, nil
	}

	lk, err := acquireLock(e.StagingDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := lk.release(); relErr != nil {
			slog.Error("failed to release promote lock", "error", relErr)
		}
	}()

	st := phaseScanning
	slog.Debug("promotion phase", "phase", st)
	moves, err := e.scan(staged)
	if err != nil {
		return nil, err
	}

	if dryRun {
		return &Result{Moves: moves, DryRun: true}, nil
	}

	st = phasePromoting
	slog.Debug("promotion phase", "phase", st)
	if err := e.promoteAll(moves); err != nil {
		return nil, err
	}

	st = phaseFinalizing
	slog.Debug("promotion phase", "phase", st)
	for _, name := range staged {
		if err := os.Remove(filepath.Join(e.StagingDir, name)); err != nil {
			return nil, fmt.Errorf("remove staged file %s: %w", name, err)
		}
	}
	manifest, err := e.RebuildManifest()
	if err != nil {
		return nil, err
	}

	st = phasePosted
	slog.Debug("promotion phase", "phase", st)
	return &Result{Moves: moves, ManifestFiles: manifest}, nil
}

// stagedFiles lists the promotable journal files in the staging
// directory, sorted. A missing staging directory means nothing staged.
func (e *Engine) stagedFiles() ([]string, error) {
	entries, err := os.ReadDir(e.StagingDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read staging dir: %w", err)
	}

	var names []string
	for _, ent := range entries {
		if ent.IsDir() || !strings.HasSuffix(ent.Name(), ".journal") {
			continue
		}
		names = append(names, ent.Name())
	}
	sort.Strings(names)
	return names, nil
}

// scan extracts each staged file's actual entry months and plans the
// moves. A file whose entries parse to no month at all (corrupt or
// "unknown"-bucketed headers) is promoted under its name bucket so it
// is never silently dropped.
func (e *Engine) scan(staged []string) ([]Move, error) {
	var moves []Move
	for _, name := range staged {
		data, err := os.ReadFile(filepath.Join(e.StagingDir, name))
		if err != nil {
			return nil, fmt.Errorf("read staged file %s: %w", name, err)
		}

		institution, bucket := splitStagedName(name)
		months := entryMonths(string(data))
		if len(months) == 0 {
			months = []string{bucket}
		}

		for _, month := range months {
			moves = append(moves, Move{
				StagedFile:  name,
				Institution: institution,
				Month:       month,
				Dest:        e.destPath(institution, month),
			})
		}
	}
	return moves, nil
}

func (e *Engine) promoteAll(moves []Move) error {
	for _, mv := range moves {
		data, err := os.ReadFile(filepath.Join(e.StagingDir, mv.StagedFile))
		if err != nil {
			return fmt.Errorf("read staged file %s: %w", mv.StagedFile, err)
		}
		if err := os.MkdirAll(filepath.Dir(mv.Dest), 0o755); err != nil {
			return fmt.Errorf("create postings dir: %w", err)
		}
		if err := appendFile(mv.Dest, data); err != nil {
			return err
		}
		slog.Info("promoted", "staged", mv.StagedFile, "month", mv.Month, "dest", mv.Dest)
	}
	return nil
}

// destPath returns postings/<year>/<year-month>/<institution>.journal.
// A month that is not YYYY-MM (the "unknown" bucket) gets its own
// directory directly under postings.
func (e *Engine) destPath(institution, month string) string {
	year := "unknown"
	if len(month) >= 4 && month != "unknown" {
		year = month[:4]
		return filepath.Join(e.PostingsDir, year, month, institution+".journal")
	}
	return filepath.Join(e.PostingsDir, year, institution+".journal")
}

// splitStagedName parses <institution>_<bucket>.journal. The bucket is
// everything after the last underscore, so institutions themselves may
// contain underscores ("capital_one_2026-02.journal").
func splitStagedName(name string) (institution, bucket string) {
	base := strings.TrimSuffix(name, ".journal")
	i := strings.LastIndex(base, "_")
	if i < 0 {
		return base, "unknown"
	}
	return base[:i], base[i+1:]
}

// entryMonths returns the sorted distinct months of the entry header
// lines in content.
func entryMonths(content string) []string {
	set := make(map[string]struct{})
	for _, line := range strings.Split(content, "\n") {
		if m := entryHeaderRE.FindStringSubmatch(line); m != nil {
			set[m[1]] = struct{}{}
		}
	}
	months := make([]string, 0, len(set))
	for m := range set {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open postings file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("append postings file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close postings file: %w", err)
	}
	return nil
}

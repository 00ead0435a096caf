package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"finfeed/internal/canon"
	"finfeed/internal/config"
	"finfeed/internal/csvnorm"
	"finfeed/internal/journal"
	"finfeed/internal/profile"
	"finfeed/internal/rules"
	"finfeed/internal/simplefin"
	"finfeed/internal/state"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	File    string
	Profile string
	Source  string
	Days    int
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Normalize and stage transactions from a CSV export or SimpleFIN",
		Long: `Ingest transactions into the staging area.

CSV mode reads one export file using a named profile, archives the raw
file by content hash, and appends the normalized records to the
canonical archive. SimpleFIN mode pulls the last N days from the
connected bridge. Both modes then fingerprint, deduplicate, categorize
and stage the new entries; run "finfeed post" to promote them.

Example:
  finfeed ingest --file ~/Downloads/chase.csv --profile chase_checking
  finfeed ingest --source simplefin --days 30`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch opts.Source {
			case "csv":
				if opts.File == "" || opts.Profile == "" {
					return NewExitError(ExitCommandError, "csv ingestion requires --file and --profile")
				}
				return runIngestCSV(cmd, opts)
			case "simplefin":
				return runIngestSimpleFIN(cmd, opts)
			}
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown source %q: must be csv or simplefin", opts.Source))
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "CSV export file to ingest")
	cmd.Flags().StringVar(&opts.Profile, "profile", "", "profile name (profiles/<name>.yaml)")
	cmd.Flags().StringVar(&opts.Source, "source", "csv", "ingestion source (csv|simplefin)")
	cmd.Flags().IntVar(&opts.Days, "days", 30, "days of history to pull (simplefin only)")

	return cmd
}

func runIngestCSV(cmd *cobra.Command, opts *IngestOptions) error {
	layout, err := opts.Layout()
	if err != nil {
		return err
	}

	prof, err := profile.LoadByName(layout.ProfilesDir, opts.Profile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load profile", err)
	}

	archived, err := archiveRaw(opts.File, layout.RawDir, opts.Profile)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to archive raw file", err)
	}
	slog.Debug("raw file archived", "path", archived)

	res, err := csvnorm.NormalizeFile(opts.File, prof)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to normalize csv", err)
	}
	for _, skip := range res.Skipped {
		slog.Debug("skipped row", "row", skip.Row, "reason", skip.Reason)
	}

	return stageAndRecord(cmd, layout, res.Transactions, "csv", opts.Profile, len(res.Skipped))
}

func runIngestSimpleFIN(cmd *cobra.Command, opts *IngestOptions) error {
	layout, err := opts.Layout()
	if err != nil {
		return err
	}

	accessURL, err := simplefin.LoadAccessURL(layout.StateDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "no simplefin access", err)
	}
	client, err := simplefin.NewClient(accessURL)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid simplefin access url", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -opts.Days)
	slog.Info("fetching simplefin transactions",
		"start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))

	set, err := client.FetchRange(ctx, start, end)
	if err != nil {
		return WrapExitError(ExitFailure, "simplefin fetch failed", err)
	}

	res := simplefin.Canonicalize(set)
	if res.Pending > 0 {
		slog.Info("pending transactions deferred", "count", res.Pending)
	}

	return stageAndRecord(cmd, layout, res.Transactions, "simplefin", "", res.Skipped)
}

// stageAndRecord is the shared pipeline tail: archive the canonical
// records, load the rules, open the dedup store, stage the new
// entries, and record the run.
func stageAndRecord(cmd *cobra.Command, layout config.Layout, txns []canon.Transaction, source, profileName string, skipped int) error {
	if err := archiveCanonical(layout.CanonicalDir, txns); err != nil {
		return WrapExitError(ExitFailure, "failed to write canonical archive", err)
	}

	rs, err := rules.Load(layout.RulesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rules", err)
	}

	// The store must open before any staging write happens; a broken
	// store aborts the run with nothing half-done.
	store, err := state.Open(layout.SeenDB)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open dedup store", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("error closing dedup store", "error", closeErr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	startedAt := time.Now().UTC()
	res, err := journal.Write(ctx, txns, rs, store, layout.StagingDir)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to stage entries", err)
	}

	run := state.Run{
		ID:         uuid.Must(uuid.NewV7()).String(),
		Source:     source,
		Profile:    profileName,
		StartedAt:  startedAt,
		Parsed:     len(txns),
		Staged:     res.Total(),
		Duplicates: res.Duplicates,
		Skipped:    skipped,
	}
	if err := store.RecordRun(ctx, run); err != nil {
		return WrapExitError(ExitFailure, "failed to record run", err)
	}

	printIngestSummary(cmd.OutOrStdout(), res, run)
	return nil
}

func printIngestSummary(w io.Writer, res *journal.WriteResult, run state.Run) {
	if res.Total() == 0 {
		fmt.Fprintf(w, "Nothing new: %d parsed, %d duplicates, %d skipped.\n",
			run.Parsed, run.Duplicates, run.Skipped)
		return
	}

	insts := make([]string, 0, len(res.Counts))
	for inst := range res.Counts {
		insts = append(insts, inst)
	}
	sort.Strings(insts)

	fmt.Fprintf(w, "Staged %d new entries (%d parsed, %d duplicates, %d skipped):\n",
		res.Total(), run.Parsed, run.Duplicates, run.Skipped)
	for _, inst := range insts {
		fmt.Fprintf(w, "  %-16s %d\n", inst, res.Counts[inst])
	}
	fmt.Fprintln(w, "Run `finfeed review` to inspect, `finfeed post` to promote.")
}

// archiveRaw copies the source file into the raw archive, named by the
// first 16 hex chars of its content hash. Re-ingesting the same file
// overwrites the identical archive copy, so the archive stays
// duplicate-free by construction.
func archiveRaw(src, rawDir, profileName string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read source file: %w", err)
	}

	sum := sha256.Sum256(data)
	name := "sha256_" + hex.EncodeToString(sum[:8]) + filepath.Ext(src)
	dir := filepath.Join(rawDir, profileName, time.Now().UTC().Format("2006-01"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create raw archive dir: %w", err)
	}

	dest := filepath.Join(dir, name)
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return "", fmt.Errorf("write raw archive: %w", err)
	}
	return dest, nil
}

// archiveCanonical appends the batch to per-month, per-institution
// canonical JSONL files.
func archiveCanonical(canonicalDir string, txns []canon.Transaction) error {
	byFile := make(map[string][]canon.Transaction)
	for _, txn := range txns {
		month := "unknown"
		if t, err := time.Parse("2006-01-02", txn.Date); err == nil {
			month = t.Format("2006-01")
		}
		path := filepath.Join(canonicalDir, month, txn.Institution+".jsonl")
		byFile[path] = append(byFile[path], txn)
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if err := canon.AppendJSONL(path, byFile[path]); err != nil {
			return err
		}
	}
	return nil
}

package promote

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	febEntry = "2026-02-15 Trader Joe's  ; fingerprint:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n" +
		"    Expenses:Groceries    $42.50\n" +
		"    Liabilities:CreditCard:Chase\n\n"
	marEntry = "2026-03-01 Amazon  ; fingerprint:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb\n" +
		"    Expenses:Shopping    $29.99\n" +
		"    Liabilities:CreditCard:Chase\n\n"
)

// newEngine lays out a ledger tree in a temp dir and returns the
// engine plus its root.
func newEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	root := t.TempDir()
	e := &Engine{
		StagingDir:  filepath.Join(root, "journal", "staging"),
		PostingsDir: filepath.Join(root, "journal", "postings"),
		MainJournal: filepath.Join(root, "journal", "main.journal"),
	}
	require.NoError(t, os.MkdirAll(e.StagingDir, 0o755))
	return e, root
}

func stage(t *testing.T, e *Engine, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(e.StagingDir, name), []byte(content), 0o644))
}

func TestRunNoStagedFilesIsNoOp(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.Run(false)
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
	assert.Empty(t, res.ManifestFiles)
}

func TestRunMissingStagingDirIsNoOp(t *testing.T) {
	root := t.TempDir()
	e := &Engine{
		StagingDir:  filepath.Join(root, "journal", "staging"),
		PostingsDir: filepath.Join(root, "journal", "postings"),
		MainJournal: filepath.Join(root, "journal", "main.journal"),
	}

	res, err := e.Run(false)
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
}

func TestRunPromotesAndFinalizes(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)

	res, err := e.Run(false)
	require.NoError(t, err)

	require.Len(t, res.Moves, 1)
	mv := res.Moves[0]
	assert.Equal(t, "chase", mv.Institution)
	assert.Equal(t, "2026-02", mv.Month)

	promoted, err := os.ReadFile(filepath.Join(e.PostingsDir, "2026", "2026-02", "chase.journal"))
	require.NoError(t, err)
	assert.Equal(t, febEntry, string(promoted))

	// Staging is empty afterwards (the lock is gone too).
	entries, err := os.ReadDir(e.StagingDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Equal(t, []string{"postings/2026/2026-02/chase.journal"}, res.ManifestFiles)
}

func TestRunRepartitionsCrossMonthBatch(t *testing.T) {
	e, _ := newEngine(t)
	// Staged under the February bucket but carrying a March entry too.
	stage(t, e, "chase_2026-02.journal", febEntry+marEntry)

	res, err := e.Run(false)
	require.NoError(t, err)

	months := make([]string, 0, len(res.Moves))
	for _, mv := range res.Moves {
		months = append(months, mv.Month)
	}
	assert.Equal(t, []string{"2026-02", "2026-03"}, months)

	for _, sub := range []string{
		filepath.Join("2026", "2026-02", "chase.journal"),
		filepath.Join("2026", "2026-03", "chase.journal"),
	} {
		_, err := os.Stat(filepath.Join(e.PostingsDir, sub))
		assert.NoError(t, err, sub)
	}
}

func TestRunAppendsToExistingPostings(t *testing.T) {
	e, _ := newEngine(t)

	stage(t, e, "chase_2026-02.journal", febEntry)
	_, err := e.Run(false)
	require.NoError(t, err)

	// A second batch for the same month accumulates, never overwrites.
	second := strings.Replace(febEntry, "Trader Joe's", "Costco", 1)
	stage(t, e, "chase_2026-02.journal", second)
	_, err = e.Run(false)
	require.NoError(t, err)

	promoted, err := os.ReadFile(filepath.Join(e.PostingsDir, "2026", "2026-02", "chase.journal"))
	require.NoError(t, err)
	assert.Equal(t, febEntry+second, string(promoted))
}

func TestRunDryRunMutatesNothing(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)

	res, err := e.Run(true)
	require.NoError(t, err)
	assert.True(t, res.DryRun)
	require.Len(t, res.Moves, 1)
	assert.Equal(t, "2026-02", res.Moves[0].Month)

	// Staged file still there, no postings, no manifest.
	_, err = os.Stat(filepath.Join(e.StagingDir, "chase_2026-02.journal"))
	assert.NoError(t, err)
	_, err = os.Stat(e.PostingsDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(e.MainJournal)
	assert.True(t, os.IsNotExist(err))
}

func TestRunUnderscoredInstitution(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "capital_one_2026-02.journal", febEntry)

	res, err := e.Run(false)
	require.NoError(t, err)
	require.Len(t, res.Moves, 1)
	assert.Equal(t, "capital_one", res.Moves[0].Institution)

	_, err = os.Stat(filepath.Join(e.PostingsDir, "2026", "2026-02", "capital_one.journal"))
	assert.NoError(t, err)
}

func TestRunHeaderlessFileUsesNameBucket(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_unknown.journal", "; a comment, no entry headers\n")

	res, err := e.Run(false)
	require.NoError(t, err)
	require.Len(t, res.Moves, 1)
	assert.Equal(t, "unknown", res.Moves[0].Month)

	_, err = os.Stat(filepath.Join(e.PostingsDir, "unknown", "chase.journal"))
	assert.NoError(t, err)
}

func TestRunLockContention(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)

	held, err := acquireLock(e.StagingDir)
	require.NoError(t, err)
	defer held.release()

	_, err = e.Run(false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "promotion is in progress")
}

func TestRunReleasesLockOnSuccess(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)

	_, err := e.Run(false)
	require.NoError(t, err)

	// A second run can take the lock again.
	lk, err := acquireLock(e.StagingDir)
	require.NoError(t, err)
	require.NoError(t, lk.release())
}

func TestRebuildManifestIdempotent(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)
	stage(t, e, "amex_2026-03.journal", marEntry)

	_, err := e.Run(false)
	require.NoError(t, err)

	first, err := os.ReadFile(e.MainJournal)
	require.NoError(t, err)

	// Re-running finalization converges to the same manifest. This is
	// the recovery path for a crash between Promoting and Finalizing.
	_, err = e.RebuildManifest()
	require.NoError(t, err)

	second, err := os.ReadFile(e.MainJournal)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestManifestGolden(t *testing.T) {
	e, _ := newEngine(t)
	stage(t, e, "chase_2026-02.journal", febEntry)
	stage(t, e, "amex_2026-03.journal", marEntry)
	stage(t, e, "wells_2026-02.journal", febEntry)

	res, err := e.Run(false)
	require.NoError(t, err)
	assert.Len(t, res.ManifestFiles, 3)

	data, err := os.ReadFile(e.MainJournal)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "manifest", data)
}

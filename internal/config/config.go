// Package config resolves the project root and the directory layout
// every command works against.
//
// The root is the directory holding the ledger tree (journal/,
// import/, profiles/, rules/). Resolution order: an explicit --root
// flag, the FINFEED_ROOT environment variable, an upward search from
// the working directory for journal/main.journal, and finally the
// working directory itself. A .env file at the root is loaded into the
// environment without overriding variables already set.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvRoot names the environment variable that pins the project root.
const EnvRoot = "FINFEED_ROOT"

// Layout holds every path the pipeline reads or writes, derived from
// one root. All fields are absolute.
type Layout struct {
	// Root is the resolved project root.
	Root string

	// ProfilesDir holds <profile>.yaml CSV import profiles.
	ProfilesDir string

	// RulesDir holds payees.yaml and accounts.yaml.
	RulesDir string

	// StateDir holds the dedup database and API credentials.
	StateDir string

	// RawDir archives ingested CSV files by content hash.
	RawDir string

	// CanonicalDir holds the canonical JSONL interchange files.
	CanonicalDir string

	// StagingDir holds not-yet-promoted journal entries.
	StagingDir string

	// PostingsDir holds promoted entries, partitioned year/month/source.
	PostingsDir string

	// MainJournal is the top-level ledger file with the include manifest.
	MainJournal string

	// SeenDB is the SQLite dedup store path.
	SeenDB string
}

// NewLayout derives the full directory layout from a root.
func NewLayout(root string) Layout {
	importDir := filepath.Join(root, "import")
	journalDir := filepath.Join(root, "journal")
	return Layout{
		Root:         root,
		ProfilesDir:  filepath.Join(root, "profiles"),
		RulesDir:     filepath.Join(root, "rules"),
		StateDir:     filepath.Join(importDir, "state"),
		RawDir:       filepath.Join(importDir, "raw"),
		CanonicalDir: filepath.Join(importDir, "canonical"),
		StagingDir:   filepath.Join(journalDir, "staging"),
		PostingsDir:  filepath.Join(journalDir, "postings"),
		MainJournal:  filepath.Join(journalDir, "main.journal"),
		SeenDB:       filepath.Join(importDir, "state", "seen.db"),
	}
}

// Resolve determines the project root and returns its layout.
//
// flagRoot, when non-empty, wins outright. Resolution never fails for
// a missing tree: a fresh root is legal, directories are created
// lazily by the commands that need them. Only an unusable flagRoot or
// an unreadable working directory is an error.
func Resolve(flagRoot string) (Layout, error) {
	root, err := resolveRoot(flagRoot)
	if err != nil {
		return Layout{}, err
	}

	// Best effort; a root without .env is the common case.
	_ = godotenv.Load(filepath.Join(root, ".env"))

	return NewLayout(root), nil
}

func resolveRoot(flagRoot string) (string, error) {
	if flagRoot != "" {
		abs, err := filepath.Abs(flagRoot)
		if err != nil {
			return "", fmt.Errorf("resolve root %q: %w", flagRoot, err)
		}
		return abs, nil
	}

	if env := os.Getenv(EnvRoot); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", fmt.Errorf("resolve %s %q: %w", EnvRoot, env, err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}

	if found, ok := searchUp(cwd); ok {
		return found, nil
	}
	return cwd, nil
}

// searchUp walks from dir toward the filesystem root looking for a
// directory containing journal/main.journal.
func searchUp(dir string) (string, bool) {
	for {
		marker := filepath.Join(dir, "journal", "main.journal")
		if _, err := os.Stat(marker); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

package promote

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RebuildManifest regenerates the top-level journal wholesale: a
// generated header comment plus one include line per promoted journal
// file, sorted by path. Include paths are relative to the main
// journal's directory. Safe to re-run at any time; it converges on the
// current postings tree regardless of how a previous run ended.
func (e *Engine) RebuildManifest() ([]string, error) {
	files, err := e.promotedFiles()
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("; main.journal — generated by finfeed, do not edit.\n")
	b.WriteString("; Run `finfeed post` to regenerate after promoting staged entries.\n\n")
	for _, rel := range files {
		fmt.Fprintf(&b, "include %s\n", rel)
	}

	if err := os.MkdirAll(filepath.Dir(e.MainJournal), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	if err := os.WriteFile(e.MainJournal, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return files, nil
}

// promotedFiles walks the postings tree and returns every journal
// file's path relative to the main journal's directory, sorted.
func (e *Engine) promotedFiles() ([]string, error) {
	baseDir := filepath.Dir(e.MainJournal)

	var files []string
	err := filepath.WalkDir(e.PostingsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".journal") {
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("walk postings dir: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

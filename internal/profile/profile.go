// Package profile loads per-institution CSV import profiles.
//
// A profile tells the normalizer how one institution's export is shaped:
// character encoding, delimiter, header handling, which columns carry
// which logical fields, the date layout, and the ledger account the
// file's transactions belong to. Profiles live as YAML files named
// <profile>.yaml; the file basename is the profile name used on the
// command line.
package profile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Logical column names a profile may map. Date and Amount are required,
// Description is required (it becomes the payee), Memo and SourceID are
// optional.
const (
	ColDate        = "date"
	ColAmount      = "amount"
	ColDescription = "description"
	ColMemo        = "memo"
	ColSourceID    = "source_id"
)

// Profile describes how to read one institution's CSV export.
type Profile struct {
	// Institution is the short source tag, e.g. "chase". It names the
	// staging files and the canonical archive for this profile.
	Institution string `yaml:"institution"`

	// Name is a human-readable label, e.g. "Chase Checking".
	Name string `yaml:"name"`

	// CSV holds file-shape options. All have defaults; see CSVOptions.
	CSV CSVOptions `yaml:"csv"`

	// Columns maps logical fields to CSV columns. With a header row the
	// values are header names; without one they are 0-based column
	// indexes written as strings ("0", "1", ...).
	Columns map[string]string `yaml:"columns"`

	// DateFormat is the Go reference-time layout of the date column,
	// e.g. "01/02/2006" for US-style exports.
	DateFormat string `yaml:"date_format"`

	// AmountInvert flips the sign of every amount. Set it for
	// institutions that export charges as positive numbers.
	AmountInvert bool `yaml:"amount_invert"`

	// DefaultAccount is the ledger account the imported file belongs
	// to, e.g. "Assets:Chase:Checking".
	DefaultAccount string `yaml:"default_account"`
}

// CSVOptions are the file-shape knobs of a profile.
type CSVOptions struct {
	// Encoding of the file. Defaults to "utf-8"; "latin1",
	// "iso-8859-1" and "windows-1252" are also accepted.
	Encoding string `yaml:"encoding"`

	// Delimiter is the field separator, a single character.
	// Defaults to ",".
	Delimiter string `yaml:"delimiter"`

	// SkipRows is the number of leading junk rows before the header
	// (or before data when has_header is false). Defaults to 0.
	SkipRows int `yaml:"skip_rows"`

	// HasHeader reports whether a header row follows the skipped rows.
	// Defaults to true.
	HasHeader bool `yaml:"has_header"`
}

// Load reads and parses a profile YAML file. Unknown fields are
// rejected so typos surface at load time rather than as silently
// ignored options.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}

	// Defaults are set before decoding; absent keys keep them.
	p := Profile{
		CSV: CSVOptions{
			Encoding:  "utf-8",
			Delimiter: ",",
			HasHeader: true,
		},
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	if err := validate(&p); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", filepath.Base(path), err)
	}

	return &p, nil
}

// LoadByName loads <name>.yaml from the profiles directory.
func LoadByName(dir, name string) (*Profile, error) {
	path := filepath.Join(dir, name+".yaml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("no profile named %q (expected %s)", name, path)
	}
	return Load(path)
}

// List returns the profile names available in dir, sorted by the
// directory order of os.ReadDir. A missing directory yields an empty
// list, not an error.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	return names, nil
}

func validate(p *Profile) error {
	if p.Institution == "" {
		return fmt.Errorf("institution is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.DateFormat == "" {
		return fmt.Errorf("date_format is required")
	}
	if p.DefaultAccount == "" {
		return fmt.Errorf("default_account is required")
	}

	if len(p.Columns) == 0 {
		return fmt.Errorf("columns mapping is required")
	}
	for _, col := range []string{ColDate, ColAmount, ColDescription} {
		if _, ok := p.Columns[col]; !ok {
			return fmt.Errorf("columns.%s is required", col)
		}
	}
	for col := range p.Columns {
		switch col {
		case ColDate, ColAmount, ColDescription, ColMemo, ColSourceID:
		default:
			return fmt.Errorf("unknown column mapping %q", col)
		}
	}

	if len([]rune(p.CSV.Delimiter)) != 1 {
		return fmt.Errorf("csv.delimiter must be a single character, got %q", p.CSV.Delimiter)
	}
	if p.CSV.SkipRows < 0 {
		return fmt.Errorf("csv.skip_rows must not be negative")
	}

	return nil
}

package simplefin

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvAccessURL overrides the stored access URL when set.
const EnvAccessURL = "SIMPLEFIN_ACCESS_URL"

// accessFileName is the credentials file inside the state directory.
const accessFileName = "simplefin_access.json"

type accessFile struct {
	AccessURL string `json:"access_url"`
}

// SaveAccessURL validates and stores an access URL in the state
// directory. The file is written 0600; it embeds credentials.
func SaveAccessURL(stateDir, accessURL string) error {
	if _, err := NewClient(accessURL); err != nil {
		return err
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(accessFile{AccessURL: strings.TrimSpace(accessURL)}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode access file: %w", err)
	}
	path := filepath.Join(stateDir, accessFileName)
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write access file: %w", err)
	}
	return nil
}

// LoadAccessURL returns the access URL to use: the SIMPLEFIN_ACCESS_URL
// environment variable when set, otherwise the stored credentials file.
// Neither being present is a configuration error telling the user to
// connect first.
func LoadAccessURL(stateDir string) (string, error) {
	if env := strings.TrimSpace(os.Getenv(EnvAccessURL)); env != "" {
		return env, nil
	}

	path := filepath.Join(stateDir, accessFileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("no simplefin credentials: set %s or run `finfeed connect`", EnvAccessURL)
	}
	if err != nil {
		return "", fmt.Errorf("read access file: %w", err)
	}

	var f accessFile
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("parse access file %s: %w", path, err)
	}
	if f.AccessURL == "" {
		return "", fmt.Errorf("access file %s has no access_url", path)
	}
	return f.AccessURL, nil
}

package promote

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LockFileName is the exclusive lock inside the staging directory.
const LockFileName = ".promote.lock"

// lock is the staging-directory lock held across a promotion run.
// O_EXCL creation makes acquisition atomic; the owner token is written
// into the file so a stale lock can be identified by hand.
type lock struct {
	path  string
	owner string
}

func acquireLock(stagingDir string) (*lock, error) {
	l := &lock{
		path:  filepath.Join(stagingDir, LockFileName),
		owner: uuid.Must(uuid.NewV7()).String(),
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if os.IsExist(err) {
		return nil, fmt.Errorf("another promotion is in progress (lock %s held); remove the file if its process is dead", l.path)
	}
	if err != nil {
		return nil, fmt.Errorf("acquire promote lock: %w", err)
	}
	if _, err := f.WriteString(l.owner + "\n"); err != nil {
		f.Close()
		os.Remove(l.path)
		return nil, fmt.Errorf("write promote lock: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(l.path)
		return nil, fmt.Errorf("close promote lock: %w", err)
	}
	return l, nil
}

func (l *lock) release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("release promote lock: %w", err)
	}
	return nil
}

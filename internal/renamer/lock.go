package renamer

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/zsafwan/ocr-rename/internal/services"
)

// ErrLocked is returned when another run holds the directory lock.
var ErrLocked = errors.New("another rename or undo is running against this directory")

// DirLock is an advisory lock on one directory, held in the OS temp dir so
// the target directory itself is never written to.
type DirLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for dir.
func LockPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(filepath.Clean(abs)))
	return filepath.Join(os.TempDir(), "ocr-rename-"+hex.EncodeToString(sum[:8])+".lock"), nil
}

// LockDir acquires the lock for dir without waiting.
func LockDir(dir string) (*DirLock, error) {
	path, err := LockPath(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "renamer", "lock", "resolve "+dir, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "renamer", "lock", path, err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrValidation, "renamer", "lock", dir, ErrLocked)
	}
	return &DirLock{path: path, lock: lock}, nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string {
	return l.path
}

// Unlock releases the lock.
func (l *DirLock) Unlock() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}

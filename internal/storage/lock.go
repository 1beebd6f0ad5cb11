package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// LockFile is the name of the file that marks a populate run in progress
const LockFile = "db_lock_file"

// ErrLocked is returned when another run holds the lock
var ErrLocked = errors.New("the database is being populated")

// Lock guards the database against concurrent populate runs
type Lock struct {
	path string
}

// NewLock returns the lock of the database in dataDir
func NewLock(dataDir string) *Lock {
	return &Lock{path: filepath.Join(dataDir, LockFile)}
}

// Path returns the lock file location
func (l *Lock) Path() string {
	return l.path
}

// Held reports whether the lock file exists
func (l *Lock) Held() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Acquire creates the lock file, failing with ErrLocked if it already exists
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return ErrLocked
		}
		return fmt.Errorf("creating lock file: %w", err)
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("writing lock file: %w", werr)
	}
	return nil
}

// Release removes the lock file. Releasing a free lock is not an error.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing lock file: %w", err)
	}
	return nil
}

// Clean removes the database and its lock from dataDir.
// Without force it refuses with ErrLocked while a populate run holds the lock.
func Clean(dataDir string, force bool) error {
	dataDir, err := ExpandDir(dataDir)
	if err != nil {
		return err
	}

	lock := NewLock(dataDir)
	if lock.Held() && !force {
		return ErrLocked
	}
	if err := lock.Release(); err != nil {
		return err
	}
	if err := os.Remove(DatabasePath(dataDir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing database: %w", err)
	}
	return nil
}

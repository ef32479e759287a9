package store

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrLocked reports that another process holds the registry lock.
var ErrLocked = errors.New("registry file is locked by another process")

// FileLock is an exclusive advisory lock on <registry>.lock. It only keeps
// out other pacservice processes; nothing stops a plain editor from writing
// the registry file.
type FileLock struct {
	path string
	f    *os.File
}

// LockFile takes the lock for the registry file at path without waiting. It
// returns ErrLocked when another process already holds it.
func LockFile(path string) (*FileLock, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(lockPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := lockExclusive(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FileLock{path: lockPath, f: f}, nil
}

// Path is the lock file's location.
func (l *FileLock) Path() string { return l.path }

// Release drops the lock. The lock file itself stays in place; removing it
// would let two processes lock different inodes under the same name.
func (l *FileLock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unlock(l.f)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}

//go:build windows

package storage

import (
	"fmt"
	"os"
	"strconv"
)

// LockSuffix is appended to a database path to name its writer lock.
const LockSuffix = ".lock"

// Lock is an exclusive writer lock on one snapshot database.
// On Windows the lock is the existence of the lock file.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the writer lock for the database at dbPath without
// blocking. A lock file left behind by a crashed writer must be removed by
// hand.
func AcquireLock(dbPath string) (*Lock, error) {
	path := dbPath + LockSuffix

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("snapshot %s is being written by another process (remove %s if it is stale)", dbPath, path)
		}
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}
	return &Lock{path: path, file: file}, nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}

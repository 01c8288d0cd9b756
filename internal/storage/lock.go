//go:build !windows

package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// LockSuffix is appended to a database path to name its writer lock.
const LockSuffix = ".lock"

// Lock is an exclusive writer lock on one snapshot database.
type Lock struct {
	path string
	file *os.File
}

// AcquireLock takes the writer lock for the database at dbPath without
// blocking. It fails when another process is writing the same snapshot.
func AcquireLock(dbPath string) (*Lock, error) {
	path := dbPath + LockSuffix

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			return nil, fmt.Errorf("snapshot %s is being written by another process (PID %s)",
				dbPath, strings.TrimSpace(string(content)))
		}
		return nil, fmt.Errorf("snapshot %s is being written by another process", dbPath)
	}

	if err := writePID(file); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, err
	}
	return &Lock{path: path, file: file}, nil
}

func writePID(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("truncating lock file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("seeking lock file: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return fmt.Errorf("writing PID to lock file: %w", err)
	}
	return nil
}

// Release drops the lock and removes the lock file.
func (l *Lock) Release() {
	if l == nil || l.file == nil {
		return
	}
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}

package pass

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

const (
	// LockFile is the marker that holds the allocation lock inside a work
	// directory.
	LockFile = ".passlaunch.lock"
	// FlockFile carries the advisory lock. It is kept apart from LockFile
	// because it outlives the lock.
	FlockFile = ".passlaunch.flock"
)

// Lock is a held allocation lock.
type Lock interface {
	Release() error
}

// Locker takes the allocation lock for a work directory without waiting.
// When the lock is already held it returns ErrAllocationConflict.
type Locker interface {
	TryLock(workDir string) (Lock, error)
}

// NewLocker returns the Locker for a configured strategy: "flock" selects an
// advisory lock, anything else the exclusive-create marker.
func NewLocker(strategy string) Locker {
	if strings.EqualFold(strings.TrimSpace(strategy), "flock") {
		return FlockLocker{}
	}
	return MarkerLocker{}
}

// MarkerLocker holds the lock by creating an empty marker file with
// O_CREATE|O_EXCL. The marker's existence is the lock; Release removes it.
// A marker left behind by a crashed run must be removed by hand.
type MarkerLocker struct{}

func (MarkerLocker) TryLock(workDir string) (Lock, error) {
	path := filepath.Join(workDir, LockFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s exists", ErrAllocationConflict, path)
		}
		return nil, fmt.Errorf("create lock marker: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("close lock marker: %w", err)
	}
	return markerLock{path: path}, nil
}

type markerLock struct {
	path string
}

func (l markerLock) Release() error {
	if err := os.Remove(l.path); err != nil {
		return fmt.Errorf("remove lock marker: %w", err)
	}
	return nil
}

// FlockLocker holds a non-blocking flock(2) on the lock file. The file
// itself persists between runs; only the advisory lock is significant, so
// the kernel drops it if the process dies.
type FlockLocker struct{}

func (FlockLocker) TryLock(workDir string) (Lock, error) {
	path := filepath.Join(workDir, FlockFile)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked", ErrAllocationConflict, path)
	}
	return flockLock{fl: fl}, nil
}

type flockLock struct {
	fl *flock.Flock
}

func (l flockLock) Release() error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

package missinglog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock takes an exclusive, non-blocking lock next to the log file so only one
// supervisor drives a given log. The caller must Unlock the returned lock.
func Lock(logPath string) (*flock.Flock, error) {
	lockPath := logPath + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}

	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("another supervisor holds %s", lockPath)
	}
	return lock, nil
}

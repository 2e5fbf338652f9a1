package sync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// LockFile is the advisory lock under the hub root held around any
// hub-mutating batch, so two concurrent operators cannot interleave
// partial writes into the canonical copies.
const LockFile = ".stencil.lock"

// staleLockAge is how old a lock may be before it is considered
// abandoned and broken.
const staleLockAge = 10 * time.Minute

// ErrHubLocked indicates another sync currently holds the hub lock.
var ErrHubLocked = errors.New("sync: hub is locked by another sync operation")

// hubLock is a held advisory lock.
type hubLock struct {
	path string
}

// acquireHubLock takes the advisory lock under hubRoot. A lock older
// than staleLockAge is broken with a warning line on w.
func acquireHubLock(hubRoot string, warn func(format string, args ...any)) (*hubLock, error) {
	path := filepath.Join(hubRoot, LockFile)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			_ = f.Close()
			return &hubLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock %s: %w", path, err)
		}

		info, statErr := os.Stat(path)
		if statErr != nil {
			// Holder released between our attempts; retry.
			continue
		}
		if time.Since(info.ModTime()) < staleLockAge {
			if pid := holderPid(path); pid > 0 {
				return nil, fmt.Errorf("%w: %s (pid %d, held since %s)", ErrHubLocked, path, pid, info.ModTime().Format(time.RFC3339))
			}
			return nil, fmt.Errorf("%w: %s (held since %s)", ErrHubLocked, path, info.ModTime().Format(time.RFC3339))
		}

		warn("breaking stale hub lock %s (age %s)", path, time.Since(info.ModTime()).Round(time.Second))
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, fmt.Errorf("break stale lock %s: %w", path, rmErr)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrHubLocked, path)
}

// release drops the lock.
func (l *hubLock) release() {
	_ = os.Remove(l.path)
}

// holderPid parses the pid recorded in a lock file, for diagnostics.
func holderPid(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	fields := []byte(nil)
	for _, b := range data {
		if b == ' ' || b == '\n' {
			break
		}
		fields = append(fields, b)
	}
	pid, _ := strconv.Atoi(string(fields))
	return pid
}

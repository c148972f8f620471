package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/memovlab/memov/pkg/ignore"
)

const (
	lockFileName   = "mem.lock"
	lockRetryDelay = 10 * time.Millisecond
	lockWaitLimit  = 500 * time.Millisecond
)

// lock is the advisory single-writer workspace lock. The file exists only
// while a mutating operation runs.
type lock struct {
	path string
}

// acquireLock takes the workspace lock, retrying briefly before giving up
// so a stuck holder surfaces quickly.
func (w *Workspace) acquireLock() (*lock, error) {
	path := filepath.Join(w.Root, ignore.MetaDir, lockFileName)
	deadline := time.Now().Add(lockWaitLimit)
	for {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("lock workspace: %w", err)
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("lock workspace: %s is held by another mem process", path)
		}
		time.Sleep(lockRetryDelay)
	}
}

func (l *lock) release() {
	if l == nil {
		return
	}
	os.Remove(l.path)
}

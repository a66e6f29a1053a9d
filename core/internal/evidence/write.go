package evidence

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nightlyone/lockfile"
)

func EnsureParent(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

// WriteFileAtomic writes through a temp file and renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := EnsureParent(path); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

const lockRetry = 50 * time.Millisecond

// lockfile treats a lock held by our own pid as stale, so goroutines of
// this process also need a mutex per path.
var pathLocks sync.Map

// WithLock runs fn while holding a lockfile next to path. Concurrent writers
// of the same name take turns; the last one wins.
func WithLock(ctx context.Context, path string, fn func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := EnsureParent(abs); err != nil {
		return err
	}

	mu, _ := pathLocks.LoadOrStore(abs, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	defer mu.(*sync.Mutex).Unlock()

	lock, err := lockfile.New(filepath.Join(filepath.Dir(abs), "."+filepath.Base(abs)+".lock"))
	if err != nil {
		return err
	}
	for {
		err := lock.TryLock()
		if err == nil {
			break
		}
		if t, ok := err.(interface{ Temporary() bool }); !ok || !t.Temporary() {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetry):
		}
	}
	defer lock.Unlock()
	return fn()
}

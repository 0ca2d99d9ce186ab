package pipeline

import (
	"fmt"

	"github.com/gofrs/flock"
)

// WithLock serializes sync passes across processes via a lock file. A held
// lock fails fast instead of queueing behind another run.
func WithLock(lockPath string, fn func() error) error {
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	if !locked {
		return fmt.Errorf("another sync holds %s", lockPath)
	}
	defer fl.Unlock()
	return fn()
}

package runtime

import (
	"fmt"
	"os"
	"sync"
)

// cwdMu serializes changes to the process working directory.
var cwdMu sync.Mutex

// WithWorkingDir runs fn with the process working directory set to dir and
// restores the previous directory on every exit path, including panics.
func WithWorkingDir(dir string, fn func() error) (err error) {
	cwdMu.Lock()
	defer cwdMu.Unlock()

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to read working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("failed to enter %s: %w", dir, err)
	}
	defer func() {
		if cerr := os.Chdir(prev); cerr != nil && err == nil {
			err = fmt.Errorf("failed to restore working directory %s: %w", prev, cerr)
		}
	}()
	return fn()
}

// Getwd reads the process working directory without racing a concurrent
// WithWorkingDir.
func Getwd() (string, error) {
	cwdMu.Lock()
	defer cwdMu.Unlock()
	return os.Getwd()
}

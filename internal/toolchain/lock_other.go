//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package toolchain

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// staleLockAge is how old a leftover lock file must be before an install
// takes it over.
const staleLockAge = time.Hour

// lockFile creates path exclusively. A lock file older than staleLockAge is
// assumed to belong to an install that was killed and is replaced.
func lockFile(path string) (func(), error) {
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			_ = f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("acquire install lock: %w", err)
		}
		info, statErr := os.Stat(path)
		if statErr != nil || time.Since(info.ModTime()) < staleLockAge {
			return nil, ErrInstallInProgress
		}
		_ = os.Remove(path)
	}
	return nil, ErrInstallInProgress
}

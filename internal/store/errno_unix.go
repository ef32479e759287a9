//go:build unix

package store

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}

// isRetryable reports errors a concurrent reader or scanner can cause and
// that tend to clear on their own.
func isRetryable(err error) bool {
	return errors.Is(err, unix.EBUSY) || errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES)
}

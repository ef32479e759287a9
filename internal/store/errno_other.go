//go:build !unix && !windows

package store

import (
	"errors"
	"io/fs"
)

func isCrossDevice(err error) bool { return false }

func isRetryable(err error) bool { return errors.Is(err, fs.ErrPermission) }

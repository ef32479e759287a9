//go:build !unix && !windows

package store

import "os"

// No advisory locking here; concurrent processes are not detected.
func lockExclusive(*os.File) error { return nil }

func unlock(*os.File) error { return nil }

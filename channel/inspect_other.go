//go:build !unix

package channel

import (
	"fmt"
	"io/fs"
	"os"
)

// inspect checks path without following symlinks. Ownership is not checked:
// platforms without unix build tags report no meaningful uid.
func inspect(path string, _ int) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Errorf("inspect communication directory: %w", err)
	}

	reason := ""
	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		reason = "is a symbolic link"
	case !info.IsDir():
		reason = "not a directory"
	case info.Mode().Perm()&0o002 != 0:
		reason = "writable by other users"
	}
	if reason != "" {
		return &InsecureDirError{Path: path, Reason: reason}
	}
	return nil
}

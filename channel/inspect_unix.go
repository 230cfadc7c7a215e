//go:build unix

package channel

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// inspect checks path without following symlinks. uid < 0 skips the owner check.
func inspect(path string, uid int) error {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return fmt.Errorf("inspect communication directory: %w", err)
	}

	reason := ""
	switch {
	case st.Mode&unix.S_IFMT == unix.S_IFLNK:
		reason = "is a symbolic link"
	case st.Mode&unix.S_IFMT != unix.S_IFDIR:
		reason = "not a directory"
	case st.Mode&unix.S_IWOTH != 0:
		reason = "writable by other users"
	case uid >= 0 && int(st.Uid) != uid:
		reason = fmt.Sprintf("owned by uid %d, expected %d", st.Uid, uid)
	}
	if reason != "" {
		return &InsecureDirError{Path: path, Reason: reason}
	}
	return nil
}

//go:build linux

package organizer

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// renameNoReplace uses renameat2(RENAME_NOREPLACE). Filesystems that reject
// the flag fall back to link + unlink, and those without hard links to a
// checked rename.
func renameNoReplace(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.ENOSYS) && !errors.Is(err, unix.EINVAL) {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: err}
	}

	err = linkRename(src, dst)
	if err == nil || IsExist(err) || errors.Is(err, os.ErrNotExist) {
		return err
	}
	return checkedRename(src, dst)
}

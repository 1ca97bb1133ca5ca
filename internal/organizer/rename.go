package organizer

import (
	"errors"
	"io/fs"
	"os"
)

// renameFunc is swapped in tests to simulate rename failures.
var renameFunc = renameNoReplace

// RenameNoReplace renames src to dst without ever replacing an existing dst.
// When dst exists the returned error satisfies errors.Is(err, fs.ErrExist).
func RenameNoReplace(src, dst string) error {
	return renameFunc(src, dst)
}

// IsExist reports whether err means the rename target is taken.
func IsExist(err error) bool {
	return errors.Is(err, fs.ErrExist)
}

// linkRename emulates a no-replace rename with link(2) + unlink(2). link
// refuses an existing target atomically.
func linkRename(src, dst string) error {
	if err := os.Link(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// checkedRename checks for dst and then renames. The check and the rename
// are not atomic. A dst that is src itself (a case-only rename on a
// case-insensitive filesystem) is allowed.
func checkedRename(src, dst string) error {
	if dstInfo, err := os.Lstat(dst); err == nil {
		srcInfo, serr := os.Lstat(src)
		if serr != nil || !os.SameFile(srcInfo, dstInfo) {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(src, dst)
}

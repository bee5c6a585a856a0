//go:build windows

package ops

import "os"

// openNoFollow has no O_NOFOLLOW on Windows; ValidatePath's Lstat check is
// the only symlink guard there.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, openError(path, flag, err, false)
	}
	return f, nil
}

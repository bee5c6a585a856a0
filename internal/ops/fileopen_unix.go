//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"
)

// openNoFollow opens path with O_NOFOLLOW|O_CLOEXEC. Only the last path
// element is protected; ValidatePath keeps files directly inside an allowed
// directory so parents cannot be swapped for symlinks.
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	if err != nil {
		return nil, openError(path, flag, err, stderrors.Is(err, syscall.ELOOP))
	}
	return os.NewFile(uintptr(fd), path), nil
}

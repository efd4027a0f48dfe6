//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/remind/internal/errors"
)

// openExportTarget creates or truncates the temp file an export is written to.
// The final path component must not be a symlink; directory components are
// checked by ValidatePath.
func openExportTarget(path string) (*os.File, error) {
	return openLeaf(path, syscall.O_CREAT|syscall.O_WRONLY|syscall.O_TRUNC, 0600, "write to")
}

// openImportSource opens an archive for reading under the same symlink rule.
func openImportSource(path string) (*os.File, error) {
	return openLeaf(path, syscall.O_RDONLY, 0, "read from")
}

func openLeaf(path string, flag int, perm uint32, verb string) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, perm)
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("cannot " + verb + " symlink")
	case stderrors.Is(err, syscall.ENOENT) && flag&syscall.O_CREAT == 0:
		return nil, errors.NewFileNotFound(path)
	default:
		return nil, &os.PathError{Op: "open", Path: path, Err: err}
	}
}

//go:build windows

package ops

import (
	stderrors "errors"
	"io/fs"
	"os"

	"github.com/hpungsan/remind/internal/errors"
)

// No O_NOFOLLOW here. ValidatePath has already rejected symlinked targets.

func openExportTarget(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
}

func openImportSource(path string) (*os.File, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.NewFileNotFound(path)
	}
	return f, err
}

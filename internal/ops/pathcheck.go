package ops

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/errors"
)

// Access says what an archive path is going to be opened for.
type Access int

const (
	ForImport Access = iota
	ForExport
)

var extensions = map[Access][]string{
	ForImport: {".jsonl"},
	ForExport: {".jsonl", ".html"},
}

// ValidatePath checks an import or export path before it is opened.
//
// The path must not contain "..", must carry an extension accepted for the
// access mode, and must name a file sitting directly inside ~/.remind/exports
// or one of allowed_paths. Nested directories are refused so that no
// intermediate component can be swapped for a symlink between this check and
// the O_NOFOLLOW open. Neither the file nor its directory may be a symlink.
// allow_unsafe_paths lifts the directory rule only.
func ValidatePath(path string, access Access, cfg *config.Config) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}
	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}
	if err := checkExtension(abs, access); err != nil {
		return err
	}

	if cfg == nil || !cfg.AllowUnsafePaths {
		if err := checkDirectory(filepath.Dir(abs), cfg); err != nil {
			return err
		}
	}

	if access == ForImport {
		if _, err := os.Stat(abs); stderrors.Is(err, fs.ErrNotExist) {
			return errors.NewFileNotFound(path)
		}
	}
	if isSymlink(abs) {
		return errors.NewInvalidRequest("path must not be a symlink")
	}
	return nil
}

func checkExtension(path string, access Access) error {
	allowed := extensions[access]
	if slices.Contains(allowed, filepath.Ext(path)) {
		return nil
	}
	return errors.NewInvalidRequest("path must have " + strings.Join(allowed, " or ") + " extension")
}

func checkDirectory(dir string, cfg *config.Config) error {
	roots, err := exportRoots(cfg)
	if err != nil {
		return err
	}
	if !slices.Contains(roots, filepath.Clean(dir)) {
		return errors.NewInvalidRequest(
			fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v", roots))
	}
	if isSymlink(dir) {
		return errors.NewInvalidRequest("parent directory must not be a symlink")
	}
	return nil
}

// exportRoots lists the directories archives may live in. A root that is
// itself a symlink is replaced by its target.
func exportRoots(cfg *config.Config) ([]string, error) {
	def, err := DefaultExportsDir()
	if err != nil {
		return nil, err
	}
	candidates := []string{def}
	if cfg != nil {
		for _, p := range cfg.AllowedPaths {
			if filepath.IsAbs(p) {
				candidates = append(candidates, p)
			}
		}
	}

	roots := make([]string, 0, len(candidates))
	for _, dir := range candidates {
		dir = filepath.Clean(dir)
		if isSymlink(dir) {
			resolved, err := filepath.EvalSymlinks(dir)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			dir = resolved
		}
		roots = append(roots, dir)
	}
	return roots, nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

// DefaultExportsDir returns ~/.remind/exports.
func DefaultExportsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.NewInternal(fmt.Errorf("failed to get home directory: %w", err))
	}
	return filepath.Join(home, ".remind", "exports"), nil
}

// ValidateAudioName checks that name is a bare file name, so a stored row
// cannot point outside the audio directory.
func ValidateAudioName(name string) error {
	if name == "" {
		return errors.NewInvalidRequest("audio file name is required")
	}
	if containsTraversal(name) || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid audio file name: %q", name))
	}
	return nil
}

// AudioPath joins a validated audio file name onto audioDir.
func AudioPath(audioDir, name string) (string, error) {
	if err := ValidateAudioName(name); err != nil {
		return "", err
	}
	return filepath.Join(audioDir, name), nil
}

// containsTraversal reports whether any component of path is "..".
// Forward slashes count as separators on every platform.
func containsTraversal(path string) bool {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
	return slices.Contains(parts, "..")
}

package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolveTarget resolves a user-provided path (absolute, relative, or
// containing "..") against cwd to a clean absolute path. An empty cwd means
// the process working directory.
func resolveTarget(userPath, cwd string) (string, error) {
	if userPath == "" {
		return "", fmt.Errorf("%w: empty path", ErrValidation)
	}
	if filepath.IsAbs(userPath) {
		return filepath.Clean(userPath), nil
	}
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}
		cwd = wd
	}
	return filepath.Clean(filepath.Join(cwd, userPath)), nil
}

// isWithin reports whether path is root or lies below it.
func isWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// checkOutsideCache rejects targets that would land inside the fetch cache.
func (e *Engine) checkOutsideCache(path string) error {
	if e.paths.Cache != "" && isWithin(e.paths.Cache, path) {
		return fmt.Errorf("%w: %s is inside the fetch cache %s", ErrValidation, path, e.paths.Cache)
	}
	return nil
}

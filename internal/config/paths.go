// Package config resolves the filesystem locations reponimous works in.
//
// The default root is ~/.reponimous/, which holds the fetch cache. Merge roots
// are created under the system temp directory. Both can be moved with
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// EnvRoot overrides the data root.
	EnvRoot = "REPONIMOUS_ROOT"

	// EnvTempDir overrides where merge roots are created.
	EnvTempDir = "REPONIMOUS_TMPDIR"
)

// Paths contains all the filesystem paths used by reponimous.
type Paths struct {
	// Root is the base directory for all reponimous data (default: ~/.reponimous)
	Root string

	// Cache holds one git clone per repository and ref
	Cache string

	// Temp is the parent of ephemeral merge roots
	Temp string
}

// DefaultPaths returns the default paths for reponimous.
// Paths can be overridden with environment variables:
// - REPONIMOUS_ROOT: Override the root directory
// - REPONIMOUS_TMPDIR: Override the merge root parent
func DefaultPaths() (*Paths, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".reponimous")
	}

	temp := os.Getenv(EnvTempDir)
	if temp == "" {
		temp = os.TempDir()
	}

	return &Paths{
		Root:  root,
		Cache: filepath.Join(root, "cache"),
		Temp:  temp,
	}, nil
}

// WithCache returns a copy of p using dir as the fetch cache. An empty dir
// keeps the current cache.
func (p *Paths) WithCache(dir string) *Paths {
	out := *p
	if dir != "" {
		out.Cache = dir
	}
	return &out
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Cache,
		p.Temp,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// Package linker creates the symbolic links that make up a merge root.
//
// Link is the only primitive that mutates entries inside a merge root. It
// replaces whatever already sits at the location, so applying the same
// overlay twice, or a later repository's overlay on top of an earlier one,
// always succeeds and leaves the last link in place.
package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/reponimous/internal/fsops"
)

// LinkError records a filesystem failure while placing a link.
type LinkError struct {
	Op   string
	Path string
	Err  error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Linker places symbolic links.
type Linker struct {
	fs  fsops.FS
	log zerolog.Logger
}

// New creates a Linker.
func New(fs fsops.FS, log zerolog.Logger) *Linker {
	return &Linker{fs: fs, log: log}
}

// Link creates a symbolic link at location pointing to target, replacing any
// file, directory or dangling link already at location.
func (l *Linker) Link(target, location string) error {
	_, err := l.LinkChanged(target, location)
	return err
}

// LinkChanged is Link, reporting whether anything on disk changed. A location
// that already links to target is left alone.
func (l *Linker) LinkChanged(target, location string) (bool, error) {
	info, err := l.fs.Lstat(location)
	switch {
	case err == nil:
		if info.Mode()&os.ModeSymlink != 0 {
			if current, err := l.fs.Readlink(location); err == nil && current == target {
				return false, nil
			}
		}
		if err := l.fs.RemoveAll(location); err != nil {
			return false, &LinkError{Op: "remove", Path: location, Err: err}
		}
		l.log.Debug().Str("location", location).Msg("replacing existing entry")
	case !os.IsNotExist(err):
		return false, &LinkError{Op: "lstat", Path: location, Err: err}
	}

	if err := l.fs.Symlink(target, location); err != nil {
		return false, &LinkError{Op: "symlink", Path: location, Err: err}
	}

	l.log.Debug().Str("target", target).Str("location", location).Msg("linked")
	return true, nil
}

// EnsureDir makes dir, which must lie inside root, a real directory.
//
// Missing components are created. A component that is a link to a directory
// (placed by an earlier overlay) is unfolded: the link is replaced by a real
// directory holding one link per child of the old target, so new entries land
// in the merge root and never inside a fetched source tree. A component that
// is a file or a link to a file is replaced by an empty directory.
func (l *Linker) EnsureDir(root, dir string) error {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return &LinkError{Op: "mkdir", Path: dir, Err: err}
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return &LinkError{Op: "mkdir", Path: dir, Err: fmt.Errorf("outside of %s", root)}
	}
	if rel == "." {
		return nil
	}

	current := root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)

		info, err := l.fs.Lstat(current)
		if os.IsNotExist(err) {
			if err := l.fs.MkdirAll(current, 0755); err != nil {
				return &LinkError{Op: "mkdir", Path: current, Err: err}
			}
			continue
		}
		if err != nil {
			return &LinkError{Op: "lstat", Path: current, Err: err}
		}

		switch {
		case info.IsDir():
			continue
		case info.Mode()&os.ModeSymlink != 0:
			if err := l.unfold(current); err != nil {
				return err
			}
		default:
			if err := l.replaceWithDir(current); err != nil {
				return err
			}
		}
	}

	return nil
}

// unfold replaces the link at path with a directory of links to the children
// of its target.
func (l *Linker) unfold(path string) error {
	target, err := l.fs.Readlink(path)
	if err != nil {
		return &LinkError{Op: "readlink", Path: path, Err: err}
	}

	isDir, err := l.fs.IsDir(path)
	if err != nil {
		return &LinkError{Op: "stat", Path: path, Err: err}
	}
	if !isDir {
		return l.replaceWithDir(path)
	}

	entries, err := l.fs.ReadDir(target)
	if err != nil {
		return &LinkError{Op: "readdir", Path: target, Err: err}
	}

	if err := l.replaceWithDir(path); err != nil {
		return err
	}

	for _, entry := range entries {
		if HasMetadataPrefix(entry.Name()) {
			continue
		}
		if err := l.Link(filepath.Join(target, entry.Name()), filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}

	l.log.Debug().Str("location", path).Str("target", target).Int("entries", len(entries)).Msg("unfolded directory link")
	return nil
}

func (l *Linker) replaceWithDir(path string) error {
	if err := l.fs.RemoveAll(path); err != nil {
		return &LinkError{Op: "remove", Path: path, Err: err}
	}
	if err := l.fs.MkdirAll(path, 0755); err != nil {
		return &LinkError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// MetadataPrefix marks version-control internals that are never linked.
const MetadataPrefix = ".git"

// HasMetadataPrefix reports whether name is a version-control metadata entry.
func HasMetadataPrefix(name string) bool {
	return strings.HasPrefix(name, MetadataPrefix)
}

// Package archive writes a directory tree as a gzip-compressed tarball.
//
// Symbolic links are dereferenced: a merge root made of links into cached
// clones becomes a self-contained archive of real files. Each top-level item
// of the root is stored under its own name, with no leading directory.
package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/gzip"
)

// Extension is appended to archive names that lack it.
const Extension = ".tgz"

// ErrLinkCycle is returned when dereferencing links would recurse forever.
var ErrLinkCycle = errors.New("symbolic link cycle")

// Options tune Tarball.
type Options struct {
	// Level is the gzip compression level; zero means gzip.DefaultCompression
	Level int

	// Skip excludes entries by base name, at every depth
	Skip func(name string) bool
}

// WriteFile creates the archive at path from the contents of root. It fails
// if path already exists and removes the partial file on error.
func WriteFile(ctx context.Context, path, root string, opts Options) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return Tarball(ctx, f, root, opts)
}

// Tarball writes the contents of root to w as a tar.gz stream.
func Tarball(ctx context.Context, w io.Writer, root string, opts Options) error {
	level := opts.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}
	gw, err := gzip.NewWriterLevel(w, level)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gw)

	tb := &tarball{tw: tw, skip: opts.Skip, active: make(map[string]bool)}
	if err := tb.addChildren(ctx, root, ""); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gw.Close()
}

type tarball struct {
	tw   *tar.Writer
	skip func(name string) bool

	// resolved directories on the current descent path
	active map[string]bool
}

// addChildren adds the entries of the directory at path, stored under prefix.
func (t *tarball) addChildren(ctx context.Context, path, prefix string) error {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return err
	}
	if t.active[resolved] {
		return fmt.Errorf("%s: %w", path, ErrLinkCycle)
	}
	t.active[resolved] = true
	defer delete(t.active, resolved)

	entries, err := os.ReadDir(path)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		if t.skip != nil && t.skip(name) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.add(ctx, filepath.Join(path, name), prefix+name); err != nil {
			return err
		}
	}
	return nil
}

func (t *tarball) add(ctx context.Context, path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("archive %s: %w", name, err)
	}
	hdr.Name = filepath.ToSlash(name)
	hdr.Uname, hdr.Gname = "", ""

	if info.IsDir() {
		hdr.Name += "/"
		if err := t.tw.WriteHeader(hdr); err != nil {
			return err
		}
		return t.addChildren(ctx, path, name+"/")
	}

	if err := t.tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(t.tw, f)
	return err
}

// Name returns name with Extension appended when missing.
func Name(name string) string {
	if filepath.Ext(name) == Extension {
		return name
	}
	return name + Extension
}

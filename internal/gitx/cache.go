package gitx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/danieljhkim/reponimous/internal/fsops"
)

// CacheEntry describes one cached clone.
type CacheEntry struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Origin  string    `json:"origin,omitempty"`
	Head    string    `json:"head,omitempty"`
	ModTime time.Time `json:"mod_time"`
}

// Cache inspects and prunes the fetch cache directory.
type Cache struct {
	dir string
	fs  fsops.FS
}

// NewCache creates a Cache over dir.
func NewCache(dir string, fs fsops.FS) *Cache {
	return &Cache{dir: dir, fs: fs}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// List returns every cached clone sorted by name. Origin and Head are filled
// in on a best-effort basis. A missing cache directory is empty.
func (c *Cache) List(ctx context.Context) ([]CacheEntry, error) {
	entries, err := c.fs.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return []CacheEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	result := make([]CacheEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, e.Name())
		entry := CacheEntry{Name: e.Name(), Path: path}
		if info, err := e.Info(); err == nil {
			entry.ModTime = info.ModTime()
		}
		if origin, err := runGit(ctx, path, "config", "--get", "remote.origin.url"); err == nil {
			entry.Origin = origin
		}
		if head, err := runGit(ctx, path, "rev-parse", "--short", "HEAD"); err == nil {
			entry.Head = head
		}
		result = append(result, entry)
	}

	return result, nil
}

// Remove deletes the named cache entry.
func (c *Cache) Remove(name string) error {
	if err := c.fs.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("invalid cache entry name: %w", err)
	}

	path := filepath.Join(c.dir, name)
	exists, err := c.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check cache entry: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	if err := c.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// Clean removes every cache entry and returns how many were removed.
func (c *Cache) Clean() (int, error) {
	entries, err := c.fs.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := c.fs.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("failed to remove cache entry %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/danieljhkim/reponimous/internal/archive"
	"github.com/danieljhkim/reponimous/internal/clock"
	"github.com/danieljhkim/reponimous/internal/linker"
	"github.com/danieljhkim/reponimous/internal/manifest"
	"github.com/danieljhkim/reponimous/internal/planner"
)

// Archive merges req.Repos and writes the merge root as a gzip-compressed
// tarball into req.Dir. Links are dereferenced, so the archive holds real
// file contents.
func (e *Engine) Archive(ctx context.Context, req *ArchiveRequest) (*ArchiveResult, error) {
	dirArg := req.Dir
	if dirArg == "" {
		dirArg = "."
	}
	dir, err := resolveTarget(dirArg, req.CWD)
	if err != nil {
		return nil, err
	}
	if err := e.checkOutsideCache(dir); err != nil {
		return nil, err
	}

	name, err := e.archiveName(req.Name)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(dir, name)
	if err := e.checkFree(path); err != nil {
		return nil, err
	}

	result := &ArchiveResult{Path: path}
	count := func(_ string, _ manifest.RepositoryOverlay, _ string, plans []planner.LinkPlan) {
		result.Links += len(plans)
	}

	err = e.merge(ctx, req.Repos, count, func(mergeRoot string) error {
		if err := e.fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("%w: failed to create archive directory: %w", ErrFilesystem, err)
		}

		opts := archive.Options{Skip: linker.HasMetadataPrefix}
		if err := archive.WriteFile(ctx, path, mergeRoot, opts); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%w: %s", ErrDestinationExists, path)
			}
			return fmt.Errorf("%w: failed to write archive: %w", ErrFilesystem, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	digest, err := e.hasher.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash archive: %w", ErrFilesystem, err)
	}
	result.Digest = digest

	e.log.Info().Str("path", path).Str("digest", digest).Msg("archived")
	return result, nil
}

// archiveName returns the archive file name for name, defaulting to a
// timestamped one and always ending in archive.Extension.
func (e *Engine) archiveName(name string) (string, error) {
	if name == "" {
		name = "reponimous-" + clock.Stamp(e.clock)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: archive name %q must be a plain file name", ErrValidation, name)
	}
	return archive.Name(name), nil
}

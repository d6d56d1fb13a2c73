package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"syscall"

	"github.com/danieljhkim/reponimous/internal/manifest"
	"github.com/danieljhkim/reponimous/internal/planner"
)

// Install merges req.Repos and moves the merge root to req.Path.
//
// The destination is checked before anything is fetched. Missing parents of
// req.Path are created. When the merge root cannot be renamed across devices
// its contents are copied with links dereferenced.
func (e *Engine) Install(ctx context.Context, req *InstallRequest) (*InstallResult, error) {
	path, err := resolveTarget(req.Path, req.CWD)
	if err != nil {
		return nil, err
	}
	if err := e.checkOutsideCache(path); err != nil {
		return nil, err
	}
	if err := e.checkFree(path); err != nil {
		return nil, err
	}

	result := &InstallResult{Path: path}
	count := func(_ string, _ manifest.RepositoryOverlay, _ string, plans []planner.LinkPlan) {
		result.Links += len(plans)
	}

	err = e.merge(ctx, req.Repos, count, func(mergeRoot string) error {
		// the target may have appeared while fetching
		if err := e.checkFree(path); err != nil {
			return err
		}
		if err := e.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("%w: failed to create parent directory: %w", ErrFilesystem, err)
		}

		err := e.fs.Rename(mergeRoot, path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, syscall.EXDEV) {
			return fmt.Errorf("%w: failed to move merge root: %w", ErrFilesystem, err)
		}

		e.log.Debug().Str("path", path).Msg("merge root is on another device, copying")
		if err := e.fs.Copy(mergeRoot, path); err != nil {
			_ = e.fs.RemoveAll(path)
			return fmt.Errorf("%w: failed to copy merge root: %w", ErrFilesystem, err)
		}
		result.Copied = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("path", path).Int("links", result.Links).Msg("installed")
	return result, nil
}

// checkFree fails with ErrDestinationExists when anything, including a
// dangling link, exists at path.
func (e *Engine) checkFree(path string) error {
	exists, err := e.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("%w: failed to check %s: %w", ErrFilesystem, path, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, path)
	}
	return nil
}

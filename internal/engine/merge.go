package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/danieljhkim/reponimous/internal/manifest"
	"github.com/danieljhkim/reponimous/internal/planner"
)

// applyFunc observes the links applied for one repository.
type applyFunc func(mergeRoot string, repo manifest.RepositoryOverlay, mode string, plans []planner.LinkPlan)

// Merge fetches every repository in order, links their trees into a fresh
// merge root and calls consume with that root. The root is removed when Merge
// returns, whatever the outcome; a consumer that moves the root away leaves
// nothing to remove.
//
// Algorithm steps:
// 1. Create a uniquely named merge root under the temp directory
// 2. For each repository: fetch it, then mirror it or apply its overlays
// 3. Hand the root to consume
// 4. Remove the root
func (e *Engine) Merge(ctx context.Context, repos []manifest.RepositoryOverlay, consume func(mergeRoot string) error) error {
	return e.merge(ctx, repos, nil, consume)
}

func (e *Engine) merge(ctx context.Context, repos []manifest.RepositoryOverlay, observe applyFunc, consume func(string) error) error {
	if len(repos) == 0 {
		return fmt.Errorf("%w: no repositories to merge", ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runID := xid.New().String()
	log := e.log.With().Str("run", runID).Logger()

	if err := e.fs.MkdirAll(e.paths.Temp, 0755); err != nil {
		return fmt.Errorf("%w: failed to create temp directory: %w", ErrFilesystem, err)
	}
	mergeRoot, err := e.fs.MkdirTemp(e.paths.Temp, "reponimous-"+runID+"-")
	if err != nil {
		return fmt.Errorf("%w: failed to create merge root: %w", ErrFilesystem, err)
	}
	log.Debug().Str("root", mergeRoot).Msg("created merge root")

	defer func() {
		if err := e.fs.RemoveAll(mergeRoot); err != nil {
			log.Warn().Err(err).Str("root", mergeRoot).Msg("failed to remove merge root")
		}
	}()

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return err
		}

		ref := repo.Ref
		if ref == "" {
			ref = manifest.DefaultRef
		}
		repoLog := log.With().Str("repo", repo.Git).Str("ref", ref).Logger()

		repoLog.Info().Msg("fetching")
		sourceRoot, err := e.fetcher.Fetch(ctx, repo.Git, ref)
		if err != nil {
			return err
		}

		mode, plans, err := e.applyRepository(sourceRoot, repo, mergeRoot)
		if err != nil {
			return fmt.Errorf("repo %s@%s: %w", repo.Git, ref, err)
		}
		repoLog.Info().Str("mode", mode).Int("links", len(plans)).Msg("applied")

		if observe != nil {
			repo.Ref = ref
			observe(mergeRoot, repo, mode, plans)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return consume(mergeRoot)
}

// applyRepository mirrors sourceRoot into mergeRoot when repo has no file
// overlays, and applies each overlay in declared order otherwise.
func (e *Engine) applyRepository(sourceRoot string, repo manifest.RepositoryOverlay, mergeRoot string) (string, []planner.LinkPlan, error) {
	if len(repo.Files) == 0 {
		plans, err := e.planner.Mirror(sourceRoot, mergeRoot)
		if err != nil {
			return ModeMirror, nil, classify(err)
		}
		return ModeMirror, plans, nil
	}

	var applied []planner.LinkPlan
	for _, f := range repo.Files {
		plans, err := e.planner.Overlay(sourceRoot, f.Src, f.Dst, mergeRoot)
		if err != nil {
			return ModeOverlay, nil, classify(err)
		}
		applied = append(applied, plans...)
	}
	return ModeOverlay, applied, nil
}

// classify tags a planner failure with the engine error category.
func classify(err error) error {
	if errors.Is(err, planner.ErrInvalidPattern) || errors.Is(err, planner.ErrInvalidDestination) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return fmt.Errorf("%w: %w", ErrFilesystem, err)
}

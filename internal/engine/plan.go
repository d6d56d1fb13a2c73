package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/danieljhkim/reponimous/internal/manifest"
	"github.com/danieljhkim/reponimous/internal/planner"
)

// Plan runs a full merge, records every applied link relative to the merge
// root and discards the root. Only the fetch cache is left on disk.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	result := &PlanResult{Repositories: []RepositoryPlan{}}

	var relErr error
	record := func(mergeRoot string, repo manifest.RepositoryOverlay, mode string, plans []planner.LinkPlan) {
		rp := RepositoryPlan{Git: repo.Git, Ref: repo.Ref, Mode: mode, Links: []PlannedLink{}}
		for _, p := range plans {
			rel, err := filepath.Rel(mergeRoot, p.Location)
			if err != nil {
				if relErr == nil {
					relErr = err
				}
				continue
			}
			rp.Links = append(rp.Links, PlannedLink{
				Location: filepath.ToSlash(rel),
				Target:   p.Target,
				Kind:     p.Kind,
			})
		}
		result.Repositories = append(result.Repositories, rp)
	}

	if err := e.merge(ctx, req.Repos, record, func(string) error { return nil }); err != nil {
		return nil, err
	}
	if relErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilesystem, relErr)
	}
	return result, nil
}

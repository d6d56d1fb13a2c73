package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/linker"
)

// Planner resolves overlays into link plans and applies them.
type Planner struct {
	fs     fsops.FS
	linker *linker.Linker
	log    zerolog.Logger
}

// New creates a Planner.
func New(fs fsops.FS, lk *linker.Linker, log zerolog.Logger) *Planner {
	return &Planner{
		fs:     fs,
		linker: lk,
		log:    log,
	}
}

// Overlay plans the given patterns and applies the result to mergeRoot.
// It returns the plans that were applied, in application order.
func (p *Planner) Overlay(sourceRoot string, patterns []string, dst, mergeRoot string) ([]LinkPlan, error) {
	plans, err := p.Plan(sourceRoot, patterns, dst, mergeRoot)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(mergeRoot, plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Plan expands patterns against sourceRoot and resolves a location inside
// mergeRoot for every match. Nothing is written. Matches are returned in
// pattern order, then glob order within each pattern.
//
// Whether dst names a directory is decided once, against the merge root as
// it is before this overlay is applied, so every match of one overlay is
// placed by the same rule.
func (p *Planner) Plan(sourceRoot string, patterns []string, dst, mergeRoot string) ([]LinkPlan, error) {
	matches, err := p.expand(sourceRoot, patterns)
	if err != nil {
		return nil, err
	}

	dstIsDir := false
	if dst != "" {
		if err := p.fs.ValidateRelPath(dst); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidDestination, dst, err)
		}
		dstIsDir, err = p.destinationIsDir(filepath.Join(mergeRoot, dst), matches)
		if err != nil {
			return nil, err
		}
		dstIsDir = dstIsDir || hasTrailingSeparator(dst)
	}

	plans := make([]LinkPlan, 0, len(matches))
	for _, m := range matches {
		location, err := ResolveLocation(sourceRoot, m.path, dst, dstIsDir, mergeRoot)
		if err != nil {
			return nil, err
		}
		plans = append(plans, LinkPlan{
			Target:   m.path,
			Location: location,
			Kind:     m.kind,
		})
	}

	return plans, nil
}

// Apply creates the parent directory of every plan and then places its link.
// Later plans at the same location replace earlier ones.
func (p *Planner) Apply(mergeRoot string, plans []LinkPlan) error {
	for _, plan := range plans {
		if err := p.linker.EnsureDir(mergeRoot, filepath.Dir(plan.Location)); err != nil {
			return fmt.Errorf("failed to create parent of %s: %w", plan.Location, err)
		}
		if err := p.linker.Link(plan.Target, plan.Location); err != nil {
			return fmt.Errorf("failed to link %s: %w", plan.Location, err)
		}
	}
	return nil
}

// ResolveLocation returns where match is linked inside mergeRoot.
//
//   - dst empty: the match keeps its path relative to sourceRoot
//   - dstIsDir: the match is placed inside dst under its own base name
//   - otherwise: dst itself is the location, which renames the match
//
// dstIsDir must be true when dst ends with a separator or names an existing
// directory in the merge root. A directory match with a literal dst that is
// not yet a directory becomes a single link named dst, which renames the
// directory the same way a file match is renamed.
func ResolveLocation(sourceRoot, match, dst string, dstIsDir bool, mergeRoot string) (string, error) {
	if dst == "" {
		rel, err := filepath.Rel(sourceRoot, match)
		if err != nil {
			return "", fmt.Errorf("%w: %s is not inside %s", ErrInvalidPattern, match, sourceRoot)
		}
		if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s is not inside %s", ErrInvalidPattern, match, sourceRoot)
		}
		return filepath.Join(mergeRoot, rel), nil
	}

	if dstIsDir || hasTrailingSeparator(dst) {
		return filepath.Join(mergeRoot, dst, filepath.Base(match)), nil
	}

	location := filepath.Join(mergeRoot, dst)
	if location == filepath.Clean(mergeRoot) {
		return "", fmt.Errorf("%w %q: resolves to the merge root", ErrInvalidDestination, dst)
	}
	return location, nil
}

type match struct {
	path    string
	pattern string
	kind    string
}

// expand globs every pattern and drops metadata entries and matches that
// vanished before they could be inspected.
func (p *Planner) expand(sourceRoot string, patterns []string) ([]match, error) {
	var matches []match

	for _, pattern := range patterns {
		if err := p.fs.ValidateRelPath(pattern); err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
		}

		found, err := p.fs.Glob(filepath.Join(sourceRoot, pattern))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
		}
		if len(found) == 0 {
			p.log.Debug().Str("pattern", pattern).Str("source", sourceRoot).Msg("pattern matched nothing")
		}

		for _, path := range found {
			if linker.HasMetadataPrefix(filepath.Base(path)) {
				continue
			}

			info, err := p.fs.Stat(path)
			if os.IsNotExist(err) {
				p.log.Warn().Str("match", path).Str("pattern", pattern).Msg("source match does not exist, skipping")
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to stat %s: %w", path, err)
			}

			kind := KindFile
			if info.IsDir() {
				kind = KindDir
			}
			matches = append(matches, match{path: path, pattern: pattern, kind: kind})
		}
	}

	return matches, nil
}

// destinationIsDir reports whether location is a directory the overlay
// should place matches into. A link that already points at one of this
// overlay's own matches is the overlay's earlier output, not a directory to
// nest into, so re-applying an overlay lands on the same locations.
func (p *Planner) destinationIsDir(location string, matches []match) (bool, error) {
	isDir, err := p.fs.IsDir(location)
	if err != nil {
		return false, fmt.Errorf("failed to stat destination %s: %w", location, err)
	}
	if !isDir {
		return false, nil
	}

	info, err := p.fs.Lstat(location)
	if err != nil {
		return false, fmt.Errorf("failed to stat destination %s: %w", location, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return true, nil
	}

	target, err := p.fs.Readlink(location)
	if err != nil {
		return false, fmt.Errorf("failed to read link %s: %w", location, err)
	}
	for _, m := range matches {
		if m.path == target {
			return false, nil
		}
	}
	return true, nil
}

func hasTrailingSeparator(dst string) bool {
	return strings.HasSuffix(dst, "/") || strings.HasSuffix(dst, string(filepath.Separator))
}

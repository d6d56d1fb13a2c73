package planner

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/danieljhkim/reponimous/internal/linker"
)

// Mirror links the whole tree under sourceRoot into mergeRoot, keeping every
// relative path. Directories are created for real; every other entry,
// including symlinks inside the source, becomes a link. Metadata entries are
// skipped at any depth and excluded directories are not descended into.
func (p *Planner) Mirror(sourceRoot, mergeRoot string) ([]LinkPlan, error) {
	var plans []LinkPlan

	err := p.fs.WalkDir(sourceRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == sourceRoot {
			return nil
		}

		if linker.HasMetadataPrefix(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			return err
		}
		location := filepath.Join(mergeRoot, rel)

		if d.IsDir() {
			if err := p.linker.EnsureDir(mergeRoot, location); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", location, err)
			}
			return nil
		}

		if err := p.linker.Link(path, location); err != nil {
			return fmt.Errorf("failed to link %s: %w", location, err)
		}
		plans = append(plans, LinkPlan{
			Target:   path,
			Location: location,
			Kind:     KindFile,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to mirror %s: %w", sourceRoot, err)
	}

	p.log.Debug().Str("source", sourceRoot).Int("links", len(plans)).Msg("mirrored tree")
	return plans, nil
}

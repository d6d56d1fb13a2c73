// Package engine provides the core business logic for reponimous operations.
//
// The engine package acts as the orchestration layer between CLI commands and
// lower-level operations. It fetches every repository of a manifest, merges
// their trees into an ephemeral merge root and hands that root to a consumer.
//
// Key components:
//   - Merge: builds a merge root and guarantees its removal
//   - Install: moves the merge root to a permanent location
//   - Archive: packs the merge root into a tarball
//   - Plan: records what a merge would link, then discards it
package engine

import (
	"github.com/rs/zerolog"

	"github.com/danieljhkim/reponimous/internal/clock"
	"github.com/danieljhkim/reponimous/internal/config"
	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/gitx"
	"github.com/danieljhkim/reponimous/internal/hash"
	"github.com/danieljhkim/reponimous/internal/linker"
	"github.com/danieljhkim/reponimous/internal/planner"
)

// Engine orchestrates all reponimous operations.
// It is the main API surface called by the CLI.
type Engine struct {
	fetcher gitx.Fetcher
	fs      fsops.FS
	planner *planner.Planner
	hasher  hash.Hasher
	clock   clock.Clock
	paths   config.Paths
	log     zerolog.Logger
}

// New creates a new Engine with the given dependencies.
func New(
	fetcher gitx.Fetcher,
	fs fsops.FS,
	hasher hash.Hasher,
	clk clock.Clock,
	paths config.Paths,
	log zerolog.Logger,
) *Engine {
	return &Engine{
		fetcher: fetcher,
		fs:      fs,
		planner: planner.New(fs, linker.New(fs, log), log),
		hasher:  hasher,
		clock:   clk,
		paths:   paths,
		log:     log,
	}
}

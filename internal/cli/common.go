package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/reponimous/internal/clock"
	"github.com/danieljhkim/reponimous/internal/config"
	"github.com/danieljhkim/reponimous/internal/engine"
	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/gitx"
	"github.com/danieljhkim/reponimous/internal/hash"
	"github.com/danieljhkim/reponimous/internal/logging"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

// resolvePaths returns the default paths with the --cache-dir override.
func resolvePaths() (*config.Paths, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	return paths.WithCache(cacheDir), nil
}

// newLogger creates the logger configured by --log-level and --json.
func newLogger() (zerolog.Logger, error) {
	return logging.Setup(os.Stderr, logLevel, jsonOutput)
}

// newEngine creates a new engine with real implementations of all dependencies.
func newEngine() (*engine.Engine, error) {
	log, err := newLogger()
	if err != nil {
		return nil, err
	}

	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}

	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	fetcher := gitx.NewRealFetcher(paths.Cache, fs, hasher, log)
	clk := &clock.RealClock{}

	return engine.New(fetcher, fs, hasher, clk, *paths, log), nil
}

// newCache opens the fetch cache without creating it.
func newCache() (*gitx.Cache, error) {
	paths, err := resolvePaths()
	if err != nil {
		return nil, err
	}
	return gitx.NewCache(paths.Cache, fsops.NewRealFS()), nil
}

// loadManifest reads the Reponimous file at path. Nothing is fetched when it
// is invalid.
func loadManifest(path string) (*manifest.Manifest, error) {
	if path == "" {
		path = manifest.DefaultFileName
	}
	return manifest.Load(path)
}

// repositoryList describes repos as "git@ref" items in merge order.
func repositoryList(repos []manifest.RepositoryOverlay) []string {
	items := make([]string, 0, len(repos))
	for _, r := range repos {
		items = append(items, r.Git+"@"+r.Ref)
	}
	return items
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatError formats an error for display.
func FormatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	s, err := formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, s)
	return err
}

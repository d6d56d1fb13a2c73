// Package gitx fetches source trees from git repositories into a local cache.
//
// Every (locator, ref) pair owns one cache entry. The first fetch clones the
// repository; later fetches reuse the clone, check out the ref again and pull
// when the ref is a branch. Tags and commits are fixed points and are never
// refreshed.
package gitx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/hash"
)

// Fetcher returns a local tree root for a repository at a revision.
type Fetcher interface {
	// Fetch makes the repository available locally at ref and returns the
	// root of its working tree. Repeated calls with the same locator and ref
	// return the same root.
	Fetch(ctx context.Context, locator, ref string) (string, error)
}

// RealFetcher implements Fetcher by running git.
type RealFetcher struct {
	cacheDir string
	fs       fsops.FS
	hasher   hash.Hasher
	log      zerolog.Logger
}

// NewRealFetcher creates a fetcher that keeps its clones under cacheDir.
func NewRealFetcher(cacheDir string, fs fsops.FS, hasher hash.Hasher, log zerolog.Logger) *RealFetcher {
	return &RealFetcher{
		cacheDir: cacheDir,
		fs:       fs,
		hasher:   hasher,
		log:      log,
	}
}

// Fetch clones locator into the cache if needed, checks out ref and pulls it
// when ref is a branch.
func (f *RealFetcher) Fetch(ctx context.Context, locator, ref string) (string, error) {
	if locator == "" {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "validate", Err: fmt.Errorf("empty locator")}
	}
	if err := ValidateRef(ref); err != nil {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "validate", Err: err}
	}

	dir, err := f.EntryDir(locator, ref)
	if err != nil {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "validate", Err: err}
	}

	if err := f.fs.MkdirAll(f.cacheDir, 0755); err != nil {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "cache", Err: err}
	}

	exists, err := f.fs.Exists(dir)
	if err != nil {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "cache", Err: err}
	}

	log := f.log.With().Str("repo", locator).Str("ref", ref).Logger()

	if !exists {
		log.Info().Str("dir", dir).Msg("cloning")
		if _, err := runGit(ctx, f.cacheDir, "clone", "--quiet", "--", locator, dir); err != nil {
			// leave no half-written entry behind to be mistaken for a clone
			_ = f.fs.RemoveAll(dir)
			return "", &FetchError{Locator: locator, Ref: ref, Op: "clone", Err: err}
		}
	} else {
		log.Debug().Str("dir", dir).Msg("using cached clone")
	}

	if _, err := runGit(ctx, dir, "checkout", "--quiet", ref, "--"); err != nil {
		return "", &FetchError{Locator: locator, Ref: ref, Op: "checkout", Err: err}
	}

	if isBranch(ctx, dir, ref) {
		log.Info().Msg("pulling")
		if _, err := runGit(ctx, dir, "pull", "--quiet", "--ff-only", "origin", ref); err != nil {
			return "", &FetchError{Locator: locator, Ref: ref, Op: "pull", Err: err}
		}
	}

	return dir, nil
}

// EntryDir returns the cache directory used for locator at ref.
func (f *RealFetcher) EntryDir(locator, ref string) (string, error) {
	name := CacheKey(locator, ref, f.hasher)
	if err := f.fs.ValidateIdentifier(name); err != nil {
		return "", err
	}
	return filepath.Join(f.cacheDir, name), nil
}

// isBranch reports whether ref names a branch on origin.
func isBranch(ctx context.Context, dir, ref string) bool {
	_, err := runGit(ctx, dir, "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+ref)
	return err == nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CacheKey derives the cache entry name for locator at ref:
// <name>-<ref>-<fingerprint>, where name is the repository base name without
// ".git" and fingerprint is a short digest of the full locator.
func CacheKey(locator, ref string, hasher hash.Hasher) string {
	trimmed := strings.TrimRight(locator, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")
	name := trimmed
	if i := strings.LastIndexAny(trimmed, `/:\`); i >= 0 {
		name = trimmed[i+1:]
	}
	name = strings.Trim(unsafeNameChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "repo"
	}

	refPart := unsafeNameChars.ReplaceAllString(strings.ReplaceAll(ref, "/", "_"), "_")

	return fmt.Sprintf("%s-%s-%s", name, refPart, hash.Short(hasher.HashString(locator), 8))
}

// runGit executes git in dir and returns its trimmed stdout.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s failed: %w\nstderr: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}

	return strings.TrimSpace(stdout.String()), nil
}

var refPattern = regexp.MustCompile(`^[A-Za-z0-9._/+@-]+$`)

// ValidateRef rejects revisions that git would misread as options or that
// cannot name a branch, tag or commit.
func ValidateRef(ref string) error {
	switch {
	case ref == "":
		return fmt.Errorf("invalid ref: empty")
	case strings.HasPrefix(ref, "-"):
		return fmt.Errorf("invalid ref %q: must not start with '-'", ref)
	case strings.HasPrefix(ref, "."), strings.HasPrefix(ref, "/"):
		return fmt.Errorf("invalid ref %q: must not start with '.' or '/'", ref)
	case strings.Contains(ref, ".."), strings.Contains(ref, "//"), strings.Contains(ref, "@{"):
		return fmt.Errorf("invalid ref %q: contains a forbidden sequence", ref)
	case strings.HasSuffix(ref, "/"), strings.HasSuffix(ref, ".lock"):
		return fmt.Errorf("invalid ref %q: has a forbidden suffix", ref)
	case !refPattern.MatchString(ref):
		return fmt.Errorf("invalid ref %q: contains invalid characters", ref)
	}
	return nil
}

package gitx

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/hash"
)

func TestValidateRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		// Valid refs
		{name: "default branch", ref: "master", wantErr: false},
		{name: "branch with slash", ref: "feature/add-auth", wantErr: false},
		{name: "release tag", ref: "v1.2.3", wantErr: false},
		{name: "branch with underscore", ref: "my_branch", wantErr: false},
		{name: "commit sha", ref: "3f2a9c1d4b5e6f708192a3b4c5d6e7f8091a2b3c", wantErr: false},
		{name: "stable branch", ref: "stable/2024.1", wantErr: false},

		// Invalid refs
		{name: "empty", ref: "", wantErr: true},
		{name: "starts with hyphen", ref: "-branch", wantErr: true},
		{name: "option injection", ref: "--upload-pack=touch", wantErr: true},
		{name: "contains space", ref: "my branch", wantErr: true},
		{name: "contains semicolon", ref: "branch;rm -rf /", wantErr: true},
		{name: "contains pipe", ref: "branch|cat /etc/passwd", wantErr: true},
		{name: "contains backtick", ref: "branch`whoami`", wantErr: true},
		{name: "contains dollar", ref: "branch$HOME", wantErr: true},
		{name: "contains double dot", ref: "main..evil", wantErr: true},
		{name: "starts with dot", ref: ".hidden", wantErr: true},
		{name: "trailing slash", ref: "feature/", wantErr: true},
		{name: "lock suffix", ref: "main.lock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}

func TestCacheKey(t *testing.T) {
	hasher := hash.NewFakeHasher()
	hasher.SetHash("https://github.com/org/config.git", "1a2b3c4d5e6f")
	hasher.SetHash("git@github.com:org/config.git", "99887766aabb")
	hasher.SetHash("/srv/repos/tools/", "abcdef012345")
	hasher.SetHash("https://example.com/", "0000000011111")

	tests := []struct {
		name    string
		locator string
		ref     string
		want    string
	}{
		{
			name:    "https locator",
			locator: "https://github.com/org/config.git",
			ref:     "master",
			want:    "config-master-1a2b3c4d",
		},
		{
			name:    "scp-like locator",
			locator: "git@github.com:org/config.git",
			ref:     "master",
			want:    "config-master-99887766",
		},
		{
			name:    "local path with trailing slash",
			locator: "/srv/repos/tools/",
			ref:     "v1.0",
			want:    "tools-v1.0-abcdef01",
		},
		{
			name:    "branch with slash",
			locator: "https://github.com/org/config.git",
			ref:     "stable/2024.1",
			want:    "config-stable_2024.1-1a2b3c4d",
		},
		{
			name:    "host only",
			locator: "https://example.com/",
			ref:     "main",
			want:    "example.com-main-00000000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CacheKey(tt.locator, tt.ref, hasher)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, fsops.ValidateIdentifier(got))
		})
	}
}

func TestCacheKey_SameBaseNameDifferentLocators(t *testing.T) {
	hasher := hash.NewSHA256Hasher()
	a := CacheKey("https://github.com/alice/config.git", "master", hasher)
	b := CacheKey("https://github.com/bob/config.git", "master", hasher)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "config-master-"))
	assert.True(t, strings.HasPrefix(b, "config-master-"))
}

func TestFetchError_Is(t *testing.T) {
	cause := errors.New("exit status 128")
	err := error(&FetchError{Locator: "repo", Ref: "master", Op: "clone", Err: cause})

	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "fetch repo@master: clone")
}

// requireGit skips the test when git is unavailable.
func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return strings.TrimSpace(string(out))
}

// setupOrigin creates a repository on branch master with one commit and a
// tag v1 pointing at it.
func setupOrigin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git(t, dir, "init", "--quiet")
	git(t, dir, "symbolic-ref", "HEAD", "refs/heads/master")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("v1"), 0644))
	git(t, dir, "add", ".")
	git(t, dir, "commit", "--quiet", "-m", "initial")
	git(t, dir, "tag", "v1")
	return dir
}

func commitFile(t *testing.T, repo, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(repo, name), []byte(content), 0644))
	git(t, repo, "add", ".")
	git(t, repo, "commit", "--quiet", "-m", "add "+name)
}

func newTestFetcher(cacheDir string) *RealFetcher {
	return NewRealFetcher(cacheDir, fsops.NewRealFS(), hash.NewSHA256Hasher(), zerolog.Nop())
}

func TestRealFetcher_CloneAndReuse(t *testing.T) {
	requireGit(t)
	origin := setupOrigin(t)
	cache := filepath.Join(t.TempDir(), "cache")
	f := newTestFetcher(cache)
	ctx := context.Background()

	first, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)
	assert.Equal(t, cache, filepath.Dir(first))

	content, err := os.ReadFile(filepath.Join(first, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	second, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRealFetcher_BranchIsPulled(t *testing.T) {
	requireGit(t)
	origin := setupOrigin(t)
	f := newTestFetcher(t.TempDir())
	ctx := context.Background()

	root, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)

	commitFile(t, origin, "NEWS.md", "news")

	again, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)
	require.Equal(t, root, again)
	_, err = os.Stat(filepath.Join(root, "NEWS.md"))
	assert.NoError(t, err, "branch checkout should have been refreshed")
}

func TestRealFetcher_TagIsFixed(t *testing.T) {
	requireGit(t)
	origin := setupOrigin(t)
	commitFile(t, origin, "NEWS.md", "news")
	f := newTestFetcher(t.TempDir())
	ctx := context.Background()

	tagged, err := f.Fetch(ctx, origin, "v1")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(tagged, "NEWS.md"))
	assert.True(t, os.IsNotExist(err), "tag checkout must not contain later commits")

	branch, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)
	assert.NotEqual(t, tagged, branch)
	_, err = os.Stat(filepath.Join(branch, "NEWS.md"))
	assert.NoError(t, err)
}

func TestRealFetcher_Errors(t *testing.T) {
	requireGit(t)
	origin := setupOrigin(t)
	cache := t.TempDir()
	f := newTestFetcher(cache)
	ctx := context.Background()

	tests := []struct {
		name    string
		locator string
		ref     string
		wantOp  string
	}{
		{name: "empty locator", locator: "", ref: "master", wantOp: "validate"},
		{name: "unsafe ref", locator: origin, ref: "--upload-pack=evil", wantOp: "validate"},
		{name: "missing repository", locator: filepath.Join(cache, "nope"), ref: "master", wantOp: "clone"},
		{name: "missing ref", locator: origin, ref: "does-not-exist", wantOp: "checkout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(ctx, tt.locator, tt.ref)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFetch))

			var fetchErr *FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, tt.wantOp, fetchErr.Op)
		})
	}

	// a failed clone leaves nothing behind
	dir, err := f.EntryDir(filepath.Join(cache, "nope"), "master")
	require.NoError(t, err)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_ListRemoveClean(t *testing.T) {
	requireGit(t)
	origin := setupOrigin(t)
	cacheDir := t.TempDir()
	f := newTestFetcher(cacheDir)
	ctx := context.Background()

	master, err := f.Fetch(ctx, origin, "master")
	require.NoError(t, err)
	_, err = f.Fetch(ctx, origin, "v1")
	require.NoError(t, err)

	c := NewCache(cacheDir, fsops.NewRealFS())
	entries, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, origin, e.Origin)
		assert.NotEmpty(t, e.Head)
	}

	require.NoError(t, c.Remove(filepath.Base(master)))
	entries, err = c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	err = c.Remove(filepath.Base(master))
	assert.True(t, errors.Is(err, ErrEntryNotFound))
	assert.Error(t, c.Remove("../escape"))

	removed, err := c.Clean()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestCache_MissingDirectoryIsEmpty(t *testing.T) {
	c := NewCache(filepath.Join(t.TempDir(), "missing"), fsops.NewRealFS())

	entries, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err := c.Clean()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestFakeFetcher(t *testing.T) {
	f := NewFakeFetcher()
	f.SetRoot("repo-a", "/tmp/a")
	f.SetError("repo-b", errors.New("boom"))
	ctx := context.Background()

	root, err := f.Fetch(ctx, "repo-a", "master")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a", root)

	_, err = f.Fetch(ctx, "repo-b", "master")
	assert.True(t, errors.Is(err, ErrFetch))

	_, err = f.Fetch(ctx, "repo-c", "v2")
	assert.True(t, errors.Is(err, ErrFetch))

	assert.Equal(t, []FetchCall{
		{Locator: "repo-a", Ref: "master"},
		{Locator: "repo-b", Ref: "master"},
		{Locator: "repo-c", Ref: "v2"},
	}, f.Calls)
}

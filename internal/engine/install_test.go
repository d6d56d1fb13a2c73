package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/manifest"
)

func TestInstall_MovesMergedTree(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md", "docs/guide.md")
	env.addRepo(t, "site", "site.yml")

	target := filepath.Join(env.base, "out", "nested", "site")
	result, err := env.engine.Install(context.Background(), &InstallRequest{
		Repos: []manifest.RepositoryOverlay{
			mirror("base"),
			overlay("site", files("config/", "site.yml")),
		},
		Path: target,
	})
	require.NoError(t, err)

	assert.Equal(t, target, result.Path)
	assert.Equal(t, 3, result.Links)
	assert.False(t, result.Copied)

	assert.Equal(t, map[string]string{
		"README.md":       "base:README.md",
		"docs/guide.md":   "base:docs/guide.md",
		"config/site.yml": "site:site.yml",
	}, contents(t, target))

	info, err := os.Lstat(filepath.Join(target, "README.md"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink, "installed tree keeps its links")

	assert.Empty(t, env.tempEntries(t))
}

func TestInstall_RelativePath(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")

	result, err := env.engine.Install(context.Background(), &InstallRequest{
		Repos: []manifest.RepositoryOverlay{mirror("base")},
		Path:  "site",
		CWD:   env.base,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.base, "site"), result.Path)
}

func TestInstall_DestinationExistsBeforeFetch(t *testing.T) {
	tests := []struct {
		name   string
		create func(t *testing.T, path string)
	}{
		{
			name: "directory",
			create: func(t *testing.T, path string) {
				require.NoError(t, os.MkdirAll(path, 0755))
			},
		},
		{
			name: "file",
			create: func(t *testing.T, path string) {
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
			},
		},
		{
			name: "dangling link",
			create: func(t *testing.T, path string) {
				require.NoError(t, os.Symlink(filepath.Join(filepath.Dir(path), "missing"), path))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.addRepo(t, "base", "README.md")
			target := filepath.Join(env.base, "taken")
			tt.create(t, target)

			_, err := env.engine.Install(context.Background(), &InstallRequest{
				Repos: []manifest.RepositoryOverlay{mirror("base")},
				Path:  target,
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDestinationExists))
			assert.Empty(t, env.fetcher.Calls, "nothing may be fetched")
			assert.Empty(t, env.tempEntries(t))
		})
	}
}

func TestInstall_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")

	tests := []struct {
		name string
		path string
	}{
		{name: "empty path", path: ""},
		{name: "inside the fetch cache", path: filepath.Join(env.paths.Cache, "site")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.engine.Install(context.Background(), &InstallRequest{
				Repos: []manifest.RepositoryOverlay{mirror("base")},
				Path:  tt.path,
			})
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
			assert.Empty(t, env.fetcher.Calls)
		})
	}
}

func TestInstall_FetchErrorLeavesNoTarget(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")
	env.fetcher.SetError("broken", errors.New("exit status 128"))

	target := filepath.Join(env.base, "site")
	_, err := env.engine.Install(context.Background(), &InstallRequest{
		Repos: []manifest.RepositoryOverlay{mirror("base"), mirror("broken")},
		Path:  target,
	})
	require.Error(t, err)

	_, statErr := os.Lstat(target)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, env.tempEntries(t))
}

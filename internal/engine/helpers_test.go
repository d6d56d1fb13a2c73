package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/clock"
	"github.com/danieljhkim/reponimous/internal/config"
	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/gitx"
	"github.com/danieljhkim/reponimous/internal/hash"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

var testTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	engine  *Engine
	fetcher *gitx.FakeFetcher
	paths   config.Paths
	base    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	paths := config.Paths{
		Root:  filepath.Join(base, "root"),
		Cache: filepath.Join(base, "root", "cache"),
		Temp:  filepath.Join(base, "tmp"),
	}
	fetcher := gitx.NewFakeFetcher()
	eng := New(fetcher, fsops.NewRealFS(), hash.NewSHA256Hasher(), clock.NewFakeClock(testTime), paths, zerolog.Nop())
	return &testEnv{engine: eng, fetcher: fetcher, paths: paths, base: base}
}

// addRepo creates a source tree for locator. Entries ending in "/" are
// directories; files contain "<locator>:<entry>".
func (env *testEnv) addRepo(t *testing.T, locator string, entries ...string) string {
	t.Helper()
	root := filepath.Join(env.base, "src", locator)
	require.NoError(t, os.MkdirAll(root, 0755))
	for _, e := range entries {
		path := filepath.Join(root, e)
		if strings.HasSuffix(e, "/") {
			require.NoError(t, os.MkdirAll(path, 0755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(locator+":"+e), 0644))
	}
	env.fetcher.SetRoot(locator, root)
	return root
}

// tempEntries lists what is left in the temp directory.
func (env *testEnv) tempEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(env.paths.Temp)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// contents returns every regular file reachable under root, following links,
// as rel path -> content.
func contents(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var walk func(dir, prefix string)
	walk = func(dir, prefix string) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			rel := prefix + e.Name()
			info, err := os.Stat(path)
			require.NoError(t, err)
			if info.IsDir() {
				walk(path, rel+"/")
				continue
			}
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			out[rel] = string(data)
		}
	}
	walk(root, "")
	return out
}

func mirror(git string) manifest.RepositoryOverlay {
	return manifest.RepositoryOverlay{Git: git, Ref: manifest.DefaultRef}
}

func overlay(git string, files ...manifest.FileOverlay) manifest.RepositoryOverlay {
	return manifest.RepositoryOverlay{Git: git, Ref: manifest.DefaultRef, Files: files}
}

func files(dst string, src ...string) manifest.FileOverlay {
	return manifest.FileOverlay{Src: src, Dst: dst}
}

// Package integration runs the merge pipeline against real git repositories.
package integration

import (
	"archive/tar"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/clock"
	"github.com/danieljhkim/reponimous/internal/config"
	"github.com/danieljhkim/reponimous/internal/engine"
	"github.com/danieljhkim/reponimous/internal/fsops"
	"github.com/danieljhkim/reponimous/internal/gitx"
	"github.com/danieljhkim/reponimous/internal/hash"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func git(t *testing.T, dir string, args ...string) {
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
}

// origin is a local git repository on branch master.
type origin struct {
	dir string
}

func newOrigin(t *testing.T, files map[string]string) *origin {
	t.Helper()
	o := &origin{dir: t.TempDir()}
	git(t, o.dir, "init", "--quiet")
	git(t, o.dir, "symbolic-ref", "HEAD", "refs/heads/master")
	o.commit(t, files)
	return o
}

func (o *origin) commit(t *testing.T, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(o.dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	git(t, o.dir, "add", ".")
	git(t, o.dir, "commit", "--quiet", "-m", "update")
}

func (o *origin) tag(t *testing.T, name string) {
	t.Helper()
	git(t, o.dir, "tag", name)
}

// setupTestEngine wires an engine with real git and filesystem access under a
// temporary root.
func setupTestEngine(t *testing.T) (*engine.Engine, config.Paths) {
	t.Helper()
	requireGit(t)

	root := t.TempDir()
	paths := config.Paths{
		Root:  root,
		Cache: filepath.Join(root, "cache"),
		Temp:  filepath.Join(root, "tmp"),
	}
	require.NoError(t, paths.EnsureDirectories())

	fs := fsops.NewRealFS()
	hasher := hash.NewSHA256Hasher()
	fetcher := gitx.NewRealFetcher(paths.Cache, fs, hasher, zerolog.Nop())
	clk := clock.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	return engine.New(fetcher, fs, hasher, clk, paths, zerolog.Nop()), paths
}

// treeContents maps every regular file under root, following links, to its
// content. Paths are slash separated and relative to root.
func treeContents(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	var walk func(dir, prefix string)
	walk = func(dir, prefix string) {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		for _, e := range entries {
			path := filepath.Join(dir, e.Name())
			info, err := os.Stat(path)
			require.NoError(t, err)
			name := prefix + e.Name()
			if info.IsDir() {
				walk(path, name+"/")
				continue
			}
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			out[name] = string(data)
		}
	}
	walk(root, "")
	return out
}

// tarballContents maps every regular file of a .tgz to its content.
func tarballContents(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	out := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		require.NoError(t, err)
		out[strings.TrimPrefix(hdr.Name, "./")] = string(data)
	}
	return out
}

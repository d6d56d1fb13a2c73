package engine

import (
	"archive/tar"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/hash"
	"github.com/danieljhkim/reponimous/internal/manifest"
)

// tarballFiles returns the regular files of a tar.gz as name -> content.
func tarballFiles(t *testing.T, path string) map[string]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gr)

	out := map[string]string{}
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
		out[hdr.Name] = string(data)
	}
	return out
}

func TestArchive_DefaultName(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md", "docs/guide.md", ".git/HEAD")
	env.addRepo(t, "extra", "docs/guide.md")
	outDir := filepath.Join(env.base, "dist", "archives")

	result, err := env.engine.Archive(context.Background(), &ArchiveRequest{
		Repos: []manifest.RepositoryOverlay{
			mirror("base"),
			overlay("extra", files("", "docs/guide.md")),
		},
		Dir: outDir,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "reponimous-2024-01-15T10:30:00Z.tgz"), result.Path)
	assert.Equal(t, 3, result.Links)

	want := map[string]string{
		"README.md":     "base:README.md",
		"docs/guide.md": "extra:docs/guide.md",
	}
	if diff := cmp.Diff(want, tarballFiles(t, result.Path)); diff != "" {
		t.Errorf("archive mismatch (-want +got):\n%s", diff)
	}

	digest, err := hash.NewSHA256Hasher().HashFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, digest, result.Digest)
	assert.Empty(t, env.tempEntries(t))
}

func TestArchive_NameGetsExtension(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")

	result, err := env.engine.Archive(context.Background(), &ArchiveRequest{
		Repos: []manifest.RepositoryOverlay{mirror("base")},
		Dir:   "out",
		Name:  "release-1.0",
		CWD:   env.base,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(env.base, "out", "release-1.0.tgz"), result.Path)
}

func TestArchive_ExistingArchiveBeforeFetch(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")
	existing := filepath.Join(env.base, "release.tgz")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	_, err := env.engine.Archive(context.Background(), &ArchiveRequest{
		Repos: []manifest.RepositoryOverlay{mirror("base")},
		Dir:   env.base,
		Name:  "release",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDestinationExists))
	assert.Empty(t, env.fetcher.Calls)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}

func TestArchive_InvalidName(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "README.md")

	for _, name := range []string{"../escape", "a/b", ".."} {
		t.Run(name, func(t *testing.T) {
			_, err := env.engine.Archive(context.Background(), &ArchiveRequest{
				Repos: []manifest.RepositoryOverlay{mirror("base")},
				Dir:   env.base,
				Name:  name,
			})
			assert.True(t, errors.Is(err, ErrValidation), "got %v", err)
		})
	}
	assert.Empty(t, env.fetcher.Calls)
}

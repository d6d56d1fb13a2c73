package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danieljhkim/reponimous/internal/manifest"
)

func TestPlan_RecordsLinksPerRepository(t *testing.T) {
	env := newTestEnv(t)
	base := env.addRepo(t, "base", "README.md", "docs/index.md")
	extra := env.addRepo(t, "extra", "a.md", "b.md", "config.yaml")

	result, err := env.engine.Plan(context.Background(), &PlanRequest{
		Repos: []manifest.RepositoryOverlay{
			mirror("base"),
			overlay("extra",
				files("docs/", "*.md"),
				files("etc/app.yaml", "config.yaml"),
			),
		},
	})
	require.NoError(t, err)

	want := &PlanResult{
		Repositories: []RepositoryPlan{
			{
				Git:  "base",
				Ref:  manifest.DefaultRef,
				Mode: ModeMirror,
				Links: []PlannedLink{
					{Location: "README.md", Target: filepath.Join(base, "README.md"), Kind: "file"},
					{Location: "docs/index.md", Target: filepath.Join(base, "docs", "index.md"), Kind: "file"},
				},
			},
			{
				Git:  "extra",
				Ref:  manifest.DefaultRef,
				Mode: ModeOverlay,
				Links: []PlannedLink{
					{Location: "docs/a.md", Target: filepath.Join(extra, "a.md"), Kind: "file"},
					{Location: "docs/b.md", Target: filepath.Join(extra, "b.md"), Kind: "file"},
					{Location: "etc/app.yaml", Target: filepath.Join(extra, "config.yaml"), Kind: "file"},
				},
			},
		},
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 5, result.Links())
	assert.Empty(t, env.tempEntries(t), "plan leaves nothing behind")
}

func TestPlan_IsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	env.addRepo(t, "base", "docs/readme.md", "docs/guide.md")
	env.addRepo(t, "extra", "docs/readme.md")
	req := &PlanRequest{
		Repos: []manifest.RepositoryOverlay{
			overlay("base", files("manual", "docs")),
			overlay("extra", files("manual/", "docs/readme.md")),
		},
	}

	first, err := env.engine.Plan(context.Background(), req)
	require.NoError(t, err)
	second, err := env.engine.Plan(context.Background(), req)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("plans differ between runs (-first +second):\n%s", diff)
	}
	require.Len(t, first.Repositories, 2)
	assert.Equal(t, "manual", first.Repositories[0].Links[0].Location)
	assert.Equal(t, "dir", first.Repositories[0].Links[0].Kind)
	assert.Equal(t, "manual/readme.md", first.Repositories[1].Links[0].Location)
}

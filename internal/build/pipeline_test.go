package build

import (
	"context"
	"path/filepath"
	"testing"

	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/linker"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourceFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func siteSources() map[string]string {
	return map[string]string{
		"src/make.json":     `{"projects": ["a", "b"]}`,
		"src/a/config.json": `{"pageOrder": ["one", "two"]}`,
		"src/b/config.json": `{"pageOrder": ["two"]}`,
		"src/a/one.json":    `{"name": "One", "sections": [{"name": "s"}]}`,
		"src/a/two.json":    `{"name": "Two", "sections": [{"name": "x"}]}`,
		"src/b/two.json":    `{"name": "Two (b)", "sections": [{"name": "y"}]}`,
	}
}

func newTestPipeline(fs afero.Fs, keepGoing bool) *BuildPipeline {
	l := linker.New(fs, linker.Options{Root: "src", KeepGoing: keepGoing, Parallelism: 2}, nil)
	g := NewStaticSiteGenerator(fs, "out", nil, nil)
	return NewBuildPipeline(l, g, StaticGenerationOptions{}, nil)
}

func TestBuildPipeline_Build(t *testing.T) {
	fs := sourceFs(t, siteSources())
	p := newTestPipeline(fs, false)

	var seen []BuildResult
	p.AddCallback(func(r BuildResult) { seen = append(seen, r) })

	result, err := p.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, result.Pages)
	assert.Len(t, result.Files, 3)
	require.Len(t, seen, 1)
	assert.Equal(t, result.Pages, seen[0].Pages)

	two, err := afero.ReadFile(fs, filepath.Join("out", "two.html"))
	require.NoError(t, err)
	assert.Contains(t, string(two), "<h1>Two</h1>")
	assert.Contains(t, string(two), "<h2>x</h2><h2>y</h2>")

	metrics := p.GetMetrics()
	assert.Equal(t, int64(1), metrics.TotalBuilds)
	assert.Equal(t, int64(1), metrics.SuccessfulBuilds)
}

func TestBuildPipeline_AbortsOnPageError(t *testing.T) {
	files := siteSources()
	files["src/b/two.json"] = `{"name": "Two (b)", "sections": [{"examples": []}]}`
	fs := sourceFs(t, files)
	p := newTestPipeline(fs, false)

	result, err := p.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, doerrors.ErrMissingName)
	assert.Empty(t, result.Files)

	exists, err := afero.Exists(fs, filepath.Join("out", "one.html"))
	require.NoError(t, err)
	assert.False(t, exists)

	metrics := p.GetMetrics()
	assert.Equal(t, int64(1), metrics.FailedBuilds)
}

func TestBuildPipeline_KeepGoingWritesPartialSite(t *testing.T) {
	files := siteSources()
	files["src/b/two.json"] = `{"name": "Two (b)", "sections": [{"examples": []}]}`
	fs := sourceFs(t, files)
	p := newTestPipeline(fs, true)

	result, err := p.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, doerrors.ErrMissingName)
	assert.Equal(t, []string{"one"}, result.Pages)
	assert.Equal(t, []string{"two"}, result.Skipped)

	exists, err := afero.Exists(fs, filepath.Join("out", "one.html"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestBuildPipeline_MetricsSnapshotIsDetached(t *testing.T) {
	p := newTestPipeline(sourceFs(t, siteSources()), false)

	_, err := p.Build(context.Background())
	require.NoError(t, err)
	first := p.GetMetrics()

	_, err = p.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.TotalBuilds)
	assert.Equal(t, int64(2), p.GetMetrics().TotalBuilds)
	assert.Equal(t, int64(2), p.GetMetrics().SuccessfulBuilds)
}

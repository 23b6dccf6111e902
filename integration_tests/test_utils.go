//go:build integration
// +build integration

package integration_tests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/docmerge/internal/build"
	"github.com/conneroisu/docmerge/internal/config"
	"github.com/conneroisu/docmerge/internal/linker"
	"github.com/conneroisu/docmerge/internal/renderer"
	"github.com/conneroisu/docmerge/internal/testutils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// exampleSite is the demo site shipped with the repository.
const exampleSite = "../examples/site"

// copyExampleSite copies the demo site into a temporary directory so a test
// can edit it.
func copyExampleSite(t *testing.T) string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(exampleSite, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(exampleSite, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return testutils.CreateTempSite(t, files)
}

// newPipeline wires a build pipeline for cfg on the real filesystem.
func newPipeline(cfg *config.Config, opts ...renderer.Option) *build.BuildPipeline {
	fs := afero.NewOsFs()
	l := linker.New(fs, linker.Options{
		Root:        cfg.Source.Root,
		Manifest:    cfg.Source.Manifest,
		Parallelism: cfg.Build.Parallelism,
		Columns:     cfg.Render.Columns,
	}, nil)
	g := build.NewStaticSiteGenerator(fs, cfg.Build.Output,
		renderer.New(append([]renderer.Option{renderer.WithSiteTitle(cfg.Render.SiteTitle)}, opts...)...), nil)
	return build.NewBuildPipeline(l, g, build.StaticGenerationOptions{GenerateJSON: true}, nil)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

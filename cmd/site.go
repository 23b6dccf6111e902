package cmd

import (
	"github.com/conneroisu/docmerge/internal/build"
	"github.com/conneroisu/docmerge/internal/config"
	"github.com/conneroisu/docmerge/internal/linker"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/conneroisu/docmerge/internal/renderer"
	"github.com/spf13/afero"
)

// site wires the linker, renderer and writer described by a Config.
type site struct {
	cfg       *config.Config
	fs        afero.Fs
	logger    logging.Logger
	linker    *linker.Linker
	generator *build.StaticSiteGenerator
	pipeline  *build.BuildPipeline
}

func newSite(cfg *config.Config, fs afero.Fs, logger logging.Logger, opts ...renderer.Option) *site {
	l := linker.New(fs, linker.Options{
		Root:        cfg.Source.Root,
		Manifest:    cfg.Source.Manifest,
		Parallelism: cfg.Build.Parallelism,
		KeepGoing:   cfg.Link.KeepGoing,
		Columns:     cfg.Render.Columns,
	}, logger)

	opts = append([]renderer.Option{renderer.WithSiteTitle(cfg.Render.SiteTitle)}, opts...)
	generator := build.NewStaticSiteGenerator(fs, cfg.Build.Output, renderer.New(opts...), logger)

	return &site{
		cfg:       cfg,
		fs:        fs,
		logger:    logger,
		linker:    l,
		generator: generator,
		pipeline:  build.NewBuildPipeline(l, generator, generationOptions(cfg), logger),
	}
}

func generationOptions(cfg *config.Config) build.StaticGenerationOptions {
	return build.StaticGenerationOptions{
		MinifyHTML:      cfg.Build.Minify,
		GenerateJSON:    cfg.Build.JSON,
		GenerateSitemap: cfg.Build.Sitemap,
		BaseURL:         cfg.Build.BaseURL,
	}
}

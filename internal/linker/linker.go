// Package linker reads a manifest and the per-project configuration and page
// files, works out every page to build, and merges each page across the
// projects that declare it.
//
// Pages are ordered by first appearance across the projects' pageOrder
// lists, scanning projects in manifest order. Each page is loaded and merged
// independently; merges run concurrently up to the configured parallelism
// and results are reported in page order.
package linker

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/fragment"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/conneroisu/docmerge/internal/merge"
	"github.com/conneroisu/docmerge/internal/types"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Result is the site-level output of a link run.
type Result struct {
	Homepage string              `json:"homepage"`
	Pages    []*types.MergedPage `json:"pages"`
	Sections map[string][]string `json:"sections"`
	// Skipped lists pages dropped because they failed to merge. Only
	// populated when Options.KeepGoing is set.
	Skipped []string `json:"skipped,omitempty"`
}

// Options configures a Linker.
type Options struct {
	// Root is the directory holding the manifest and project directories.
	Root string
	// Manifest is the manifest file name relative to Root.
	Manifest string
	// Parallelism bounds concurrent page merges. Values below one mean one.
	Parallelism int
	// KeepGoing skips failing pages instead of aborting the run.
	KeepGoing bool
	// Columns is the number of output columns for column examples.
	Columns int
}

// Linker drives a full link run over a filesystem.
type Linker struct {
	fs         afero.Fs
	opts       Options
	logger     logging.Logger
	errHandler *doerrors.ErrorHandler
}

// New creates a Linker reading from fs.
func New(fs afero.Fs, opts Options, logger logging.Logger) *Linker {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Manifest == "" {
		opts.Manifest = "make.json"
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Columns < 1 {
		opts.Columns = merge.DefaultColumns
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("linker")
	return &Linker{
		fs:         fs,
		opts:       opts,
		logger:     logger,
		errHandler: doerrors.NewErrorHandler(logger),
	}
}

// plan is the loaded, not yet merged, state of a run.
type plan struct {
	manifest *Manifest
	homepage string
	// pages in first-seen order, each with its declaring projects in
	// precedence order.
	pages        []string
	pageProjects map[string][]string
}

// Link reads every input and merges every page.
//
// Without KeepGoing the first page error aborts the run and is returned with
// a nil Result. With KeepGoing failing pages are logged and skipped, the
// partial Result is returned, and the error joins every page failure.
func (l *Linker) Link(ctx context.Context) (*Result, error) {
	perf := logging.StartOperation(l.logger, "link")

	p, err := l.load()
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	merger := merge.NewMerger(p.manifest.Projects, merge.WithColumns(l.opts.Columns))

	merged := make([]*types.MergedPage, len(p.pages))
	pageErrs := make([]error, len(p.pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Parallelism)

	for i, page := range p.pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mp, err := l.linkPage(merger, page, p.pageProjects[page])
			if err != nil {
				if l.opts.KeepGoing {
					l.errHandler.Handle(gctx, err)
					l.logger.Warn(gctx, nil, "Skipping page", "page", page)
					pageErrs[i] = err
					return nil
				}
				return err
			}
			l.logger.Debug(gctx, "Merged page", "page", page, "sections", len(mp.Sections))
			merged[i] = mp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	result := &Result{
		Homepage: p.homepage,
		Pages:    make([]*types.MergedPage, 0, len(merged)),
		Sections: make(map[string][]string, len(merged)),
	}
	for i, mp := range merged {
		if mp == nil {
			result.Skipped = append(result.Skipped, p.pages[i])
			continue
		}
		result.Pages = append(result.Pages, mp)
		result.Sections[mp.Name] = mp.Sections
	}

	perf.End(ctx, "pages", len(result.Pages), "skipped", len(result.Skipped))
	return result, errors.Join(pageErrs...)
}

// load reads the manifest, the homepage and every project config.
func (l *Linker) load() (*plan, error) {
	manifestPath := filepath.Join(l.opts.Root, l.opts.Manifest)
	data, err := afero.ReadFile(l.fs, manifestPath)
	if err != nil {
		return nil, doerrors.NewIOError(doerrors.ErrCodeManifestInvalid,
			"couldn't read make file", err).WithFile(manifestPath)
	}

	var manifest Manifest
	if err := decodeFile(manifestPath, data, &manifest); err != nil {
		return nil, doerrors.NewConfigError(doerrors.ErrCodeManifestInvalid,
			"couldn't parse make file").WithFile(manifestPath).WithCause(err)
	}
	if err := manifest.validate(); err != nil {
		return nil, doerrors.NewConfigError(doerrors.ErrCodeManifestInvalid,
			err.Error()).WithFile(manifestPath)
	}

	p := &plan{
		manifest:     &manifest,
		pageProjects: make(map[string][]string),
	}

	if manifest.Homepage != "" {
		homePath := filepath.Join(l.opts.Root, filepath.FromSlash(manifest.Homepage))
		home, err := afero.ReadFile(l.fs, homePath)
		if err != nil {
			return nil, doerrors.NewIOError(doerrors.ErrCodeUnreadableHomepage,
				"couldn't read the homepage", err).WithFile(homePath)
		}
		p.homepage = string(home)
	}

	for _, project := range manifest.Projects {
		cfg, err := l.loadProjectConfig(project)
		if err != nil {
			return nil, err
		}
		for _, page := range cfg.PageOrder {
			if err := validateIdentifier(page); err != nil {
				return nil, doerrors.NewConfigError(doerrors.ErrCodeUnreadableConfig,
					fmt.Sprintf("invalid page %q in pageOrder: %v", page, err)).
					WithProject(project)
			}
			projects, seen := p.pageProjects[page]
			if !seen {
				p.pages = append(p.pages, page)
			}
			if !contains(projects, project) {
				p.pageProjects[page] = append(projects, project)
			}
		}
	}

	l.logger.Debug(context.Background(), "Loaded manifest",
		"projects", len(manifest.Projects), "pages", len(p.pages))

	return p, nil
}

func (l *Linker) loadProjectConfig(project string) (*ProjectConfig, error) {
	dir := filepath.Join(l.opts.Root, project)
	ok, err := afero.DirExists(l.fs, dir)
	if err != nil || !ok {
		return nil, doerrors.NewIOError(doerrors.ErrCodeMissingProject,
			fmt.Sprintf("project %q listed in make file but no directory found", project), err).
			WithProject(project).
			WithFile(dir)
	}

	for _, name := range ProjectConfigNames {
		cfgPath := filepath.Join(dir, name)
		data, err := afero.ReadFile(l.fs, cfgPath)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := decodeFile(cfgPath, data, &cfg); err != nil {
			return nil, doerrors.NewIOError(doerrors.ErrCodeUnreadableConfig,
				"couldn't parse the config of "+project, err).
				WithProject(project).
				WithFile(cfgPath)
		}
		return &cfg, nil
	}

	return nil, doerrors.NewIOError(doerrors.ErrCodeUnreadableConfig,
		"couldn't read the config of "+project+" (tried "+strings.Join(ProjectConfigNames, ", ")+")", nil).
		WithProject(project).
		WithFile(dir)
}

// linkPage loads every declaring project's fragment for page, then merges.
func (l *Linker) linkPage(merger *merge.Merger, page string, projects []string) (*types.MergedPage, error) {
	frags := make(map[string]*fragment.PageFragment, len(projects))
	for _, project := range projects {
		pagePath := filepath.Join(l.opts.Root, project, page+".json")
		data, err := afero.ReadFile(l.fs, pagePath)
		if err != nil {
			return nil, unreadablePage(page, project, pagePath, err)
		}
		frag, err := fragment.DecodePage(data)
		if err != nil {
			return nil, unreadablePage(page, project, pagePath, err)
		}
		frags[project] = frag
	}
	return merger.MergePage(page, frags)
}

func unreadablePage(page, project, file string, cause error) error {
	return doerrors.NewIOError(doerrors.ErrCodeUnreadablePage,
		fmt.Sprintf("page %s was listed in pageOrder of %s but %s could not be read", page, project, path.Base(file)),
		cause).
		WithPage(page).
		WithProject(project).
		WithFile(file)
}

// CompileFile merges a single page document on its own, as if it were the
// only project. The page identifier is the file name without extension.
func (l *Linker) CompileFile(file string) (*types.MergedPage, error) {
	page := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	data, err := afero.ReadFile(l.fs, file)
	if err != nil {
		return nil, unreadablePage(page, "-", file, err)
	}
	frag, err := fragment.DecodePage(data)
	if err != nil {
		return nil, unreadablePage(page, "-", file, err)
	}
	const project = "-"
	merger := merge.NewMerger([]string{project}, merge.WithColumns(l.opts.Columns))
	return merger.MergePage(page, map[string]*fragment.PageFragment{project: frag})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

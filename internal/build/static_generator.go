// Package build writes a linked site to disk: one HTML document per merged
// page, the site index, and optionally the link result as JSON and a
// sitemap.
package build

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	doerrors "github.com/conneroisu/docmerge/internal/errors"
	"github.com/conneroisu/docmerge/internal/linker"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/conneroisu/docmerge/internal/renderer"
	"github.com/conneroisu/docmerge/internal/types"
	"github.com/spf13/afero"
	"golang.org/x/net/html"
)

// Output file names written next to the pages.
const (
	IndexFile   = "index.html"
	SitemapFile = "sitemap.xml"
	LinkFile    = "link.json"
)

// DefaultBaseURL is used for sitemap entries when no base URL is configured.
const DefaultBaseURL = "https://example.com"

// StaticSiteGenerator handles generation of static HTML files from link results
type StaticSiteGenerator struct {
	fs        afero.Fs
	outputDir string
	renderer  *renderer.Renderer
	logger    logging.Logger
	cache     *OutputCache
	now       func() time.Time
}

// StaticGenerationOptions configures static site generation
type StaticGenerationOptions struct {
	MinifyHTML      bool   `json:"minify_html"`
	GenerateJSON    bool   `json:"generate_json"`
	GenerateSitemap bool   `json:"generate_sitemap"`
	BaseURL         string `json:"base_url,omitempty"`
}

// NewStaticSiteGenerator creates a new static site generator
func NewStaticSiteGenerator(fs afero.Fs, outputDir string, r *renderer.Renderer, logger logging.Logger) *StaticSiteGenerator {
	if r == nil {
		r = renderer.New()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &StaticSiteGenerator{
		fs:        fs,
		outputDir: outputDir,
		renderer:  r,
		logger:    logger.WithComponent("build"),
		cache:     NewOutputCache(),
		now:       time.Now,
	}
}

// OutputDir returns the directory files are written to.
func (s *StaticSiteGenerator) OutputDir() string {
	return s.outputDir
}

// Cache returns the cache of written files. Files whose rendered bytes
// match the cache and still exist on disk are not rewritten.
func (s *StaticSiteGenerator) Cache() *OutputCache {
	return s.cache
}

// Generate writes every page of result, the index and the optional extras.
// It returns the written paths in write order.
func (s *StaticSiteGenerator) Generate(
	ctx context.Context,
	result *linker.Result,
	options StaticGenerationOptions,
) ([]string, error) {
	if err := s.fs.MkdirAll(s.outputDir, 0o755); err != nil {
		return nil, doerrors.NewIOError(doerrors.ErrCodeWriteFailed,
			"failed to create output directory", err).WithFile(s.outputDir)
	}

	generatedFiles := make([]string, 0, len(result.Pages)+3)

	for _, page := range result.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageFile, err := s.GeneratePage(ctx, page, options)
		if err != nil {
			return nil, err
		}
		generatedFiles = append(generatedFiles, pageFile)
	}

	indexFile, err := s.generateIndexPage(ctx, result, options)
	if err != nil {
		return nil, err
	}
	generatedFiles = append(generatedFiles, indexFile)

	if options.GenerateJSON {
		jsonFile, err := s.generateLinkJSON(result)
		if err != nil {
			return nil, err
		}
		generatedFiles = append(generatedFiles, jsonFile)
	}

	if options.GenerateSitemap {
		sitemapFile, err := s.generateSitemap(generatedFiles, options)
		if err != nil {
			return nil, err
		}
		generatedFiles = append(generatedFiles, sitemapFile)
	}

	s.logger.Debug(ctx, "Site written", "files", len(generatedFiles), "output", s.outputDir)

	return generatedFiles, nil
}

// GeneratePage renders and writes a single merged page.
func (s *StaticSiteGenerator) GeneratePage(
	ctx context.Context,
	page *types.MergedPage,
	options StaticGenerationOptions,
) (string, error) {
	content, err := s.renderer.RenderPage(ctx, page)
	if err != nil {
		return "", err
	}

	pagePath := filepath.Join(s.outputDir, renderer.PagePath(page.Name))
	if err := s.write(pagePath, content, options.MinifyHTML); err != nil {
		return "", err
	}
	return pagePath, nil
}

// generateIndexPage creates the main index page
func (s *StaticSiteGenerator) generateIndexPage(
	ctx context.Context,
	result *linker.Result,
	options StaticGenerationOptions,
) (string, error) {
	content, err := s.renderer.RenderIndex(ctx, result.Homepage, renderer.EntriesFor(result.Pages))
	if err != nil {
		return "", err
	}

	indexPath := filepath.Join(s.outputDir, IndexFile)
	if err := s.write(indexPath, content, options.MinifyHTML); err != nil {
		return "", err
	}
	return indexPath, nil
}

func (s *StaticSiteGenerator) generateLinkJSON(result *linker.Result) (string, error) {
	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return "", doerrors.NewInternalError(doerrors.ErrCodeInternalError,
			"failed to encode link result", err)
	}

	jsonPath := filepath.Join(s.outputDir, LinkFile)
	if err := s.write(jsonPath, append(data, '\n'), false); err != nil {
		return "", err
	}
	return jsonPath, nil
}

func (s *StaticSiteGenerator) generateSitemap(
	generatedFiles []string,
	options StaticGenerationOptions,
) (string, error) {
	sitemapPath := filepath.Join(s.outputDir, SitemapFile)

	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	lastmod := s.now().Format("2006-01-02")

	var sitemap strings.Builder
	sitemap.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sitemap.WriteString("\n")
	sitemap.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	sitemap.WriteString("\n")

	for _, file := range generatedFiles {
		if !strings.HasSuffix(file, ".html") {
			continue
		}
		relPath, err := filepath.Rel(s.outputDir, file)
		if err != nil {
			continue
		}

		url := strings.TrimSuffix(baseURL, "/") + "/" + filepath.ToSlash(relPath)

		sitemap.WriteString("  <url>\n")
		sitemap.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", html.EscapeString(url)))
		sitemap.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", lastmod))
		sitemap.WriteString("  </url>\n")
	}

	sitemap.WriteString("</urlset>\n")

	if err := s.write(sitemapPath, []byte(sitemap.String()), false); err != nil {
		return "", err
	}
	return sitemapPath, nil
}

func (s *StaticSiteGenerator) write(path string, content []byte, minify bool) error {
	if minify {
		minified, err := MinifyHTML(content)
		if err != nil {
			return doerrors.NewRenderError(doerrors.ErrCodeRenderFailed,
				"failed to minify output", err).WithFile(path)
		}
		content = minified
	}
	if s.cache.Unchanged(path, content) {
		if _, err := s.fs.Stat(path); err == nil {
			return nil
		}
	}
	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return doerrors.NewIOError(doerrors.ErrCodeWriteFailed,
			"failed to create output directory", err).WithFile(path)
	}
	if err := afero.WriteFile(s.fs, path, content, 0o644); err != nil {
		return doerrors.NewIOError(doerrors.ErrCodeWriteFailed,
			"failed to write output file", err).WithFile(path)
	}
	s.cache.Record(path, content)
	return nil
}

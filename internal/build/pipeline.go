package build

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/docmerge/internal/linker"
	"github.com/conneroisu/docmerge/internal/logging"
)

// BuildPipeline links the site and writes it out. Builds are serialized; a
// build requested while another runs waits for it to finish.
type BuildPipeline struct {
	linker    *linker.Linker
	generator *StaticSiteGenerator
	options   StaticGenerationOptions
	logger    logging.Logger
	callbacks []BuildCallback
	metrics   BuildMetrics
	metricsMu sync.RWMutex
	buildMu   sync.Mutex
	mutex     sync.RWMutex
}

// BuildResult represents the result of a build operation
type BuildResult struct {
	// Pages are the identifiers of the pages written, in page order.
	Pages []string
	// Skipped are pages dropped by a keep-going link.
	Skipped  []string
	Files    []string
	Error    error
	Duration time.Duration
}

// BuildCallback is called when a build completes
type BuildCallback func(result BuildResult)

// BuildMetrics tracks build outcomes
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
}

// NewBuildPipeline creates a new build pipeline
func NewBuildPipeline(
	l *linker.Linker,
	generator *StaticSiteGenerator,
	options StaticGenerationOptions,
	logger logging.Logger,
) *BuildPipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BuildPipeline{
		linker:    l,
		generator: generator,
		options:   options,
		logger:    logger.WithComponent("pipeline"),
	}
}

// AddCallback registers a callback invoked after every build
func (bp *BuildPipeline) AddCallback(callback BuildCallback) {
	bp.mutex.Lock()
	defer bp.mutex.Unlock()
	bp.callbacks = append(bp.callbacks, callback)
}

// Build links every page and writes the site.
//
// When the linker is configured to keep going, a partial link result is
// still written and the joined page errors are returned alongside it.
func (bp *BuildPipeline) Build(ctx context.Context) (BuildResult, error) {
	bp.buildMu.Lock()
	defer bp.buildMu.Unlock()

	perf := logging.StartOperation(bp.logger, "build")
	start := time.Now()

	result := bp.run(ctx)
	result.Duration = time.Since(start)

	if result.Error != nil {
		perf.EndWithError(ctx, result.Error)
	} else {
		perf.End(ctx, "pages", len(result.Pages), "files", len(result.Files),
			"cache_hits", bp.generator.Cache().Stats().Hits)
	}

	bp.updateMetrics(result)

	bp.mutex.RLock()
	callbacks := bp.callbacks
	bp.mutex.RUnlock()
	for _, callback := range callbacks {
		callback(result)
	}

	return result, result.Error
}

func (bp *BuildPipeline) run(ctx context.Context) BuildResult {
	linked, linkErr := bp.linker.Link(ctx)
	if linked == nil {
		return BuildResult{Error: linkErr}
	}

	result := BuildResult{
		Pages:   make([]string, 0, len(linked.Pages)),
		Skipped: linked.Skipped,
	}
	for _, p := range linked.Pages {
		result.Pages = append(result.Pages, p.Name)
	}

	files, err := bp.generator.Generate(ctx, linked, bp.options)
	if err != nil {
		result.Error = err
		return result
	}
	result.Files = files
	result.Error = linkErr

	return result
}

// GetMetrics returns a snapshot of the build metrics
func (bp *BuildPipeline) GetMetrics() BuildMetrics {
	bp.metricsMu.RLock()
	defer bp.metricsMu.RUnlock()
	return bp.metrics
}

func (bp *BuildPipeline) updateMetrics(result BuildResult) {
	bp.metricsMu.Lock()
	defer bp.metricsMu.Unlock()

	bp.metrics.TotalBuilds++
	if result.Error != nil {
		bp.metrics.FailedBuilds++
	} else {
		bp.metrics.SuccessfulBuilds++
	}

	bp.metrics.TotalDuration += result.Duration
	bp.metrics.AverageDuration = bp.metrics.TotalDuration / time.Duration(bp.metrics.TotalBuilds)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/docmerge/internal/build"
	"github.com/conneroisu/docmerge/internal/config"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/conneroisu/docmerge/internal/watcher"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the site whenever a source file changes",
	Long: `Build the site, then watch the source root and rebuild after every
batch of changes. Changes inside the output directory are ignored. A failed
rebuild is reported and watching continues.

Examples:
  docmerge watch                       # Watch the current directory
  docmerge watch --debounce 1s         # Wait longer before rebuilding`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addOutputFlags(watchCmd)
	addWatchFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSite(cfg, afero.NewOsFs(), logger)
	s.pipeline.AddCallback(reportBuild(cmd, cfg))

	if _, err := s.pipeline.Build(ctx); err != nil {
		logger.Warn(ctx, err, "Initial build failed")
	}

	fileWatcher, err := newSourceWatcher(cfg, s.pipeline, logger)
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	printHint(cmd.OutOrStdout(), "Watching %s for changes (Press Ctrl+C to stop)", cfg.Source.Root)
	<-ctx.Done()
	printHint(cmd.OutOrStdout(), "Stopping file watcher")

	return nil
}

// newSourceWatcher watches the source root and rebuilds through pipeline
// after each debounced batch of changes.
func newSourceWatcher(cfg *config.Config, pipeline *build.BuildPipeline, logger logging.Logger) (*watcher.FileWatcher, error) {
	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fileWatcher.ExcludeDir(cfg.Build.Output)
	fileWatcher.AddFilter(watcher.SourceFilter)
	fileWatcher.AddFilter(watcher.NoHiddenFilter)
	fileWatcher.AddFilter(watcher.NoGitFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		ctx := context.Background()
		for _, event := range events {
			logger.Debug(ctx, "Source changed", "path", event.Path, "type", event.Type.String())
		}
		if _, err := pipeline.Build(ctx); err != nil {
			logger.Warn(ctx, err, "Rebuild failed", "changes", len(events))
		}
		return nil
	})

	if err := fileWatcher.AddRecursive(cfg.Source.Root); err != nil {
		_ = fileWatcher.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Source.Root, err)
	}

	return fileWatcher, nil
}

// reportBuild prints a summary of every build.
func reportBuild(cmd *cobra.Command, cfg *config.Config) build.BuildCallback {
	return func(result build.BuildResult) {
		printBuildResult(cmd.OutOrStdout(), cfg.Build.Output, result)
	}
}

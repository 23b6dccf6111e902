package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/conneroisu/docmerge/internal/renderer"
	"github.com/conneroisu/docmerge/internal/server"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the site with live reload",
	Long: `Build the site, serve the output directory over HTTP and rebuild on
every source change. Open pages reload themselves after each rebuild.

Examples:
  docmerge serve                       # Serve on localhost:8080
  docmerge serve --port 3000           # Serve on a different port
  docmerge serve --host 0.0.0.0        # Listen on every interface`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addOutputFlags(serveCmd)
	addWatchFlags(serveCmd)
	addServerFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := afero.NewOsFs()
	srv := server.New(cfg, fs, logger)

	s := newSite(cfg, fs, logger, renderer.WithLiveReload(server.WebSocketPath))
	s.pipeline.AddCallback(reportBuild(cmd, cfg))
	s.pipeline.AddCallback(srv.OnBuild)

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

	printHint(cmd.OutOrStdout(), "Serving %s on http://%s:%d (Press Ctrl+C to stop)",
		cfg.Build.Output, cfg.Server.Host, cfg.Server.Port)

	return srv.Start(ctx)
}

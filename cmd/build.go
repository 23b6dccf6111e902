package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Link the site and write it as HTML",
	Long: `Link the site and write one HTML page per merged page plus an index
page into the output directory. With --file a single page document is
compiled on its own and written without touching the rest of the site.

Examples:
  docmerge build                          # Build into ./output
  docmerge build --output dist --minify   # Minified build into ./dist
  docmerge build --json --sitemap         # Also write link.json and sitemap.xml
  docmerge build --file go/loops.json     # Compile one page document`,
	RunE: runBuild,
}

var (
	buildFile  string
	buildClean bool
)

func init() {
	rootCmd.AddCommand(buildCmd)

	addOutputFlags(buildCmd)
	buildCmd.Flags().StringVarP(&buildFile, "file", "f", "", "compile a single page document")
	buildCmd.Flags().BoolVar(&buildClean, "clean", false, "remove the output directory before building")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	s := newSite(cfg, fs, logger)
	out := cmd.OutOrStdout()

	if buildClean {
		if err := fs.RemoveAll(cfg.Build.Output); err != nil {
			return fmt.Errorf("failed to clean output directory: %w", err)
		}
	}

	if buildFile != "" {
		page, err := s.linker.CompileFile(buildFile)
		if err != nil {
			return err
		}
		path, err := s.generator.GeneratePage(cmd.Context(), page, generationOptions(cfg))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, path)
		return nil
	}

	result, err := s.pipeline.Build(cmd.Context())
	if len(result.Files) > 0 {
		printBuildResult(out, cfg.Build.Output, result)
	}
	return err
}

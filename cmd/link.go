package cmd

import (
	"encoding/json"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Merge every page and print the result as JSON",
	Long: `Merge every page listed by the projects in the manifest and print the
link result as indented JSON: the homepage, the merged pages in page order,
and the section names of each page.

Examples:
  docmerge link                        # Link the site in the current directory
  docmerge link --root docs            # Link the site under ./docs
  docmerge link --keep-going           # Skip pages that fail to merge`,
	RunE: runLink,
}

func init() {
	rootCmd.AddCommand(linkCmd)
}

func runLink(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	s := newSite(cfg, afero.NewOsFs(), logger)
	result, err := s.linker.Link(cmd.Context())
	if result == nil {
		return err
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "    ")
	if encErr := encoder.Encode(result); encErr != nil {
		return encErr
	}

	// A keep-going link prints what merged and still reports the skipped pages.
	return err
}

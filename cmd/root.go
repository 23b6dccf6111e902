// Package cmd provides the command-line interface for docmerge.
//
// Configuration is read, highest priority first, from command-line flags,
// DOCMERGE_<SECTION>_<OPTION> environment variables, and a YAML config file:
// the --config flag, else DOCMERGE_CONFIG_FILE, else .docmerge.yml in the
// working directory.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/conneroisu/docmerge/internal/config"
	"github.com/conneroisu/docmerge/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "docmerge",
	Short: "Merge per-project documentation into one side-by-side site",
	Long: `docmerge combines documentation written separately by several projects
into a single site. Pages, sections and examples with the same name are merged
so every project's version of an example appears next to the others.

A make.json manifest lists the projects in precedence order; each project
directory holds a config.json with its pageOrder and one JSON file per page.

Quick Start:
  docmerge link                   Print the merged site as JSON
  docmerge build                  Write the site as HTML
  docmerge watch                  Rebuild whenever a source file changes
  docmerge serve                  Preview with live reload`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return SetViperBindings(cmd, flagBindings)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .docmerge.yml, can also use DOCMERGE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	addSourceFlags(rootCmd)
}

// initConfig selects the config file and enables DOCMERGE_ environment
// overrides. A missing config file is not an error.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("DOCMERGE_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".docmerge")
	}

	viper.SetEnvPrefix("DOCMERGE")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	return cfg, logger, nil
}

package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps flag names to configuration keys. Bindings are made for
// the command being run so commands sharing a flag name do not shadow each
// other.
var flagBindings = map[string]string{
	"log-level":   "log-level",
	"log-format":  "log.format",
	"root":        "source.root",
	"manifest":    "source.manifest",
	"keep-going":  "link.keep_going",
	"columns":     "render.columns",
	"site-title":  "render.site_title",
	"output":      "build.output",
	"parallelism": "build.parallelism",
	"minify":      "build.minify",
	"json":        "build.json",
	"sitemap":     "build.sitemap",
	"base-url":    "build.base_url",
	"host":        "server.host",
	"port":        "server.port",
	"debounce":    "watch.debounce",
}

// addSourceFlags adds the flags that locate and merge the sources.
func addSourceFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringP("root", "r", "", "directory holding the manifest and project directories (default \".\")")
	flags.String("manifest", "", "manifest file name relative to the root (default \"make.json\")")
	flags.Bool("keep-going", false, "skip pages that fail to merge instead of aborting")
	flags.Int("columns", 2, "number of columns column examples are dealt into")
	flags.String("site-title", "", "document title of every page (default \"Demo Site\")")
	flags.Int("parallelism", 4, "maximum number of pages merged at once")
}

// addOutputFlags adds the flags that control the written site.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output directory (default \"output\")")
	cmd.Flags().Bool("minify", false, "minify the written HTML")
	cmd.Flags().Bool("json", false, "also write the link result as link.json")
	cmd.Flags().Bool("sitemap", false, "also write sitemap.xml")
	cmd.Flags().String("base-url", "", "base URL used in the sitemap")
}

func addWatchFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "delay before rebuilding after a change")
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("port", "p", 8080, "port to serve on")
	cmd.Flags().String("host", "localhost", "host to bind to")
	AddFlagValidation(cmd, "port", ValidatePort)
}

// SetViperBindings binds the command's flags to viper configuration keys
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		if flag := cmd.Flags().Lookup(flagName); flag != nil {
			if err := viper.BindPFlag(configKey, flag); err != nil {
				return fmt.Errorf("binding flag --%s: %w", flagName, err)
			}
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidatePort checks a port flag value. Zero asks the system for a free port.
func ValidatePort(portStr string) error {
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid port number: %s", portStr)
	}

	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", port)
	}

	return nil
}

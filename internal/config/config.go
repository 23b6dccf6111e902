// Package config provides configuration management for docmerge using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration covers where project sources live, where rendered HTML
// is written, how the linker reacts to a broken page, renderer layout
// options, the preview server, the file watcher, and logging.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/conneroisu/docmerge/internal/validation"
	"github.com/spf13/viper"
)

type Config struct {
	Source SourceConfig `yaml:"source"`
	Build  BuildConfig  `yaml:"build"`
	Link   LinkConfig   `yaml:"link"`
	Render RenderConfig `yaml:"render"`
	Server ServerConfig `yaml:"server"`
	Watch  WatchConfig  `yaml:"watch"`
	Log    LogConfig    `yaml:"log"`
}

type SourceConfig struct {
	// Root is the directory holding the manifest and the project directories.
	Root     string `yaml:"root"`
	Manifest string `yaml:"manifest"`
}

type BuildConfig struct {
	Output      string `yaml:"output"`
	Parallelism int    `yaml:"parallelism"`
	Minify      bool   `yaml:"minify"`
	JSON        bool   `yaml:"json"`
	Sitemap     bool   `yaml:"sitemap"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
}

type LinkConfig struct {
	// KeepGoing skips pages that fail to merge instead of aborting the run.
	KeepGoing bool `yaml:"keep_going" mapstructure:"keep_going"`
}

type RenderConfig struct {
	Columns   int    `yaml:"columns"`
	SiteTitle string `yaml:"site_title" mapstructure:"site_title"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults used when a key is not set.
const (
	DefaultManifest    = "make.json"
	DefaultOutput      = "output"
	DefaultParallelism = 4
	DefaultColumns     = 2
	DefaultSiteTitle   = "Demo Site"
	DefaultHost        = "localhost"
	DefaultPort        = 8080
	DefaultDebounce    = 300 * time.Millisecond
)

// Load builds a Config from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom builds a Config from v, applying defaults and validating the result.
func LoadFrom(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Bools set through flags or env arrive as strings; read them through viper.
	if v.IsSet("link.keep_going") {
		config.Link.KeepGoing = v.GetBool("link.keep_going")
	}
	if v.IsSet("build.minify") {
		config.Build.Minify = v.GetBool("build.minify")
	}
	if v.IsSet("build.json") {
		config.Build.JSON = v.GetBool("build.json")
	}
	if v.IsSet("build.sitemap") {
		config.Build.Sitemap = v.GetBool("build.sitemap")
	}
	if v.IsSet("watch.debounce") {
		config.Watch.Debounce = v.GetDuration("watch.debounce")
	}
	// The persistent --log-level flag is bound to the flat key.
	if v.IsSet("log-level") && !v.IsSet("log.level") {
		config.Log.Level = v.GetString("log-level")
	}

	applyDefaults(&config, v)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyDefaults(config *Config, v *viper.Viper) {
	if config.Source.Root == "" {
		config.Source.Root = "."
	}
	if config.Source.Manifest == "" {
		config.Source.Manifest = DefaultManifest
	}

	if config.Build.Output == "" {
		config.Build.Output = DefaultOutput
	}
	if !v.IsSet("build.parallelism") {
		config.Build.Parallelism = DefaultParallelism
	}

	if !v.IsSet("render.columns") {
		config.Render.Columns = DefaultColumns
	}
	if config.Render.SiteTitle == "" {
		config.Render.SiteTitle = DefaultSiteTitle
	}

	if config.Server.Host == "" {
		config.Server.Host = DefaultHost
	}
	if !v.IsSet("server.port") {
		config.Server.Port = DefaultPort
	}

	if config.Watch.Debounce == 0 {
		config.Watch.Debounce = DefaultDebounce
	}

	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
	if config.Log.Format == "" {
		config.Log.Format = "text"
	}
}

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validatePath(config.Source.Root); err != nil {
		return fmt.Errorf("source config: root: %w", err)
	}
	if err := validatePath(config.Source.Manifest); err != nil {
		return fmt.Errorf("source config: manifest: %w", err)
	}
	if err := validateBuildConfig(&config.Build); err != nil {
		return fmt.Errorf("build config: %w", err)
	}
	if config.Render.Columns < 1 {
		return fmt.Errorf("render config: columns must be at least 1, got %d", config.Render.Columns)
	}
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if config.Watch.Debounce < 0 {
		return fmt.Errorf("watch config: debounce must not be negative")
	}
	switch config.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log config: unknown format %q (supported: text, json)", config.Log.Format)
	}

	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Allow 0 for system-assigned ports in testing
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\", " "}
	for _, char := range dangerousChars {
		if strings.Contains(config.Host, char) {
			return fmt.Errorf("host contains dangerous character: %q", char)
		}
	}

	return nil
}

// validateBuildConfig validates build configuration values
func validateBuildConfig(config *BuildConfig) error {
	if err := validatePath(config.Output); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if config.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", config.Parallelism)
	}
	if config.BaseURL != "" {
		if err := validation.ValidateBaseURL(config.BaseURL); err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
	}

	return nil
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	for _, part := range strings.Split(filepath.ToSlash(cleanPath), "/") {
		if part == ".." {
			return fmt.Errorf("path contains traversal: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

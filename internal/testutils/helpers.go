// Package testutils holds fixtures shared by package tests.
package testutils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/conneroisu/docmerge/internal/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// WriteFiles writes files, keyed by slash-separated path relative to root,
// into fs.
func WriteFiles(t testing.TB, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
}

// CreateTempSite writes files into a fresh temporary directory on disk and
// returns its path.
func CreateTempSite(t testing.TB, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, afero.NewOsFs(), root, files)
	return root
}

// CreateTestConfig returns a validated-looking configuration for a site at
// root written to output. The server binds a loopback port chosen by the
// system.
func CreateTestConfig(root, output string) *config.Config {
	return &config.Config{
		Source: config.SourceConfig{
			Root:     root,
			Manifest: config.DefaultManifest,
		},
		Build: config.BuildConfig{
			Output:      output,
			Parallelism: 2,
		},
		Render: config.RenderConfig{
			Columns:   config.DefaultColumns,
			SiteTitle: config.DefaultSiteTitle,
		},
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 0,
		},
		Watch: config.WatchConfig{
			Debounce: 20 * time.Millisecond,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
	}
}

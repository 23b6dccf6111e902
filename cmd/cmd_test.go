package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/docmerge/internal/testutils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func siteFiles() map[string]string {
	return map[string]string{
		"make.json":       `{"homepage": "home.md", "projects": ["go", "rust"]}`,
		"home.md":         "<p>Welcome</p>",
		"go/config.json":  `{"pageOrder": ["intro", "loops"]}`,
		"rust/config.yml": "pageOrder:\n  - loops\n",
		"go/intro.json":   `{"name": "Intro", "sections": [{"name": "hello"}]}`,
		"go/loops.json":   `{"name": "Loops", "sections": [{"name": "for", "examples": [{"name": "basic", "content": "for {}"}]}]}`,
		"rust/loops.json": `{"name": "Loops", "sections": [{"name": "for", "examples": [{"name": "basic", "content": "loop {}"}]}]}`,
	}
}

// execute runs the root command with fresh flag and viper state.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	cfgFile = ""
	buildFile = ""
	buildClean = false
	versionFormat = "text"
	versionShort = false
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestLinkCommand(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())

	out, err := execute(t, "link", "--root", root)
	require.NoError(t, err)

	var result struct {
		Homepage string `json:"homepage"`
		Pages    []struct {
			Filename string   `json:"filename"`
			Title    string   `json:"title"`
			Sections []string `json:"sections"`
		} `json:"pages"`
		Sections map[string][]string `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))

	assert.Equal(t, "<p>Welcome</p>", result.Homepage)
	require.Len(t, result.Pages, 2)
	assert.Equal(t, "intro", result.Pages[0].Filename)
	assert.Equal(t, "loops", result.Pages[1].Filename)
	assert.Equal(t, []string{"for"}, result.Sections["loops"])
	assert.Contains(t, out, "\n    \"homepage\"", "indented with four spaces")
}

func TestLinkCommand_KeepGoing(t *testing.T) {
	files := siteFiles()
	files["go/intro.json"] = `{"sections": [{"name": "hello"}]}`
	root := testutils.CreateTempSite(t, files)

	_, err := execute(t, "link", "--root", root)
	require.Error(t, err)

	out, err := execute(t, "link", "--root", root, "--keep-going")
	require.Error(t, err, "skipped pages are still reported")
	assert.Contains(t, out, `"skipped"`)
	assert.Contains(t, out, `"intro"`)
	assert.Contains(t, out, `"loops"`)
}

func TestBuildCommand(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())
	output := filepath.Join(t.TempDir(), "site")

	out, err := execute(t, "build", "--root", root, "--output", output, "--json", "--sitemap", "--base-url", "https://docs.example.org")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 pages")

	for _, name := range []string{"index.html", "intro.html", "loops.html", "link.json", "sitemap.xml"} {
		assert.FileExists(t, filepath.Join(output, name))
	}

	sitemap, err := os.ReadFile(filepath.Join(output, "sitemap.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(sitemap), "https://docs.example.org/loops.html")
}

func TestBuildCommand_SiteTitle(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())
	output := filepath.Join(t.TempDir(), "site")

	_, err := execute(t, "build", "--root", root, "--output", output, "--site-title", "Loops & Friends")
	require.NoError(t, err)

	page, err := os.ReadFile(filepath.Join(output, "loops.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Loops &amp; Friends</title>")
}

func TestBuildCommand_File(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())
	output := filepath.Join(t.TempDir(), "single")

	out, err := execute(t, "build", "--output", output, "--file", filepath.Join(root, "go", "loops.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(output, "loops.html")+"\n", out)

	page, err := os.ReadFile(filepath.Join(output, "loops.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "for {}")
	assert.NoFileExists(t, filepath.Join(output, "index.html"))
}

func TestBuildCommand_ConfigFile(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())
	output := filepath.Join(t.TempDir(), "fromconfig")
	configPath := filepath.Join(t.TempDir(), "docmerge.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"source:\n  root: "+root+"\nbuild:\n  output: "+output+"\n"), 0o644))

	_, err := execute(t, "build", "--config", configPath)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(output, "index.html"))
}

func TestBuildCommand_EnvOverride(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())
	output := filepath.Join(t.TempDir(), "fromenv")
	t.Setenv("DOCMERGE_BUILD_OUTPUT", output)

	_, err := execute(t, "build", "--root", root)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(output, "index.html"))
}

func TestBuildCommand_InvalidConfig(t *testing.T) {
	root := testutils.CreateTempSite(t, siteFiles())

	_, err := execute(t, "build", "--root", root, "--columns", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "columns")

	_, err = execute(t, "build", "--root", root, "--log-format", "xml")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")

	out, err = execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")

	_, err = execute(t, "version", "--format", "xml")
	assert.Error(t, err)
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort("0"))
	assert.NoError(t, ValidatePort("8080"))
	assert.Error(t, ValidatePort("65536"))
	assert.Error(t, ValidatePort("-1"))
	assert.Error(t, ValidatePort("http"))
}

func TestServeRejectsInvalidPort(t *testing.T) {
	_, err := execute(t, "serve", "--port", "70000")
	assert.Error(t, err)
}

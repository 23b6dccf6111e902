// Package version reports the docmerge build: values stamped with -ldflags,
// falling back to the VCS settings Go embeds in the binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Set at build time with
//
//	-ldflags "-X github.com/conneroisu/docmerge/internal/version.Version=v1.2.3 ..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	// BuildTime is RFC3339.
	BuildTime = "unknown"
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit"`
	BuildTime time.Time `json:"build_time,omitempty"`
	Dirty     bool      `json:"dirty,omitempty"`
	GoVersion string    `json:"go_version"`
	Platform  string    `json:"platform"`
}

var (
	infoOnce sync.Once
	info     BuildInfo
)

// Get returns the build information of the running binary.
func Get() BuildInfo {
	infoOnce.Do(func() {
		info = resolve(Version, GitCommit, BuildTime, readVCS())
	})
	return info
}

type vcsSettings struct {
	moduleVersion string
	revision      string
	time          string
	modified      bool
}

func readVCS() vcsSettings {
	var vcs vcsSettings
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return vcs
	}
	vcs.moduleVersion = bi.Main.Version
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			vcs.revision = s.Value
		case "vcs.time":
			vcs.time = s.Value
		case "vcs.modified":
			vcs.modified = s.Value == "true"
		}
	}
	return vcs
}

// resolve prefers stamped values and fills the rest from vcs.
func resolve(version, commit, buildTime string, vcs vcsSettings) BuildInfo {
	bi := BuildInfo{
		Version:   version,
		GitCommit: commit,
		Dirty:     vcs.modified,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi.GitCommit == "" || bi.GitCommit == "unknown" {
		bi.GitCommit = "unknown"
		if vcs.revision != "" {
			bi.GitCommit = vcs.revision
		}
	}

	if bi.Version == "" || bi.Version == "dev" {
		switch {
		case vcs.moduleVersion != "" && vcs.moduleVersion != "(devel)":
			bi.Version = vcs.moduleVersion
		case len(vcs.revision) >= 7:
			bi.Version = "dev-" + vcs.revision[:7]
		default:
			bi.Version = "dev"
		}
	}

	if t, err := time.Parse(time.RFC3339, buildTime); err == nil {
		bi.BuildTime = t
	} else if t, err := time.Parse(time.RFC3339, vcs.time); err == nil {
		bi.BuildTime = t
	}

	return bi
}

// Short returns "version (commit)" or just the version.
func (b BuildInfo) Short() string {
	if b.GitCommit != "unknown" && len(b.GitCommit) >= 7 && !strings.HasPrefix(b.Version, "dev-") {
		return fmt.Sprintf("%s (%s)", b.Version, b.GitCommit[:7])
	}
	return b.Version
}

// String returns a multi-line description of the build.
func (b BuildInfo) String() string {
	lines := []string{"Version: " + b.Version}
	if b.GitCommit != "unknown" {
		commit := "Commit: " + b.GitCommit
		if b.Dirty {
			commit += " (dirty)"
		}
		lines = append(lines, commit)
	}
	if !b.BuildTime.IsZero() {
		lines = append(lines, "Built: "+b.BuildTime.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+b.GoVersion, "Platform: "+b.Platform)
	return strings.Join(lines, "\n")
}

// IsRelease reports whether the build carries a real version.
func (b BuildInfo) IsRelease() bool {
	return b.Version != "dev" && !strings.HasPrefix(b.Version, "dev-")
}

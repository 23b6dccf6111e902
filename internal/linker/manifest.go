package linker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Manifest is the top-level make file: the homepage and the projects in
// precedence order.
type Manifest struct {
	Homepage string   `json:"homepage,omitempty" yaml:"homepage,omitempty" toml:"homepage,omitempty"`
	Projects []string `json:"projects" yaml:"projects" toml:"projects"`
}

// ProjectConfig is a project's config file.
type ProjectConfig struct {
	PageOrder []string `json:"pageOrder" yaml:"pageOrder" toml:"pageOrder"`
}

// ProjectConfigNames are tried in order inside each project directory.
var ProjectConfigNames = []string{"config.json", "config.yml", "config.yaml", "config.toml"}

// decodeFile unmarshals data into v by file extension: YAML for .yml and
// .yaml, TOML for .toml, JSON otherwise.
func decodeFile(path string, data []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return yaml.Unmarshal(data, v)
	case ".toml":
		return toml.Unmarshal(data, v)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		return dec.Decode(v)
	}
}

// validate checks the manifest for an empty or repeated project list.
func (m *Manifest) validate() error {
	if len(m.Projects) == 0 {
		return fmt.Errorf("manifest lists no projects")
	}
	seen := make(map[string]struct{}, len(m.Projects))
	for _, p := range m.Projects {
		if err := validateIdentifier(p); err != nil {
			return fmt.Errorf("project %q: %w", p, err)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("project %q is listed more than once", p)
		}
		seen[p] = struct{}{}
	}
	return nil
}

// validateIdentifier rejects project and page identifiers that would escape
// the source root once joined into a path.
func validateIdentifier(id string) error {
	if id == "" {
		return fmt.Errorf("empty identifier")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("identifier must be a plain file name")
	}
	return nil
}

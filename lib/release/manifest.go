// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
)

// ManifestFileName is the optional per-project manifest at the clone
// root. Projects use it to pin the tooling directory and restrict
// which environments may be deployed from chat.
const ManifestFileName = ".lanebot.jsonc"

// Manifest is the parsed per-project manifest. Authored as JSONC so
// projects can annotate entries with comments.
type Manifest struct {
	// ToolingDir is the fastlane parent directory relative to the
	// clone root. When set, the locator search is skipped entirely.
	ToolingDir string `json:"tooling_dir"`

	// Environments is the deploy allowlist. Empty means any
	// environment is accepted.
	Environments []string `json:"environments"`

	// SkipInstall disables the dependency install step for projects
	// that vendor their tooling dependencies.
	SkipInstall bool `json:"skip_install"`
}

// LoadManifest reads and parses the manifest at the clone root.
// Returns (nil, nil) when the project has no manifest — that is the
// common case, not an error.
func LoadManifest(root string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(root, ManifestFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ManifestFileName, err)
	}

	var manifest Manifest
	if err := json.Unmarshal(jsonc.ToJSON(data), &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFileName, err)
	}

	if strings.HasPrefix(manifest.ToolingDir, "/") || strings.Contains(manifest.ToolingDir, "..") {
		return nil, fmt.Errorf("%s: tooling_dir must be a relative path inside the clone", ManifestFileName)
	}
	return &manifest, nil
}

// AllowsEnvironment reports whether a deploy targeting environment is
// permitted. A nil manifest or an empty allowlist permits everything.
func (m *Manifest) AllowsEnvironment(environment string) bool {
	if m == nil || len(m.Environments) == 0 {
		return true
	}
	return slices.Contains(m.Environments, environment)
}

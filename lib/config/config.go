// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for lanebot binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - the LANEBOT_CONFIG environment variable, or
//   - the --config flag passed to the command.
//
// There are no fallbacks or automatic discovery. This keeps the
// configuration deterministic and auditable: what the file says is
// what runs, with no hidden overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lanebot/lanebot/lib/ref"
)

// EnvConfigPath is the environment variable naming the config file.
const EnvConfigPath = "LANEBOT_CONFIG"

// Config is the master configuration for lanebot.
type Config struct {
	// Homeserver is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.example.org").
	Homeserver string `yaml:"homeserver"`

	// UserID is the bot's fully-qualified Matrix user ID.
	UserID ref.UserID `yaml:"user_id"`

	// TokenFile is the path to a file containing the bot's access
	// token. The token lives in a file, not in the config itself, so
	// the config can be committed and the credential provisioned
	// separately.
	TokenFile string `yaml:"token_file"`

	// Room is the alias of the operations room the service watches
	// for release commands.
	Room ref.RoomAlias `yaml:"room"`

	// CommandPrefix is the leading word that marks a room message as
	// a lanebot command. Defaults to "!lane".
	CommandPrefix string `yaml:"command_prefix"`

	// ReposRoot is the directory holding one clone per project.
	ReposRoot string `yaml:"repos_root"`

	// Storage holds the object-storage credentials handed to the
	// release tool via its child process environment.
	Storage StorageConfig `yaml:"storage"`

	// Projects maps project names to clone URLs. Names are
	// lower-cased at load time; lookups are case-insensitive.
	Projects map[string]string `yaml:"projects"`
}

// StorageConfig holds object-storage credentials. The release tool
// reads these from its environment (S3_KEY, S3_SECRET, S3_BUCKET,
// S3_REGION); lanebot passes them as a per-invocation overlay and
// never exports them into its own process environment.
type StorageConfig struct {
	Key    string `yaml:"key"`
	Secret string `yaml:"secret"`
	Bucket string `yaml:"bucket"`
	Region string `yaml:"region"`
}

// EnvOverlay returns the storage credentials as "KEY=value" pairs for
// a child process environment overlay.
func (s StorageConfig) EnvOverlay() []string {
	return []string{
		"S3_KEY=" + s.Key,
		"S3_SECRET=" + s.Secret,
		"S3_BUCKET=" + s.Bucket,
		"S3_REGION=" + s.Region,
	}
}

// ErrUnknownProject reports a project name with no registry entry.
type ErrUnknownProject struct {
	Name string
}

func (e *ErrUnknownProject) Error() string {
	return fmt.Sprintf("unknown project %q", e.Name)
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := loaded.normalize(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := loaded.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &loaded, nil
}

// Locate returns the config file path from the LANEBOT_CONFIG
// environment variable, or flagValue when the variable is unset. The
// flag wins when both are set — an explicit flag is more specific than
// ambient environment.
func Locate(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if fromEnv := os.Getenv(EnvConfigPath); fromEnv != "" {
		return fromEnv, nil
	}
	return "", fmt.Errorf("no config file: set %s or pass --config", EnvConfigPath)
}

// normalize lower-cases project names. Two names that collide after
// lowering are a configuration error, not a silent overwrite.
func (c *Config) normalize() error {
	if c.CommandPrefix == "" {
		c.CommandPrefix = "!lane"
	}

	normalized := make(map[string]string, len(c.Projects))
	for name, url := range c.Projects {
		lowered := strings.ToLower(name)
		if _, exists := normalized[lowered]; exists {
			return fmt.Errorf("project names %q collide after lower-casing", lowered)
		}
		normalized[lowered] = url
	}
	c.Projects = normalized
	return nil
}

func (c *Config) validate() error {
	if c.Homeserver == "" {
		return fmt.Errorf("homeserver is required")
	}
	if c.UserID.IsZero() {
		return fmt.Errorf("user_id is required")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("token_file is required")
	}
	if c.Room.IsZero() {
		return fmt.Errorf("room is required")
	}
	if c.ReposRoot == "" {
		return fmt.Errorf("repos_root is required")
	}
	if len(c.Projects) == 0 {
		return fmt.Errorf("at least one project is required")
	}
	for name, url := range c.Projects {
		if url == "" {
			return fmt.Errorf("project %q has an empty clone URL", name)
		}
	}
	return nil
}

// CloneURL returns the clone URL for a project, case-insensitively.
func (c *Config) CloneURL(projectName string) (string, error) {
	url, found := c.Projects[strings.ToLower(projectName)]
	if !found {
		return "", &ErrUnknownProject{Name: projectName}
	}
	return url, nil
}

// ProjectRoot returns the on-disk clone directory for a project:
// repos_root joined with the lower-cased project name. The project
// must exist in the registry.
func (c *Config) ProjectRoot(projectName string) (string, error) {
	lowered := strings.ToLower(projectName)
	if _, found := c.Projects[lowered]; !found {
		return "", &ErrUnknownProject{Name: projectName}
	}
	return filepath.Join(c.ReposRoot, lowered), nil
}

// ReadToken reads the access token from the configured token file.
// Surrounding whitespace is trimmed; an empty file is an error.
func (c *Config) ReadToken() (string, error) {
	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		return "", fmt.Errorf("reading access token from %s: %w", c.TokenFile, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("access token file %s is empty", c.TokenFile)
	}
	return token, nil
}

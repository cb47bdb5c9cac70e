// Package config loads the optional gee configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file name inside the .gee directory.
	FileName = "config.yaml"

	DefaultUpstreamRemote = "upstream"
	DefaultOriginRemote   = "origin"
	DefaultMaxChainDepth  = 500
	DefaultGUIMergeTool   = "meld"

	currentVersion = "1"
)

// Config represents the gee configuration.
// Every field is optional; ApplyDefaults fills the gaps.
type Config struct {
	Version string `yaml:"version,omitempty"`

	// Main is the integration branch. Empty means "the branch of the main worktree".
	Main string `yaml:"main,omitempty"`

	UpstreamRemote string `yaml:"upstream_remote,omitempty"`
	OriginRemote   string `yaml:"origin_remote,omitempty"`

	// UpstreamRepo is the owner/name of the upstream repository on the hosting
	// service, used for the open pull request check.
	UpstreamRepo string `yaml:"upstream_repo,omitempty"`
	GitHubUser   string `yaml:"github_user,omitempty"`

	GUIMergeTool   string `yaml:"gui_merge_tool,omitempty"`
	NonInteractive bool   `yaml:"non_interactive,omitempty"`
	MaxChainDepth  int    `yaml:"max_chain_depth,omitempty"`
}

// NewConfig creates a config with default values
func NewConfig() *Config {
	c := &Config{}
	c.ApplyDefaults()
	return c
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	if c.Version == "" {
		c.Version = currentVersion
	}
	if c.UpstreamRemote == "" {
		c.UpstreamRemote = DefaultUpstreamRemote
	}
	if c.OriginRemote == "" {
		c.OriginRemote = DefaultOriginRemote
	}
	if c.MaxChainDepth <= 0 {
		c.MaxChainDepth = DefaultMaxChainDepth
	}
	if c.GUIMergeTool == "" {
		c.GUIMergeTool = DefaultGUIMergeTool
	}
}

// Path returns the config location for a gee repository directory.
func Path(repoDir string) string {
	return filepath.Join(repoDir, ".gee", FileName)
}

// Load reads the config from the specified path.
// A missing file is not an error: the defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.ApplyDefaults()

	return &config, nil
}

// Save writes the config to the specified path
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

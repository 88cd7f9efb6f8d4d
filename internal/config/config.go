// Package config loads the pscompat command line configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "PSCOMPAT_CONFIG"

// Config is the top-level configuration.
type Config struct {
	// ProfileDir is the directory holding profile files.
	ProfileDir string `yaml:"profile_dir"`
	// UnionExclude matches the names of union files in ProfileDir.
	UnionExclude string `yaml:"union_exclude"`
	// Catalog is the SQLite catalog path. Empty disables the catalog.
	Catalog  string `yaml:"catalog"`
	LogLevel string `yaml:"log_level"`
	// CheckScripts is a directory of check scripts replacing the built-in
	// ones.
	CheckScripts string `yaml:"check_scripts"`
	Workers      int    `yaml:"workers"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Load finds and reads the configuration. An explicit path must exist. With
// no path, $PSCOMPAT_CONFIG is tried, then pscompat/config.yaml under the
// user config directory; a missing file there yields Default.
func Load(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := LoadFile(explicit)
		return cfg, explicit, err
	}
	if env := os.Getenv(EnvVar); env != "" {
		cfg, err := LoadFile(env)
		return cfg, env, err
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return Default(), "", nil
	}
	path := filepath.Join(dir, "pscompat", "config.yaml")
	cfg, err := LoadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), "", nil
	}
	return cfg, path, err
}

func (c *Config) applyDefaults() {
	if c.ProfileDir == "" {
		c.ProfileDir = "profiles"
	}
	if c.UnionExclude == "" {
		c.UnionExclude = "union_*.json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
}

func (c *Config) validate() error {
	if !doublestar.ValidatePattern(c.UnionExclude) {
		return fmt.Errorf("union_exclude: invalid pattern %q", c.UnionExclude)
	}
	return nil
}

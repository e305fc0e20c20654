// Package config handles the engine's TOML configuration: the list of
// registered root paths plus one settings group per root.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"fsidx/internal/pathutil"
)

// FileName is the default configuration file name.
const FileName = "config.toml"

// Rule holds the persisted per-root settings group.
type Rule struct {
	NameFilters         []string `toml:"name_filters"`
	MimeFilters         []string `toml:"mime_filters"`
	IndexHidden         bool     `toml:"index_hidden"`
	FollowSymlinks      bool     `toml:"follow_symlinks"`
	MaxDepth            int      `toml:"max_depth"`
	ScanIntervalMinutes int      `toml:"scan_interval_minutes"`
	WatchFilesystem     bool     `toml:"watch_filesystem"`
}

// Config is the engine configuration document.
type Config struct {
	Roots []string        `toml:"roots"`
	Rules map[string]Rule `toml:"rules"`
}

// DefaultRule returns the settings applied to a freshly added root.
func DefaultRule() Rule {
	return Rule{
		NameFilters:         []string{".DS_Store"},
		MimeFilters:         []string{"inode/directory", "application/*"},
		MaxDepth:            100,
		ScanIntervalMinutes: 15,
	}
}

// Default returns an empty configuration.
func Default() Config {
	return Config{Rules: make(map[string]Rule)}
}

// RuleFor returns the settings group for a root, falling back to the
// defaults when none is stored.
func (c *Config) RuleFor(root string) Rule {
	if r, ok := c.Rules[pathutil.Normalize(root)]; ok {
		return r
	}
	return DefaultRule()
}

// AddRoot registers a root with default settings. It returns false
// when the root is already present.
func (c *Config) AddRoot(root string) bool {
	root = pathutil.Normalize(root)
	for _, r := range c.Roots {
		if r == root {
			return false
		}
	}
	c.Roots = append(c.Roots, root)
	if c.Rules == nil {
		c.Rules = make(map[string]Rule)
	}
	if _, ok := c.Rules[root]; !ok {
		c.Rules[root] = DefaultRule()
	}
	return true
}

// RemoveRoot drops a root and its settings group. It returns false
// when the root was not registered.
func (c *Config) RemoveRoot(root string) bool {
	root = pathutil.Normalize(root)
	for i, r := range c.Roots {
		if r == root {
			c.Roots = append(c.Roots[:i], c.Roots[i+1:]...)
			delete(c.Rules, root)
			return true
		}
	}
	return false
}

// Load reads the configuration. A missing file yields the defaults; a
// malformed file is an error since the config is user-authored.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Rules == nil {
		cfg.Rules = make(map[string]Rule)
	}
	return cfg, nil
}

// Save writes the configuration atomically via a temp file and rename.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close config: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

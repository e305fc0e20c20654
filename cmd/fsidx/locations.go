package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"fsidx/internal/config"
	"fsidx/internal/index"
	"fsidx/internal/logging"
	"fsidx/internal/persist"
)

var (
	flagConfig   string
	flagCacheDir string
	flagWorkers  int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.toml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagCacheDir, "cache-dir", "", "directory for the index snapshot and search database (default: user cache dir)")
	rootCmd.PersistentFlags().IntVar(&flagWorkers, "workers", runtime.NumCPU(), "number of scan workers")
}

const appDir = "fsidx"

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appDir, config.FileName)
}

func cachePath() string {
	if flagCacheDir != "" {
		return flagCacheDir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, appDir)
}

func snapshotPath() string {
	return filepath.Join(cachePath(), persist.SnapshotName)
}

func storePath() string {
	return filepath.Join(cachePath(), "index.db")
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildIndex assembles an Index from the configured roots, seeding each
// rule's entry set from the persisted snapshot so queries work before
// the first scan completes.
func buildIndex(cfg config.Config) *index.Index {
	ix := index.New(flagWorkers)
	doc := persist.Load(snapshotPath())
	for _, root := range cfg.Roots {
		rule := index.NewPathRule(root)
		applyRule(rule, cfg.RuleFor(root))
		persist.Seed(doc, rule)
		if !ix.AddPath(rule) {
			logging.Warn("duplicate root %s in config, ignoring", root)
		}
	}
	return ix
}

func applyRule(rule *index.PathRule, rc config.Rule) {
	rule.MaxDepth = rc.MaxDepth
	rule.IndexHidden = rc.IndexHidden
	rule.FollowSymlinks = rc.FollowSymlinks
	rule.NameFilters = rc.NameFilters
	rule.MimeFilters = rc.MimeFilters
	rule.WatchFilesystem = rc.WatchFilesystem
	rule.ScanIntervalMinutes = rc.ScanIntervalMinutes
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"fsidx/internal/config"
	"fsidx/internal/persist"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Manage the indexed root paths",
}

var pathsAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Add a root path to the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runPathsAdd,
}

var pathsRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove a root path from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runPathsRemove,
}

var pathsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the indexed root paths and their rules",
	RunE:  runPathsList,
}

func init() {
	pathsCmd.AddCommand(pathsAddCmd)
	pathsCmd.AddCommand(pathsRemoveCmd)
	pathsCmd.AddCommand(pathsListCmd)
}

func runPathsAdd(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AddRoot(root) {
		return fmt.Errorf("%s is already indexed", root)
	}
	if err := config.Save(configPath(), cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Added %s\n", root)
	return nil
}

func runPathsRemove(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.RemoveRoot(root) {
		return fmt.Errorf("%s is not indexed", root)
	}
	if err := config.Save(configPath(), cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("Removed %s\n", root)
	return nil
}

func runPathsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Roots) == 0 {
		fmt.Println("No roots configured.")
		return nil
	}

	doc := persist.Load(snapshotPath())
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tDEPTH\tHIDDEN\tSYMLINKS\tWATCH\tINTERVAL\tCACHED")
	for _, root := range cfg.Roots {
		rc := cfg.RuleFor(root)
		cached := "-"
		if sub, ok := doc[root]; ok {
			cached = fmt.Sprintf("%d entries, %s",
				len(sub.Entries), sub.ScannedAt.Format(time.DateTime))
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%v\t%v\t%dm\t%s\n",
			root, rc.MaxDepth, rc.IndexHidden, rc.FollowSymlinks,
			rc.WatchFilesystem, rc.ScanIntervalMinutes, cached)
	}
	return w.Flush()
}

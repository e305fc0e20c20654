package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fsidx",
	Short: "A filesystem indexing engine for search launchers",
	Long: `fsidx scans configured root paths under per-root constraints
(depth, hidden files, symlinks, name and MIME filters), keeps a merged
deduplicated index of matching entries, and maintains a SQLite search
index for fast name lookups. The index persists across restarts and
stays fresh via periodic rescans and filesystem watches.`,
}

func init() {
	rootCmd.Version = version
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tuiCmd)
}

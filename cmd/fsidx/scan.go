package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fsidx/internal/logging"
	"fsidx/internal/persist"
	"fsidx/internal/store"
)

const timeRounding = 10 * time.Millisecond

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the configured roots once and exit",
	Long: `Scan walks every configured root under its rule settings, writes the
result to the search database and the snapshot file, and prints a short
summary. Interrupting an in-progress scan discards its partial result
and leaves the previous index untouched.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Roots) == 0 {
		return fmt.Errorf("no roots configured, add one with 'fsidx paths add'")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ix := buildIndex(cfg)
	defer ix.Close()

	ix.Update()

	select {
	case <-ctx.Done():
		return fmt.Errorf("scan interrupted")
	case gen := <-ix.Updates():
		st, err := store.Open(storePath())
		if err != nil {
			return fmt.Errorf("open search index: %w", err)
		}
		defer st.Close()
		if err := st.Replace(gen.Seq, gen.Finished, gen.Entries); err != nil {
			return fmt.Errorf("update search index: %w", err)
		}
		if err := persist.Save(snapshotPath(), persist.Serialize(ix)); err != nil {
			logging.Warn("persist snapshot: %v", err)
		}
		fmt.Printf("Indexed %s entries from %d roots in %s\n",
			humanize.Comma(int64(len(gen.Entries))), len(cfg.Roots),
			gen.Took.Round(timeRounding))
	}
	return nil
}

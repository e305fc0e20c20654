package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"fsidx/internal/entry"
	"fsidx/internal/index"
	"fsidx/internal/logging"
	"fsidx/internal/persist"
	"fsidx/internal/store"
	"fsidx/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the indexing engine until interrupted",
	Long: `Serve scans the configured roots, then keeps the index fresh with
periodic rescans and, for roots with watch_filesystem enabled, debounced
filesystem notifications. Every completed scan is written to the search
database and the snapshot file. Ctrl-C shuts down cleanly.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
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

	st, err := store.Open(storePath())
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer st.Close()

	var mon *watch.Monitor
	if hasWatchedRoots(ix) {
		mon, err = watch.NewMonitor(watch.DefaultDebounce, ix.Update)
		if err != nil {
			logging.Warn("filesystem watching unavailable, relying on periodic rescans: %v", err)
		} else {
			defer mon.Close()
			mon.SetPaths(watchTargets(ix))
			mon.Start(ctx)
		}
	}

	ix.StartPeriodic(ctx)
	ix.Update()
	logging.Info("serving, %s", ix.Status())

	for {
		select {
		case <-ctx.Done():
			logging.Info("shutting down")
			if err := persist.Save(snapshotPath(), persist.Serialize(ix)); err != nil {
				logging.Warn("persist snapshot: %v", err)
			}
			return nil
		case gen := <-ix.Updates():
			logging.Info("scan %d finished, %d entries in %s",
				gen.Seq, len(gen.Entries), gen.Took.Round(timeRounding))
			if err := st.Replace(gen.Seq, gen.Finished, gen.Entries); err != nil {
				logging.Error("update search index: %v", err)
			}
			if err := persist.Save(snapshotPath(), persist.Serialize(ix)); err != nil {
				logging.Warn("persist snapshot: %v", err)
			}
			if mon != nil {
				mon.SetPaths(watchTargets(ix))
			}
		}
	}
}

func hasWatchedRoots(ix *index.Index) bool {
	for _, snap := range ix.Snapshot() {
		if snap.WatchFilesystem {
			return true
		}
	}
	return false
}

// watchTargets lists the directories to register with the change
// monitor: each watched root plus every indexed directory beneath it.
// Watches are not recursive, so interior directories need their own
// registration.
func watchTargets(ix *index.Index) []string {
	var targets []string
	for root, snap := range ix.Snapshot() {
		if !snap.WatchFilesystem {
			continue
		}
		targets = append(targets, root)
		for _, e := range snap.Entries {
			if e.Kind == entry.KindDir {
				targets = append(targets, e.Path)
			}
		}
	}
	return targets
}

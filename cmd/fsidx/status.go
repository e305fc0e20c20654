package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"fsidx/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the search index",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storePath())
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer st.Close()

	meta, err := st.ReadMeta()
	if err != nil {
		return fmt.Errorf("read index metadata: %w", err)
	}
	if meta.Generation == 0 {
		fmt.Println("Index is empty. Run 'fsidx scan' to build it.")
		return nil
	}

	fmt.Printf("%s entries indexed\n", humanize.Comma(meta.EntryCount))
	fmt.Printf("Generation %d, finished %s (%s)\n",
		meta.Generation,
		meta.Finished.Format(time.DateTime),
		humanize.Time(meta.Finished))
	return nil
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fsidx/internal/entry"
	"fsidx/internal/store"
)

var (
	queryMime  string
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query [term]",
	Short: "Search the index by name or MIME type",
	Long: `Query matches indexed entries whose name contains the given term,
case-insensitively. With --mime the search matches MIME types instead;
a pattern like image/* matches the whole type family.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryMime, "mime", "", "match MIME type instead of name (supports type/*)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 50, "maximum number of results")
}

func runQuery(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storePath())
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer st.Close()

	var results []entry.Entry
	switch {
	case queryMime != "":
		results, err = st.QueryMime(queryMime, queryLimit)
	case len(args) == 1:
		results, err = st.QueryName(args[0], queryLimit)
	default:
		return fmt.Errorf("provide a search term or --mime")
	}
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tMIME\tPATH")
	for _, e := range results {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Kind, e.Mime, e.Path)
	}
	return w.Flush()
}

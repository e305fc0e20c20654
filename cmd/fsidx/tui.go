package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"fsidx/internal/store"
	"fsidx/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the index interactively",
	RunE:  runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storePath())
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	defer st.Close()

	p := tea.NewProgram(tui.New(st), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

package tui

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"fsidx/internal/entry"
	"fsidx/internal/store"
)

// SortColumn represents the current sort field.
type SortColumn int

const (
	SortByName SortColumn = iota
	SortByMime
	SortByPath
)

func (s SortColumn) String() string {
	switch s {
	case SortByMime:
		return "mime"
	case SortByPath:
		return "path"
	default:
		return "name"
	}
}

const loadLimit = 1000

// Model holds the TUI state.
type Model struct {
	store        *store.Store
	meta         store.Meta
	allEntries   []entry.Entry
	entries      []entry.Entry
	cursor       int
	sort         SortColumn
	width        int
	height       int
	filter       string
	filterActive bool
	err          error
}

// New creates a TUI model browsing the given search index.
func New(st *store.Store) *Model {
	return &Model{
		store: st,
		sort:  SortByName,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadInitialData
}

type dataLoadedMsg struct {
	meta    store.Meta
	entries []entry.Entry
	err     error
}

func (m *Model) loadInitialData() tea.Msg {
	meta, err := m.store.ReadMeta()
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	entries, err := m.store.QueryName("", loadLimit)
	if err != nil {
		return dataLoadedMsg{err: err}
	}

	return dataLoadedMsg{
		meta:    meta,
		entries: entries,
	}
}

func (m *Model) helpLine() string {
	if m.filterActive {
		return "Type to filter | Enter: apply | Esc: clear | q: quit"
	}
	return "↑/↓ move | n/t/p: sort | /: filter | r: reload | q: quit"
}

func (m *Model) setEntries(entries []entry.Entry) {
	m.allEntries = entries
	m.applyFilter()
}

func (m *Model) applyFilter() {
	if m.filter == "" {
		m.entries = m.allEntries
	} else {
		filtered := make([]entry.Entry, 0, len(m.allEntries))
		needle := strings.ToLower(m.filter)
		for _, e := range m.allEntries {
			if strings.Contains(strings.ToLower(e.Name), needle) {
				filtered = append(filtered, e)
			}
		}
		m.entries = filtered
	}
	m.applySort()
	m.cursor = 0
}

func (m *Model) applySort() {
	entries := m.entries
	switch m.sort {
	case SortByMime:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Mime < entries[j].Mime
		})
	case SortByPath:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Path < entries[j].Path
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
}

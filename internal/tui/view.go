package tui

import (
	"fmt"
	"strings"
	"time"

	"fsidx/internal/entry"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err)
	}

	if m.meta.Generation == 0 && len(m.allEntries) == 0 {
		return "Loading..."
	}

	var b strings.Builder
	headerLines := 0

	writeLine := func(line string) {
		b.WriteString(line)
		b.WriteString("\n")
		headerLines++
	}

	writeLine(titleStyle.Render("fsidx - Index Browser"))

	indexInfo := fmt.Sprintf("Generation: %d | Entries: %s | Finished: %s",
		m.meta.Generation,
		FormatCount(m.meta.EntryCount),
		m.meta.Finished.Format(time.DateTime),
	)
	writeLine(statsStyle.Render(indexInfo))

	status := fmt.Sprintf("Shown: %s | Sort: %s", FormatCount(int64(len(m.entries))), m.sort)
	if m.filter != "" {
		status += fmt.Sprintf(" | Filter: %q", m.filter)
	}
	writeLine(statusStyle.Render(status))

	if m.filterActive {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s_", m.filter)))
	} else if m.filter != "" {
		writeLine(filterStyle.Render(fmt.Sprintf("Filter: %s", m.filter)))
	}

	nameLabel := headerLabel("NAME", m.sort == SortByName)
	mimeLabel := headerLabel("MIME", m.sort == SortByMime)
	pathLabel := headerLabel("PATH", m.sort == SortByPath)

	footerLines := 3
	visibleRows := m.height - headerLines - footerLines
	if visibleRows < 5 {
		visibleRows = 5
	}

	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := min(len(m.entries), startIdx+visibleRows)

	nameWidth, mimeWidth := calcColumnWidths(m.entries, startIdx, endIdx, nameLabel, mimeLabel)
	pathWidth := m.width - nameWidth - mimeWidth - 2*colGap
	if pathWidth < minPathWidth {
		pathWidth = minPathWidth
	}
	gap := strings.Repeat(" ", colGap)

	header := fmt.Sprintf("%-*s%s%-*s%s%s",
		nameWidth, nameLabel,
		gap,
		mimeWidth, mimeLabel,
		gap,
		truncateRight(pathLabel, pathWidth),
	)
	writeLine(headerStyle.Render(header))

	for i := startIdx; i < endIdx; i++ {
		b.WriteString(m.formatEntry(m.entries[i], i == m.cursor, nameWidth, mimeWidth, pathWidth))
		b.WriteString("\n")
	}

	displayedRows := min(len(m.entries)-startIdx, visibleRows)
	for i := displayedRows; i < visibleRows; i++ {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(m.entries) > 0 && m.cursor < len(m.entries) {
		sel := m.entries[m.cursor]
		b.WriteString(statsStyle.Render(truncateMiddle(sel.Path, max(10, m.width-2))))
		b.WriteString("\n")
	}
	help := m.helpLine()
	if len(m.entries) > 0 {
		help = fmt.Sprintf("%s [%d/%d]", help, m.cursor+1, len(m.entries))
	}
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

const (
	colGap       = 2
	minNameWidth = 10
	minPathWidth = 10
	maxNameWidth = 40
	maxMimeWidth = 30
)

func calcColumnWidths(entries []entry.Entry, startIdx, endIdx int, nameLabel, mimeLabel string) (int, int) {
	nameWidth := len(nameLabel)
	mimeWidth := len(mimeLabel)
	for i := startIdx; i < endIdx; i++ {
		e := entries[i]
		if n := len(displayName(e)); n > nameWidth {
			nameWidth = n
		}
		if n := len(e.Mime); n > mimeWidth {
			mimeWidth = n
		}
	}
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}
	if mimeWidth > maxMimeWidth {
		mimeWidth = maxMimeWidth
	}
	return nameWidth, mimeWidth
}

func displayName(e entry.Entry) string {
	if e.Kind == entry.KindDir {
		return e.Name + "/"
	}
	return e.Name
}

func (m *Model) formatEntry(e entry.Entry, selected bool, nameWidth, mimeWidth, pathWidth int) string {
	rawName := truncateRight(displayName(e), nameWidth)
	var styledName string
	if e.Kind == entry.KindDir {
		styledName = dirStyle.Render(rawName)
	} else {
		styledName = fileStyle.Render(rawName)
	}

	// Pad name to fixed width so the columns align despite styling.
	pad := nameWidth - len(rawName)
	if pad < 0 {
		pad = 0
	}
	paddedName := styledName + strings.Repeat(" ", pad)

	gap := strings.Repeat(" ", colGap)
	line := fmt.Sprintf("%s%s%-*s%s%s",
		paddedName,
		gap,
		mimeWidth, truncateRight(e.Mime, mimeWidth),
		gap,
		truncateMiddle(e.Path, pathWidth),
	)

	if selected {
		return selectedStyle.Render(line)
	}
	return line
}

func headerLabel(label string, active bool) string {
	if active {
		return label + "^"
	}
	return label
}

func truncateRight(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

func truncateMiddle(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	head := (maxLen - 3) / 2
	tail := maxLen - 3 - head
	return s[:head] + "..." + s[len(s)-tail:]
}

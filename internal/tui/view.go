package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/postit/internal/domain"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	errorColor  = lipgloss.Color("203")
	noteColor   = lipgloss.Color("212")
)

// View handles view.
func (m Model) View() tea.View {
	if !m.loaded {
		text := m.status
		if text == "" {
			text = "loading..."
		}
		text += "\n\npress r to retry • q quit\n"
		v := tea.NewView(text)
		v.AltScreen = true
		return v
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	header := titleStyle.Render("postit") + "  " + m.board.Name
	if m.boardLabel != "" {
		header += statusStyle.Render(" (" + m.boardLabel + ")")
	}
	mode := stateName(m.state)
	if _, ok := m.state.(browsingState); ok {
		mode = m.view.label()
	}
	header += statusStyle.Render("  [" + mode + "]")
	if m.svc.Dirty() {
		header += lipgloss.NewStyle().Foreground(errorColor).Render("  unsaved")
	}

	sections := []string{header, "", m.renderBody()}
	if detail := m.renderDetail(); detail != "" {
		sections = append(sections, detail)
	}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		style := statusStyle
		if m.statusErr {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		sections = append(sections, style.Render(m.status))
	}
	content := strings.Join(sections, "\n")
	helpLine := m.renderHelpLine()

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	full := content + "\n" + helpLine
	if overlay := m.renderOverlay(); overlay != "" {
		overlayHeight := lipgloss.Height(full)
		if m.height > 0 {
			overlayHeight = m.height
		}
		full = overlayOnContent(full, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(full)
	v.AltScreen = true
	return v
}

// renderHelpLine draws the short help under the board.
func (m Model) renderHelpLine() string {
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	var helpText string
	if _, ok := m.state.(formState); ok {
		helpText = helpBubble.View(m.formKeys)
	} else {
		helpText = helpBubble.View(m.keys)
	}
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpText)
}

// bodyRows is the line budget inside a column or list pane; 0 means unbounded.
func (m Model) bodyRows() int {
	if m.height <= 0 {
		return 0
	}
	// header, blank line, status
	used := 3 + lipgloss.Height(m.renderHelpLine())
	if detail := m.renderDetail(); detail != "" {
		used += lipgloss.Height(detail)
	}
	// pane border and title
	return max(3, m.height-used-3)
}

// renderColumns draws the columns side by side. Long columns show the rows
// around the cursor with more-above and more-below markers.
func (m Model) renderColumns() string {
	if len(m.board.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(mutedColor).Render("(no columns)")
	}
	colWidth := m.columnWidth()
	rows := m.bodyRows()
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedNoteStyle := lipgloss.NewStyle().Foreground(noteColor).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(mutedColor)
	moreStyle := lipgloss.NewStyle().Foreground(dimColor)
	fullStyle := lipgloss.NewStyle().Bold(true).Foreground(errorColor)

	views := make([]string, 0, len(m.board.Columns))
	for colIdx, col := range m.board.Columns {
		label := fmt.Sprintf("%s (%d)", col.Name, len(col.NoteIDs))
		titleStyle := colTitle
		if col.HasLimit() {
			label = fmt.Sprintf("%s (%d/%d)", col.Name, len(col.NoteIDs), col.WIPLimit)
			if col.AtCapacity() {
				titleStyle = fullStyle
			}
		}
		lines := []string{titleStyle.Render(label)}
		if len(col.NoteIDs) == 0 {
			lines = append(lines, emptyStyle.Render("(empty)"))
		}
		start, end := m.columnWindow(col.NoteIDs, m.scrollOffset(colIdx), rows)
		if start > 0 {
			lines = append(lines, moreStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
		}
		for noteIdx := start; noteIdx < end; noteIdx++ {
			note, ok := m.board.Note(col.NoteIDs[noteIdx])
			if !ok {
				continue
			}
			isSelected := colIdx == m.selectedColumn && noteIdx == m.selectedNote
			prefix := "  "
			if isSelected {
				prefix = "│ "
			}
			title := prefix + truncate(note.Title, max(1, colWidth-6))
			if isSelected {
				title = selectedNoteStyle.Render(title)
			}
			lines = append(lines, title)
			if sub := noteSecondary(note); sub != "" {
				lines = append(lines, prefix+subStyle.Render(truncate(sub, max(1, colWidth-6))))
			}
		}
		if end < len(col.NoteIDs) {
			lines = append(lines, moreStyle.Render(fmt.Sprintf("  ↓ %d more", len(col.NoteIDs)-end)))
		}
		style := paneStyle(colWidth, colIdx == m.selectedColumn)
		views = append(views, style.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, views...)
}

// noteSecondary is the muted line under a note title.
func noteSecondary(note domain.Note) string {
	parts := []string{}
	if due := note.DueText(); due != "" {
		parts = append(parts, "due "+due)
	}
	if tags := summarizeTags(note.Tags, 3); tags != "" {
		parts = append(parts, tags)
	}
	return strings.Join(parts, " ")
}

// renderDetail shows the selected note below the board.
func (m Model) renderDetail() string {
	if m.view == viewTimeline && m.timeline.pane == paneCalendar {
		return m.renderDayDetail()
	}
	note, ok := m.selectedNoteValue()
	if !ok {
		return ""
	}
	var col domain.Column
	if idx, found := m.board.ColumnOf(note.ID); found {
		col = m.board.Columns[idx]
	}
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render(note.Title),
		muted.Render(fmt.Sprintf("id %s • %s • updated %s", note.ID, col.Name, note.UpdatedAt.Local().Format("2006-01-02 15:04"))),
	}
	if m.detail.ShowDue && note.Due != nil {
		line := "due " + note.DueText()
		if note.Due.Before(time.Now()) {
			line = lipgloss.NewStyle().Foreground(errorColor).Render(line + " (overdue)")
		}
		lines = append(lines, line)
	}
	if m.detail.ShowTags && len(note.Tags) > 0 {
		lines = append(lines, summarizeTags(note.Tags, len(note.Tags)))
	}
	if m.detail.ShowBody && strings.TrimSpace(note.Body) != "" {
		body := note.Body
		if m.detail.RenderMarkdown && m.markdown != nil {
			body = m.markdown.render(note.Body, max(0, m.width-4))
		}
		lines = append(lines, "", body)
	}
	return lipgloss.NewStyle().
		BorderTop(true).
		BorderForeground(dimColor).
		Width(max(0, m.width)).
		Render(strings.Join(lines, "\n"))
}

// renderOverlay returns the modal for the current state, if any.
func (m Model) renderOverlay() string {
	switch st := m.state.(type) {
	case formState:
		return m.renderFormOverlay(st)
	case confirmDeleteState:
		return m.renderConfirmOverlay(st)
	}
	if m.showActivity {
		return m.renderActivityOverlay()
	}
	if m.help.ShowAll {
		return m.renderHelpOverlay()
	}
	return ""
}

func (m Model) renderFormOverlay(st formState) string {
	title := "New note"
	if st.kind == formEdit {
		title = "Edit note " + st.noteID
	} else if col, ok := m.board.Column(st.columnID); ok {
		title = "New note in " + col.Name
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(title),
		"",
		st.form.view(),
	}
	if st.err != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(errorColor).Render(st.err))
	}
	lines = append(lines, "", lipgloss.NewStyle().Foreground(mutedColor).Render("tab next • enter/ctrl+s save • esc cancel"))
	return modalStyle(m.formWidth()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderConfirmOverlay(st confirmDeleteState) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(errorColor).Render("Delete note?"),
		"",
		fmt.Sprintf("%s  %s", st.noteID, truncate(st.title, 48)),
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Render("y/enter delete • n/esc keep"),
	}
	return modalStyle(56).Render(strings.Join(lines, "\n"))
}

func (m Model) renderActivityOverlay() string {
	width := clamp(m.width-8, 48, 96)
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Activity"), ""}
	if len(m.activity) == 0 {
		lines = append(lines, muted.Render("no activity recorded yet"))
	}
	for _, event := range m.activity {
		stamp := event.OccurredAt.Local().Format("01-02 15:04")
		lines = append(lines, muted.Render(stamp)+"  "+truncate(event.Summary(), width-16))
	}
	lines = append(lines, "", muted.Render("esc or "+m.keys.activityLog.Help().Key+" to close"))
	return modalStyle(width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderHelpOverlay() string {
	width := clamp(m.width-8, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("postit help"),
		"",
		hb.View(m.keys),
		"",
		muted.Render("forms: tab/shift+tab fields • enter saves (newline in body) • ctrl+s save • esc cancel"),
		muted.Render("due dates use YYYY.MM.DD@hh:mm"),
		muted.Render("timeline: tab cycles undated, due and calendar • enter on a day jumps to its first note"),
		muted.Render("press ? or esc to close"),
	}
	return modalStyle(width).Render(strings.Join(lines, "\n"))
}

func modalStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(width)
}

// formWidth is the modal width used by note forms.
func (m Model) formWidth() int {
	if m.width <= 0 {
		return 64
	}
	return clamp(m.width-8, 40, 80)
}

// columnWidth splits the terminal width across columns.
func (m Model) columnWidth() int {
	n := max(1, len(m.board.Columns))
	w := 28
	if m.width > 0 {
		// border (2), padding (2), margin (1)
		const overhead = 5
		if candidate := (m.width - n*overhead) / n; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, 18, 42)
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay over base.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		return overlay + "\n\n" + base
	}
	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	canvas.Compose(lipgloss.NewLayer(base).X(0).Y(0).Z(0))
	centered := lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay)
	canvas.Compose(lipgloss.NewLayer(centered).X(0).Y(0).Z(10))
	return canvas.Render()
}

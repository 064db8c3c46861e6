package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/evanschultz/postit/internal/domain"
)

// untaggedLabel names the project bucket for notes without tags.
const untaggedLabel = "(untagged)"

// tagBucket is one project view group.
type tagBucket struct {
	tag   string
	notes []domain.Note
}

// dueDay returns the UTC calendar day of t.
func dueDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// compareTitle orders notes by title, then id.
func compareTitle(a, b domain.Note) int {
	if c := strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// timelineLists splits notes into dated (soonest first) and undated (oldest first).
func timelineLists(b domain.Board) (dated, undated []domain.Note) {
	for _, n := range b.Notes {
		if n.Due != nil {
			dated = append(dated, n)
		} else {
			undated = append(undated, n)
		}
	}
	slices.SortFunc(dated, func(a, b domain.Note) int {
		if c := a.Due.Compare(*b.Due); c != 0 {
			return c
		}
		return compareTitle(a, b)
	})
	slices.SortFunc(undated, func(a, b domain.Note) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareTitle(a, b)
	})
	return dated, undated
}

// notesDueOn returns the dated notes due on day, in due order.
func notesDueOn(dated []domain.Note, day time.Time) []domain.Note {
	day = dueDay(day)
	out := []domain.Note{}
	for _, n := range dated {
		if n.Due != nil && dueDay(*n.Due).Equal(day) {
			out = append(out, n)
		}
	}
	return out
}

// dueCounts counts dated notes per day.
func dueCounts(dated []domain.Note) map[time.Time]int {
	counts := map[time.Time]int{}
	for _, n := range dated {
		if n.Due != nil {
			counts[dueDay(*n.Due)]++
		}
	}
	return counts
}

// projectBuckets groups notes by tag. A note with several tags appears in each
// bucket; untagged notes share a final bucket.
func projectBuckets(b domain.Board) []tagBucket {
	byTag := map[string][]domain.Note{}
	var untagged []domain.Note
	for _, n := range b.Notes {
		if len(n.Tags) == 0 {
			untagged = append(untagged, n)
			continue
		}
		for _, tag := range n.Tags {
			byTag[tag] = append(byTag[tag], n)
		}
	}
	byUpdated := func(a, b domain.Note) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return compareTitle(a, b)
	}
	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	out := make([]tagBucket, 0, len(tags)+1)
	for _, tag := range tags {
		notes := byTag[tag]
		slices.SortFunc(notes, byUpdated)
		out = append(out, tagBucket{tag: tag, notes: notes})
	}
	if len(untagged) > 0 {
		slices.SortFunc(untagged, byUpdated)
		out = append(out, tagBucket{tag: untaggedLabel, notes: untagged})
	}
	return out
}

func noteAt(notes []domain.Note, idx int) (domain.Note, bool) {
	if idx < 0 || idx >= len(notes) {
		return domain.Note{}, false
	}
	return notes[idx], true
}

func indexOfNote(notes []domain.Note, id string) int {
	return slices.IndexFunc(notes, func(n domain.Note) bool { return n.ID == id })
}

// setView switches the browsing layout.
func (m Model) setView(v viewMode) (tea.Model, tea.Cmd) {
	m.view = v
	m.clampSelection()
	m.setStatus(v.label() + " view")
	return m, nil
}

// timelineNote returns the note under the timeline cursor. The calendar has none.
func (m Model) timelineNote() (domain.Note, bool) {
	dated, undated := timelineLists(m.board)
	switch m.timeline.pane {
	case paneDated:
		return noteAt(dated, m.timeline.dated)
	case paneUndated:
		return noteAt(undated, m.timeline.undated)
	default:
		return domain.Note{}, false
	}
}

// projectNote returns the note under the project cursor. The tag pane has none.
func (m Model) projectNote() (domain.Note, bool) {
	if !m.project.onNotes {
		return domain.Note{}, false
	}
	buckets := projectBuckets(m.board)
	if m.project.tag < 0 || m.project.tag >= len(buckets) {
		return domain.Note{}, false
	}
	return noteAt(buckets[m.project.tag].notes, m.project.note)
}

// handleTimelineKey moves between and within the timeline panes.
func (m Model) handleTimelineKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	c := &m.timeline
	switch {
	case key.Matches(msg, m.keys.nextPane):
		c.nextPane()
	case key.Matches(msg, m.keys.prevPane):
		c.prevPane()
	case key.Matches(msg, m.keys.moveLeft):
		switch c.pane {
		case paneCalendar:
			c.day = c.day.AddDate(0, 0, -1)
		case paneDated:
			c.pane = paneUndated
		}
	case key.Matches(msg, m.keys.moveRight):
		if c.pane == paneCalendar {
			c.day = c.day.AddDate(0, 0, 1)
		} else {
			c.nextPane()
		}
	case key.Matches(msg, m.keys.moveUp):
		switch c.pane {
		case paneCalendar:
			c.day = c.day.AddDate(0, 0, -7)
		case paneDated:
			c.dated--
		default:
			c.undated--
		}
	case key.Matches(msg, m.keys.moveDown):
		switch c.pane {
		case paneCalendar:
			c.day = c.day.AddDate(0, 0, 7)
		case paneDated:
			c.dated++
		default:
			c.undated++
		}
	default:
		return m, nil
	}
	m.clampSelection()
	return m, nil
}

// jumpToDay focuses the first note due on the calendar day.
func (m Model) jumpToDay() (tea.Model, tea.Cmd) {
	dated, _ := timelineLists(m.board)
	label := m.timeline.day.Format("2006.01.02")
	due := notesDueOn(dated, m.timeline.day)
	if len(due) == 0 {
		m.setError(fmt.Errorf("nothing due on %s", label))
		return m, nil
	}
	m.timeline.pane = paneDated
	m.timeline.dated = indexOfNote(dated, due[0].ID)
	m.setStatus("notes due " + label)
	return m, nil
}

// handleProjectKey moves between the tag list and the notes of the chosen tag.
func (m Model) handleProjectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	c := &m.project
	switch {
	case key.Matches(msg, m.keys.nextPane), key.Matches(msg, m.keys.prevPane):
		c.onNotes = !c.onNotes
	case key.Matches(msg, m.keys.moveLeft):
		c.onNotes = false
	case key.Matches(msg, m.keys.moveRight):
		c.onNotes = true
	case key.Matches(msg, m.keys.moveUp):
		if c.onNotes {
			c.note--
		} else if c.tag > 0 {
			c.tag--
			c.note = 0
		}
	case key.Matches(msg, m.keys.moveDown):
		if c.onNotes {
			c.note++
		} else if c.tag < len(projectBuckets(m.board))-1 {
			c.tag++
			c.note = 0
		}
	default:
		return m, nil
	}
	m.clampSelection()
	return m, nil
}

// clampViews keeps the timeline and project cursors inside their lists.
func (m *Model) clampViews() {
	dated, undated := timelineLists(m.board)
	m.timeline.dated = clamp(m.timeline.dated, 0, len(dated)-1)
	m.timeline.undated = clamp(m.timeline.undated, 0, len(undated)-1)
	if m.timeline.day.IsZero() && m.loaded {
		m.timeline.day = dueDay(time.Now())
		if len(dated) > 0 {
			m.timeline.day = dueDay(*dated[0].Due)
		}
	}

	buckets := projectBuckets(m.board)
	m.project.tag = clamp(m.project.tag, 0, len(buckets)-1)
	count := 0
	if m.project.tag < len(buckets) {
		count = len(buckets[m.project.tag].notes)
	}
	m.project.note = clamp(m.project.note, 0, count-1)
}

// focusInViews puts the timeline or project cursor on id after a change.
func (m *Model) focusInViews(id string) {
	switch m.view {
	case viewTimeline:
		if m.timeline.pane == paneCalendar {
			return
		}
		dated, undated := timelineLists(m.board)
		if idx := indexOfNote(dated, id); idx >= 0 {
			m.timeline.pane, m.timeline.dated = paneDated, idx
		} else if idx := indexOfNote(undated, id); idx >= 0 {
			m.timeline.pane, m.timeline.undated = paneUndated, idx
		}
	case viewProject:
		if !m.project.onNotes {
			return
		}
		buckets := projectBuckets(m.board)
		if m.project.tag < len(buckets) {
			if idx := indexOfNote(buckets[m.project.tag].notes, id); idx >= 0 {
				m.project.note = idx
				return
			}
		}
		for i, b := range buckets {
			if idx := indexOfNote(b.notes, id); idx >= 0 {
				m.project.tag, m.project.note = i, idx
				return
			}
		}
	}
}

// renderBody draws the active browsing layout.
func (m Model) renderBody() string {
	switch m.view {
	case viewTimeline:
		return m.renderTimeline()
	case viewProject:
		return m.renderProject()
	default:
		return m.renderColumns()
	}
}

func paneStyle(width int, focused bool) lipgloss.Style {
	border := dimColor
	if focused {
		border = accentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MarginRight(1).
		Width(width)
}

// listWindow picks the rows of a one-line-per-item list that keep selected on screen.
func listWindow(n, selected, rows int) (int, int) {
	if rows <= 0 || n <= rows {
		return 0, n
	}
	budget := max(1, rows-2)
	start := clamp(selected-budget/2, 0, n-budget)
	return start, min(n, start+budget)
}

// renderList draws a titled pane of one-line items.
func renderList(title string, items []string, selected int, focused bool, width, rows int) string {
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	if focused {
		titleStyle = titleStyle.Foreground(accentColor)
	}
	lines := []string{titleStyle.Render(fmt.Sprintf("%s (%d)", title, len(items)))}
	if len(items) == 0 {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Render("(none)"))
	}
	start, end := listWindow(len(items), selected, rows)
	if start > 0 {
		lines = append(lines, muted.Render(fmt.Sprintf("↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		text := truncate(items[i], max(1, width-6))
		switch {
		case i == selected && focused:
			text = lipgloss.NewStyle().Foreground(noteColor).Bold(true).Render("│ " + text)
		case i == selected:
			text = "│ " + text
		default:
			text = "  " + text
		}
		lines = append(lines, text)
	}
	if end < len(items) {
		lines = append(lines, muted.Render(fmt.Sprintf("↓ %d more", len(items)-end)))
	}
	return paneStyle(width, focused).Render(strings.Join(lines, "\n"))
}

// renderTimeline draws the undated and dated lists next to a month calendar.
func (m Model) renderTimeline() string {
	dated, undated := timelineLists(m.board)
	rows := m.bodyRows()
	width := m.timelineListWidth()

	undatedItems := make([]string, 0, len(undated))
	for _, n := range undated {
		undatedItems = append(undatedItems, n.Title)
	}
	datedItems := make([]string, 0, len(dated))
	for _, n := range dated {
		datedItems = append(datedItems, n.Due.UTC().Format("2006.01.02")+" "+n.Title)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderList("Undated", undatedItems, m.timeline.undated, m.timeline.pane == paneUndated, width, rows),
		renderList("Due", datedItems, m.timeline.dated, m.timeline.pane == paneDated, width, rows),
		m.renderCalendar(dated),
	)
}

// calendarWidth fits seven two-digit days with single spaces.
const calendarWidth = 26

func (m Model) timelineListWidth() int {
	if m.width <= 0 {
		return 28
	}
	// two list panes and the calendar, each with border, padding and margin
	return clamp((m.width-(calendarWidth+5)-10)/2, 18, 42)
}

// renderCalendar draws the month holding the cursor day. Days with notes due are highlighted.
func (m Model) renderCalendar(dated []domain.Note) string {
	focused := m.timeline.pane == paneCalendar
	day := m.timeline.day
	first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
	counts := dueCounts(dated)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(mutedColor)
	if focused {
		titleStyle = titleStyle.Foreground(accentColor)
	}
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	dueStyle := lipgloss.NewStyle().Foreground(noteColor).Bold(true)
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	if focused {
		cursorStyle = cursorStyle.Foreground(accentColor)
	}

	lines := []string{titleStyle.Render(first.Format("January 2006")), muted.Render("Mo Tu We Th Fr Sa Su")}
	cells := []string{}
	for range (int(first.Weekday()) + 6) % 7 {
		cells = append(cells, "  ")
	}
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		text := fmt.Sprintf("%2d", d.Day())
		switch {
		case d.Equal(day):
			text = cursorStyle.Render(text)
		case counts[d] > 0:
			text = dueStyle.Render(text)
		}
		cells = append(cells, text)
	}
	for i := 0; i < len(cells); i += 7 {
		lines = append(lines, strings.Join(cells[i:min(i+7, len(cells))], " "))
	}
	lines = append(lines, "", muted.Render(fmt.Sprintf("%d due %s", counts[day], day.Format("Jan 2"))))
	return paneStyle(calendarWidth, focused).Render(strings.Join(lines, "\n"))
}

// renderProject draws the tag list and the notes of the chosen tag.
func (m Model) renderProject() string {
	buckets := projectBuckets(m.board)
	rows := m.bodyRows()
	tagWidth := 24
	noteWidth := 48
	if m.width > 0 {
		noteWidth = clamp(m.width-(tagWidth+5)-5, 24, 80)
	}

	tagItems := make([]string, 0, len(buckets))
	for _, b := range buckets {
		tagItems = append(tagItems, fmt.Sprintf("%s (%d)", b.tag, len(b.notes)))
	}
	title := "Notes"
	noteItems := []string{}
	if m.project.tag < len(buckets) {
		bucket := buckets[m.project.tag]
		title = bucket.tag
		if bucket.tag != untaggedLabel {
			title = "#" + bucket.tag
		}
		for _, n := range bucket.notes {
			item := n.Title
			if due := n.DueText(); due != "" {
				item += "  due " + due
			}
			noteItems = append(noteItems, item)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		renderList("Tags", tagItems, m.project.tag, !m.project.onNotes, tagWidth, rows),
		renderList(title, noteItems, m.project.note, m.project.onNotes, noteWidth, rows),
	)
}

// renderDayDetail lists what is due on the calendar day.
func (m Model) renderDayDetail() string {
	dated, _ := timelineLists(m.board)
	due := notesDueOn(dated, m.timeline.day)
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	lines := []string{lipgloss.NewStyle().Bold(true).Render(m.timeline.day.Format("Monday, 2006.01.02"))}
	if len(due) == 0 {
		lines = append(lines, muted.Render("nothing due"))
	}
	for _, n := range due {
		lines = append(lines, fmt.Sprintf("%s  %s", muted.Render(n.Due.UTC().Format("15:04")), truncate(n.Title, max(8, m.width-10))))
	}
	lines = append(lines, muted.Render("enter jumps to the first note"))
	return lipgloss.NewStyle().
		BorderTop(true).
		BorderForeground(dimColor).
		Width(max(0, m.width)).
		Render(strings.Join(lines, "\n"))
}

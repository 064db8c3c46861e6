package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"

	"github.com/evanschultz/postit/internal/app"
	"github.com/evanschultz/postit/internal/domain"
)

const defaultActivityLimit = 50

// Service is the board controller surface the session drives.
type Service interface {
	Load(context.Context) (domain.Board, error)
	RecoverCorrupt(context.Context) (string, error)
	Board() domain.Board
	Dirty() bool
	Flush(context.Context) error
	AddNote(context.Context, app.AddNoteInput) (domain.Note, error)
	MoveNote(context.Context, string, domain.Direction) (domain.Column, error)
	EditNote(context.Context, app.EditNoteInput) (domain.Note, error)
	DeleteNote(context.Context, string) (domain.Note, error)
	RecentActivity(context.Context, int) ([]domain.ChangeEvent, error)
}

// Model is the bubbletea model for the interactive board.
type Model struct {
	svc Service
	ctx context.Context

	state  sessionState
	board  domain.Board
	loaded bool

	selectedColumn int
	selectedNote   int
	// scrollOffsets holds the first visible note index per column.
	scrollOffsets []int

	view     viewMode
	timeline timelineCursor
	project  projectCursor

	status    string
	statusErr bool

	width  int
	height int

	help     help.Model
	keys     keyMap
	formKeys formKeyMap

	detail     DetailConfig
	markdown   *markdownRenderer
	boardLabel string

	showActivity  bool
	activity      []domain.ChangeEvent
	activityLimit int

	copyText func(string) error
}

// boardLoadedMsg carries the result of a board load.
type boardLoadedMsg struct {
	board  domain.Board
	status string
	warn   bool
	err    error
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:           svc,
		ctx:           context.Background(),
		state:         browsingState{},
		status:        "loading...",
		help:          h,
		keys:          newKeyMap(),
		formKeys:      newFormKeyMap(),
		detail:        DefaultDetailConfig(),
		markdown:      &markdownRenderer{},
		activityLimit: defaultActivityLimit,
		copyText:      clipboard.WriteAll,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadBoard
}

// loadBoard loads the board, moving an unreadable document aside when needed.
func (m Model) loadBoard() tea.Msg {
	board, err := m.svc.Load(m.ctx)
	if err == nil {
		return boardLoadedMsg{board: board}
	}
	if !errors.Is(err, app.ErrCorruptDocument) {
		return boardLoadedMsg{err: err}
	}
	moved, rerr := m.svc.RecoverCorrupt(m.ctx)
	if rerr != nil {
		return boardLoadedMsg{err: fmt.Errorf("%w (recovery failed: %v)", err, rerr)}
	}
	return boardLoadedMsg{
		board:  m.svc.Board(),
		status: "board was unreadable; moved to " + moved + " and started a fresh board",
		warn:   true,
	}
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if st, ok := m.state.(formState); ok {
			st.form.setWidth(m.formWidth() - 8)
			m.state = st
		}
		m.clampSelection()
		return m, nil

	case boardLoadedMsg:
		if msg.err != nil {
			m.setError(fmt.Errorf("load failed: %w", msg.err))
			return m, nil
		}
		m.board = msg.board
		m.loaded = true
		m.clampSelection()
		switch {
		case msg.status != "":
			m.status = msg.status
			m.statusErr = msg.warn
		case m.status == "loading..." || m.status == "reloading...":
			m.setStatus("ready")
		}
		return m, nil

	case tea.KeyPressMsg:
		switch st := m.state.(type) {
		case formState:
			return m.handleFormKey(st, msg)
		case confirmDeleteState:
			return m.handleConfirmKey(st, msg)
		case quitState:
			return m, tea.Quit
		default:
			return m.handleBrowsingKey(msg)
		}

	default:
		if st, ok := m.state.(formState); ok {
			cmd := st.form.update(msg)
			m.state = st
			return m, cmd
		}
		return m, nil
	}
}

// handleBrowsingKey applies board keys.
func (m Model) handleBrowsingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.showActivity {
		switch {
		case key.Matches(msg, m.keys.quit):
			m.state = quitState{}
			return m, tea.Quit
		case msg.String() == "esc", key.Matches(msg, m.keys.activityLog):
			m.showActivity = false
			m.setStatus("ready")
		}
		return m, nil
	}

	if m.view == viewTimeline && m.timeline.pane == paneCalendar && msg.String() == "enter" {
		return m.jumpToDay()
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.state = quitState{}
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.setStatus("help")
		} else {
			m.setStatus("ready")
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.setStatus("ready")
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.svc.Dirty() {
			m.setError(errors.New("unsaved changes: press s to retry the save before reloading"))
			return m, nil
		}
		m.setStatus("reloading...")
		return m, m.loadBoard
	case key.Matches(msg, m.keys.showBoard):
		return m.setView(viewBoard)
	case key.Matches(msg, m.keys.showTimeline):
		return m.setView(viewTimeline)
	case key.Matches(msg, m.keys.showProject):
		return m.setView(viewProject)
	case key.Matches(msg, m.keys.cycleView):
		return m.setView(m.view.next())
	case key.Matches(msg, m.keys.addNote):
		return m.startAddForm()
	case key.Matches(msg, m.keys.editNote):
		return m.startEditForm()
	case key.Matches(msg, m.keys.deleteNote):
		note, ok := m.selectedNoteValue()
		if !ok {
			m.setError(errors.New("no note selected"))
			return m, nil
		}
		m.help.ShowAll = false
		m.state = confirmDeleteState{noteID: note.ID, title: note.Title}
		m.setStatus(fmt.Sprintf("delete %q? y/n", truncate(note.Title, 32)))
		return m, nil
	case key.Matches(msg, m.keys.moveForward):
		return m.moveSelected(domain.Forward)
	case key.Matches(msg, m.keys.moveBack):
		return m.moveSelected(domain.Backward)
	case key.Matches(msg, m.keys.retrySave):
		return m.retrySave()
	case key.Matches(msg, m.keys.copyID):
		note, ok := m.selectedNoteValue()
		if !ok {
			m.setError(errors.New("no note selected"))
			return m, nil
		}
		if err := m.copyText(note.ID); err != nil {
			m.setError(fmt.Errorf("copy failed: %w", err))
			return m, nil
		}
		m.setStatus("copied " + note.ID)
		return m, nil
	case key.Matches(msg, m.keys.activityLog):
		events, err := m.svc.RecentActivity(m.ctx, m.activityLimit)
		if err != nil {
			m.setError(fmt.Errorf("activity log unavailable: %w", err))
			return m, nil
		}
		m.activity = events
		m.showActivity = true
		m.help.ShowAll = false
		m.setStatus("activity log")
		return m, nil
	}

	switch m.view {
	case viewTimeline:
		return m.handleTimelineKey(msg)
	case viewProject:
		return m.handleProjectKey(msg)
	default:
		return m.handleBoardKey(msg)
	}
}

// handleBoardKey moves the cursor across columns and notes.
func (m Model) handleBoardKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.moveLeft):
		if m.selectedColumn > 0 {
			m.selectedColumn--
			m.selectedNote = 0
		}
	case key.Matches(msg, m.keys.moveRight):
		if m.selectedColumn < len(m.board.Columns)-1 {
			m.selectedColumn++
			m.selectedNote = 0
		}
	case key.Matches(msg, m.keys.moveDown):
		if m.selectedNote < len(m.currentColumnNoteIDs())-1 {
			m.selectedNote++
		}
	case key.Matches(msg, m.keys.moveUp):
		if m.selectedNote > 0 {
			m.selectedNote--
		}
	default:
		return m, nil
	}
	m.clampSelection()
	return m, nil
}

// startAddForm opens an empty form targeting the selected column.
func (m Model) startAddForm() (tea.Model, tea.Cmd) {
	col, ok := m.currentColumn()
	if !ok {
		m.setError(errors.New("board has no columns"))
		return m, nil
	}
	st := formState{kind: formAdd, columnID: col.ID, form: newNoteForm(nil)}
	st.form.setWidth(m.formWidth() - 8)
	cmd := st.form.focusField(fieldTitle)
	m.help.ShowAll = false
	m.state = st
	m.setStatus("new note in " + col.Name)
	return m, cmd
}

// startEditForm opens a form pre-populated from the selected note.
func (m Model) startEditForm() (tea.Model, tea.Cmd) {
	note, ok := m.selectedNoteValue()
	if !ok {
		m.setError(errors.New("no note selected"))
		return m, nil
	}
	st := formState{kind: formEdit, noteID: note.ID, form: newNoteForm(&note)}
	st.form.setWidth(m.formWidth() - 8)
	cmd := st.form.focusField(fieldTitle)
	m.help.ShowAll = false
	m.state = st
	m.setStatus("edit " + note.ID)
	return m, cmd
}

// handleFormKey applies keys while a form is open. Forms never quit the session.
func (m Model) handleFormKey(st formState, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.formKeys.cancel):
		m.state = browsingState{}
		m.setStatus("cancelled")
		return m, nil
	case key.Matches(msg, m.formKeys.next):
		cmd := st.form.focusField(st.form.focus + 1)
		m.state = st
		return m, cmd
	case key.Matches(msg, m.formKeys.prev):
		cmd := st.form.focusField(st.form.focus - 1)
		m.state = st
		return m, cmd
	case key.Matches(msg, m.formKeys.save):
		return m.submitForm(st)
	case msg.String() == "enter" && st.form.focus != fieldBody:
		return m.submitForm(st)
	case msg.String() == "ctrl+c":
		return m, nil
	}
	cmd := st.form.update(msg)
	m.state = st
	return m, cmd
}

// submitForm sends the form to the service. Rejected input keeps the form open.
func (m Model) submitForm(st formState) (tea.Model, tea.Cmd) {
	vals := st.form.values()
	var (
		note domain.Note
		err  error
		verb string
	)
	switch st.kind {
	case formEdit:
		in := app.EditNoteInput{
			NoteID: st.noteID,
			Title:  &vals.title,
			Body:   &vals.body,
		}
		if vals.tags == "" {
			in.ClearTags = true
		} else {
			in.Tags = domain.SplitTags(vals.tags)
		}
		if vals.due == "" {
			in.ClearDue = true
		} else {
			in.Due = &vals.due
		}
		note, err = m.svc.EditNote(m.ctx, in)
		verb = "updated"
	default:
		note, err = m.svc.AddNote(m.ctx, app.AddNoteInput{
			ColumnID: st.columnID,
			Title:    vals.title,
			Body:     vals.body,
			Tags:     domain.SplitTags(vals.tags),
			Due:      vals.due,
		})
		verb = "added"
	}
	if err != nil && !errors.Is(err, app.ErrStorage) {
		st.err = err.Error()
		m.state = st
		m.setError(err)
		return m, nil
	}
	m.state = browsingState{}
	m.syncBoard(note.ID)
	if err != nil {
		m.setSaveError(err)
		return m, nil
	}
	m.setStatus(fmt.Sprintf("%s note %s", verb, note.ID))
	return m, nil
}

// handleConfirmKey applies keys while a delete waits for confirmation.
func (m Model) handleConfirmKey(st confirmDeleteState, msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		m.state = browsingState{}
		_, err := m.svc.DeleteNote(m.ctx, st.noteID)
		m.syncBoard("")
		switch {
		case errors.Is(err, app.ErrStorage):
			m.setSaveError(err)
		case err != nil:
			m.setError(err)
		default:
			m.setStatus("deleted note " + st.noteID)
		}
		return m, nil
	case "n", "N", "esc":
		m.state = browsingState{}
		m.setStatus("delete cancelled")
		return m, nil
	case "q", "ctrl+c":
		m.state = quitState{}
		return m, tea.Quit
	default:
		return m, nil
	}
}

// moveSelected moves the selected note one column; the cursor follows it.
func (m Model) moveSelected(dir domain.Direction) (tea.Model, tea.Cmd) {
	note, ok := m.selectedNoteValue()
	if !ok {
		m.setError(errors.New("no note selected"))
		return m, nil
	}
	col, err := m.svc.MoveNote(m.ctx, note.ID, dir)
	switch {
	case err == nil:
		m.syncBoard(note.ID)
		m.setStatus(fmt.Sprintf("moved %s to %s", note.ID, col.Name))
	case errors.Is(err, app.ErrStorage):
		m.syncBoard(note.ID)
		m.setSaveError(err)
	default:
		m.setError(err)
	}
	return m, nil
}

// retrySave flushes a board left dirty by a failed save.
func (m Model) retrySave() (tea.Model, tea.Cmd) {
	if !m.svc.Dirty() {
		m.setStatus("nothing to save")
		return m, nil
	}
	if err := m.svc.Flush(m.ctx); err != nil {
		m.setSaveError(err)
		return m, nil
	}
	m.setStatus("saved")
	return m, nil
}

// syncBoard refreshes the board copy and puts the cursor on focusID when it still exists.
func (m *Model) syncBoard(focusID string) {
	m.board = m.svc.Board()
	if focusID != "" {
		if colIdx, ok := m.board.ColumnOf(focusID); ok {
			m.selectedColumn = colIdx
			m.selectedNote = max(0, indexOf(m.board.Columns[colIdx].NoteIDs, focusID))
		}
		m.focusInViews(focusID)
	}
	m.clampSelection()
}

// clampSelection keeps every cursor inside the board and the selected note on screen.
func (m *Model) clampSelection() {
	m.selectedColumn = clamp(m.selectedColumn, 0, len(m.board.Columns)-1)
	m.selectedNote = clamp(m.selectedNote, 0, len(m.currentColumnNoteIDs())-1)
	m.clampViews()
	m.clampScroll()
}

// clampScroll keeps column offsets valid and scrolls the selected column to its cursor.
func (m *Model) clampScroll() {
	offsets := make([]int, len(m.board.Columns))
	copy(offsets, m.scrollOffsets)
	rows := m.bodyRows()
	for i, col := range m.board.Columns {
		if rows <= 0 || m.noteLines(col.NoteIDs) <= rows {
			offsets[i] = 0
			continue
		}
		off := clamp(offsets[i], 0, len(col.NoteIDs)-1)
		if i == m.selectedColumn {
			sel := m.selectedNote
			off = min(off, sel)
			for off < sel {
				if _, end := m.columnWindow(col.NoteIDs, off, rows); sel < end {
					break
				}
				off++
			}
		}
		offsets[i] = off
	}
	m.scrollOffsets = offsets
}

// columnWindow returns the note range drawn for a column starting at offset.
// An overflowing column keeps two rows for the more-above and more-below markers.
func (m Model) columnWindow(ids []string, offset, rows int) (int, int) {
	if rows <= 0 || m.noteLines(ids) <= rows {
		return 0, len(ids)
	}
	budget := max(1, rows-2)
	start := clamp(offset, 0, len(ids)-1)
	end, used := start, 0
	for end < len(ids) {
		h := m.noteHeight(ids[end])
		if used+h > budget && end > start {
			break
		}
		used += h
		end++
	}
	return start, end
}

// noteHeight is the number of lines a note takes inside a column.
func (m Model) noteHeight(id string) int {
	note, ok := m.board.Note(id)
	if !ok {
		return 0
	}
	if noteSecondary(note) != "" {
		return 2
	}
	return 1
}

func (m Model) noteLines(ids []string) int {
	total := 0
	for _, id := range ids {
		total += m.noteHeight(id)
	}
	return total
}

func (m Model) scrollOffset(colIdx int) int {
	if colIdx < 0 || colIdx >= len(m.scrollOffsets) {
		return 0
	}
	return m.scrollOffsets[colIdx]
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

func (m *Model) setSaveError(err error) {
	m.status = fmt.Sprintf("%v (press %s to retry)", err, m.keys.retrySave.Help().Key)
	m.statusErr = true
}

// currentColumn returns the column under the cursor.
func (m Model) currentColumn() (domain.Column, bool) {
	if m.selectedColumn < 0 || m.selectedColumn >= len(m.board.Columns) {
		return domain.Column{}, false
	}
	return m.board.Columns[m.selectedColumn], true
}

func (m Model) currentColumnNoteIDs() []string {
	col, ok := m.currentColumn()
	if !ok {
		return nil
	}
	return col.NoteIDs
}

// selectedNoteValue returns the note under the cursor of the active view.
func (m Model) selectedNoteValue() (domain.Note, bool) {
	switch m.view {
	case viewTimeline:
		return m.timelineNote()
	case viewProject:
		return m.projectNote()
	}
	ids := m.currentColumnNoteIDs()
	if m.selectedNote < 0 || m.selectedNote >= len(ids) {
		return domain.Note{}, false
	}
	return m.board.Note(ids[m.selectedNote])
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// clamp clamps the requested operation.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// truncate truncates the requested operation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return string(rs[:1])
	}
	return string(rs[:limit-1]) + "…"
}

// summarizeTags renders tags as #a,#b with a +N suffix past maxTags.
func summarizeTags(tags []string, maxTags int) string {
	if len(tags) == 0 {
		return ""
	}
	maxTags = max(1, maxTags)
	visible := tags
	extra := 0
	if len(tags) > maxTags {
		visible = tags[:maxTags]
		extra = len(tags) - maxTags
	}
	out := "#" + strings.Join(visible, ",#")
	if extra > 0 {
		out += fmt.Sprintf("+%d", extra)
	}
	return out
}

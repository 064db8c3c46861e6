package tui

import "time"

// sessionState is the closed set of interaction states.
type sessionState interface {
	sessionState()
}

// browsingState is the default state; cursor movement and board actions apply.
type browsingState struct{}

// viewMode selects how browsing lays out the board.
type viewMode int

const (
	viewBoard viewMode = iota
	viewTimeline
	viewProject
)

var viewModes = []viewMode{viewBoard, viewTimeline, viewProject}

func (v viewMode) label() string {
	switch v {
	case viewTimeline:
		return "timeline"
	case viewProject:
		return "project"
	default:
		return "board"
	}
}

// next cycles board, timeline, project.
func (v viewMode) next() viewMode {
	return viewModes[(int(v)+1)%len(viewModes)]
}

// timelinePane is the focused pane of the timeline view. Tab cycles in declaration order.
type timelinePane int

const (
	paneDated timelinePane = iota
	paneCalendar
	paneUndated
)

// timelineCursor is the timeline view position. day is a UTC midnight.
type timelineCursor struct {
	pane    timelinePane
	dated   int
	undated int
	day     time.Time
}

func (c *timelineCursor) nextPane() { c.pane = (c.pane + 1) % 3 }
func (c *timelineCursor) prevPane() { c.pane = (c.pane + 2) % 3 }

// projectCursor is the project view position.
type projectCursor struct {
	onNotes bool
	tag     int
	note    int
}

// formKind tells an add form from an edit form.
type formKind int

const (
	formAdd formKind = iota
	formEdit
)

// formState owns the field buffers of an open note form.
type formState struct {
	kind   formKind
	noteID string
	// columnID is the column new notes are added to.
	columnID string
	form     noteForm
	err      string
}

// confirmDeleteState waits for a yes/no on deleting one note.
type confirmDeleteState struct {
	noteID string
	title  string
}

// quitState is terminal.
type quitState struct{}

func (browsingState) sessionState()      {}
func (formState) sessionState()          {}
func (confirmDeleteState) sessionState() {}
func (quitState) sessionState()          {}

// stateName returns a short label for the header.
func stateName(s sessionState) string {
	switch st := s.(type) {
	case formState:
		if st.kind == formEdit {
			return "edit"
		}
		return "add"
	case confirmDeleteState:
		return "confirm"
	case quitState:
		return "quit"
	default:
		return "board"
	}
}

package domain

import "strings"

// Column is one named stage of a board holding an ordered list of note ids.
type Column struct {
	ID       string
	Name     string
	WIPLimit int
	NoteIDs  []string
}

// NewColumn constructs a validated column with no notes.
func NewColumn(id, name string, wipLimit int) (Column, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if !validColumnID(id) {
		return Column{}, ErrInvalidID
	}
	if name == "" {
		return Column{}, ErrInvalidName
	}
	if wipLimit < 0 {
		return Column{}, ErrInvalidWIPLimit
	}
	return Column{
		ID:       id,
		Name:     name,
		WIPLimit: wipLimit,
		NoteIDs:  []string{},
	}, nil
}

// DefaultColumns returns the column set used for new boards.
func DefaultColumns() []Column {
	return []Column{
		{ID: "todo", Name: "To Do", NoteIDs: []string{}},
		{ID: "doing", Name: "Doing", NoteIDs: []string{}},
		{ID: "waiting", Name: "Waiting", NoteIDs: []string{}},
		{ID: "done", Name: "Done", NoteIDs: []string{}},
	}
}

// HasLimit reports whether the column caps its note count.
func (c Column) HasLimit() bool {
	return c.WIPLimit > 0
}

// AtCapacity reports whether one more note would exceed the wip limit.
func (c Column) AtCapacity() bool {
	return c.HasLimit() && len(c.NoteIDs) >= c.WIPLimit
}

// indexOf returns the position of noteID inside the column, or -1.
func (c Column) indexOf(noteID string) int {
	for i, id := range c.NoteIDs {
		if id == noteID {
			return i
		}
	}
	return -1
}

// validColumnID reports whether id is lowercase alphanumeric with optional inner - or _.
func validColumnID(id string) bool {
	if id == "" {
		return false
	}
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case (r == '-' || r == '_') && i > 0:
		default:
			return false
		}
	}
	return true
}

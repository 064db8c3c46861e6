package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Direction selects the neighbouring column for a move.
type Direction int

// Forward and Backward are the two move directions.
const (
	Forward Direction = iota + 1
	Backward
)

// String returns the direction label.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "unknown"
	}
}

// Board is the whole document: ordered columns plus the note index.
// Column note lists are canonical; a note's column is always derived from them.
type Board struct {
	Name    string
	Columns []Column
	Notes   map[string]Note
}

// NewBoard constructs a board from validated columns.
func NewBoard(name string, columns []Column) (Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Board{}, ErrInvalidName
	}
	if len(columns) == 0 {
		return Board{}, fmt.Errorf("%w: board needs at least one column", ErrUnknownColumn)
	}
	out := make([]Column, 0, len(columns))
	seen := map[string]struct{}{}
	for _, c := range columns {
		col, err := NewColumn(c.ID, c.Name, c.WIPLimit)
		if err != nil {
			return Board{}, fmt.Errorf("column %q: %w", c.ID, err)
		}
		if _, ok := seen[col.ID]; ok {
			return Board{}, fmt.Errorf("column %q: %w", col.ID, ErrDuplicateID)
		}
		seen[col.ID] = struct{}{}
		col.NoteIDs = slices.Clone(c.NoteIDs)
		if col.NoteIDs == nil {
			col.NoteIDs = []string{}
		}
		out = append(out, col)
	}
	return Board{
		Name:    name,
		Columns: out,
		Notes:   map[string]Note{},
	}, nil
}

// DefaultBoard returns a board with the default column set.
func DefaultBoard(name string) Board {
	if strings.TrimSpace(name) == "" {
		name = "default"
	}
	return Board{
		Name:    strings.TrimSpace(name),
		Columns: DefaultColumns(),
		Notes:   map[string]Note{},
	}
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := Board{
		Name:    b.Name,
		Columns: make([]Column, len(b.Columns)),
		Notes:   make(map[string]Note, len(b.Notes)),
	}
	for i, c := range b.Columns {
		c.NoteIDs = slices.Clone(c.NoteIDs)
		if c.NoteIDs == nil {
			c.NoteIDs = []string{}
		}
		out.Columns[i] = c
	}
	for id, n := range b.Notes {
		out.Notes[id] = n.clone()
	}
	return out
}

// ColumnIndex returns the position of the column with id, or -1.
func (b Board) ColumnIndex(id string) int {
	for i, c := range b.Columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Column returns the column with id.
func (b Board) Column(id string) (Column, bool) {
	idx := b.ColumnIndex(id)
	if idx < 0 {
		return Column{}, false
	}
	return b.Columns[idx], true
}

// ColumnOf returns the index of the column holding noteID.
func (b Board) ColumnOf(noteID string) (int, bool) {
	for i, c := range b.Columns {
		if c.indexOf(noteID) >= 0 {
			return i, true
		}
	}
	return -1, false
}

// Note returns the note with id.
func (b Board) Note(id string) (Note, bool) {
	n, ok := b.Notes[id]
	return n, ok
}

// NotesIn returns the notes of a column in display order.
func (b Board) NotesIn(columnID string) ([]Note, error) {
	col, ok := b.Column(columnID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	out := make([]Note, 0, len(col.NoteIDs))
	for _, id := range col.NoteIDs {
		if n, ok := b.Notes[id]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

// AddNote appends a new note to the end of a column.
func (b *Board) AddNote(columnID string, in NoteInput, ids IDSource, now time.Time) (Note, error) {
	idx := b.ColumnIndex(columnID)
	if idx < 0 {
		return Note{}, fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if b.Columns[idx].AtCapacity() {
		return Note{}, fmt.Errorf("%w: %s allows %d", ErrWIPLimitExceeded, columnID, b.Columns[idx].WIPLimit)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Note{}, ErrInvalidTitle
	}
	due, err := parseOptionalDue(in.Due)
	if err != nil {
		return Note{}, err
	}

	id := strings.TrimSpace(in.ID)
	if id != "" {
		if !ValidNoteID(id) {
			return Note{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		if _, taken := b.Notes[id]; taken {
			return Note{}, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
	} else {
		id, err = b.allocateNoteID(ids)
		if err != nil {
			return Note{}, err
		}
	}

	ts := now.UTC()
	note := Note{
		ID:        id,
		Title:     title,
		Body:      normalizeBody(in.Body),
		Tags:      NormalizeTags(in.Tags),
		Due:       due,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if b.Notes == nil {
		b.Notes = map[string]Note{}
	}
	b.Notes[id] = note
	b.Columns[idx].NoteIDs = append(b.Columns[idx].NoteIDs, id)
	return note.clone(), nil
}

// MoveNote moves a note to the neighbouring column and returns the destination.
func (b *Board) MoveNote(noteID string, dir Direction, now time.Time) (Column, error) {
	src, ok := b.ColumnOf(noteID)
	if !ok {
		return Column{}, fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
	}
	dest := src
	switch dir {
	case Forward:
		dest = src + 1
	case Backward:
		dest = src - 1
	default:
		return Column{}, fmt.Errorf("%w: direction %d", ErrNoSuchColumn, dir)
	}
	if dest < 0 || dest >= len(b.Columns) {
		return Column{}, fmt.Errorf("%w: %s from %s", ErrNoSuchColumn, dir, b.Columns[src].ID)
	}
	if err := b.relocate(noteID, src, dest, now); err != nil {
		return Column{}, err
	}
	return b.Columns[dest], nil
}

// MoveNoteTo moves a note to the named column. Moving to the current column is a no-op.
func (b *Board) MoveNoteTo(noteID, columnID string, now time.Time) error {
	src, ok := b.ColumnOf(noteID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
	}
	dest := b.ColumnIndex(columnID)
	if dest < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, columnID)
	}
	if src == dest {
		return nil
	}
	return b.relocate(noteID, src, dest, now)
}

// relocate removes noteID from src and appends it to dest after the capacity check.
func (b *Board) relocate(noteID string, src, dest int, now time.Time) error {
	if b.Columns[dest].AtCapacity() {
		return fmt.Errorf("%w: %s allows %d", ErrWIPLimitExceeded, b.Columns[dest].ID, b.Columns[dest].WIPLimit)
	}
	pos := b.Columns[src].indexOf(noteID)
	b.Columns[src].NoteIDs = slices.Delete(b.Columns[src].NoteIDs, pos, pos+1)
	b.Columns[dest].NoteIDs = append(b.Columns[dest].NoteIDs, noteID)
	if n, ok := b.Notes[noteID]; ok {
		n.UpdatedAt = now.UTC()
		b.Notes[noteID] = n
	}
	return nil
}

// EditNote applies a partial update. Nothing is written unless every field validates.
func (b *Board) EditNote(noteID string, up NoteUpdate, now time.Time) (Note, error) {
	current, ok := b.Notes[noteID]
	if !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
	}
	next := current.clone()
	if up.Title != nil {
		title := strings.TrimSpace(*up.Title)
		if title == "" {
			return Note{}, ErrInvalidTitle
		}
		next.Title = title
	}
	if up.Body != nil {
		next.Body = normalizeBody(*up.Body)
	}
	if up.ClearTags {
		next.Tags = []string{}
	}
	if len(up.Tags) > 0 {
		next.Tags = NormalizeTags(up.Tags)
	}
	if up.ClearDue {
		next.Due = nil
	}
	if up.Due != nil {
		due, err := parseOptionalDue(*up.Due)
		if err != nil {
			return Note{}, err
		}
		next.Due = due
	}

	src, dest := -1, -1
	if up.Column != nil {
		var found bool
		src, found = b.ColumnOf(noteID)
		if !found {
			return Note{}, fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
		}
		dest = b.ColumnIndex(strings.TrimSpace(*up.Column))
		if dest < 0 {
			return Note{}, fmt.Errorf("%w: %s", ErrUnknownColumn, *up.Column)
		}
		if src != dest && b.Columns[dest].AtCapacity() {
			return Note{}, fmt.Errorf("%w: %s allows %d", ErrWIPLimitExceeded, b.Columns[dest].ID, b.Columns[dest].WIPLimit)
		}
	}

	next.UpdatedAt = now.UTC()
	b.Notes[noteID] = next
	if src >= 0 && src != dest {
		if err := b.relocate(noteID, src, dest, now); err != nil {
			b.Notes[noteID] = current
			return Note{}, err
		}
	}
	return next.clone(), nil
}

// DeleteNote removes a note from its column and the note index.
func (b *Board) DeleteNote(noteID string) (Note, error) {
	note, ok := b.Notes[noteID]
	if !ok {
		return Note{}, fmt.Errorf("%w: %s", ErrUnknownNote, noteID)
	}
	if idx, found := b.ColumnOf(noteID); found {
		pos := b.Columns[idx].indexOf(noteID)
		b.Columns[idx].NoteIDs = slices.Delete(b.Columns[idx].NoteIDs, pos, pos+1)
	}
	delete(b.Notes, noteID)
	return note, nil
}

// NoteCount returns the number of notes on the board.
func (b Board) NoteCount() int {
	return len(b.Notes)
}

// Validate checks the column/note relationship of a decoded board.
func (b Board) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrInvalidName
	}
	if len(b.Columns) == 0 {
		return fmt.Errorf("%w: board needs at least one column", ErrUnknownColumn)
	}
	seenCols := map[string]struct{}{}
	listed := map[string]string{}
	for _, c := range b.Columns {
		if !validColumnID(c.ID) {
			return fmt.Errorf("column %q: %w", c.ID, ErrInvalidID)
		}
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("column %q: %w", c.ID, ErrInvalidName)
		}
		if c.WIPLimit < 0 {
			return fmt.Errorf("column %q: %w", c.ID, ErrInvalidWIPLimit)
		}
		if _, ok := seenCols[c.ID]; ok {
			return fmt.Errorf("column %q: %w", c.ID, ErrDuplicateID)
		}
		seenCols[c.ID] = struct{}{}
		for _, id := range c.NoteIDs {
			if _, ok := b.Notes[id]; !ok {
				return fmt.Errorf("column %q lists %q: %w", c.ID, id, ErrUnknownNote)
			}
			if other, ok := listed[id]; ok {
				return fmt.Errorf("note %q listed in %q and %q: %w", id, other, c.ID, ErrDuplicateID)
			}
			listed[id] = c.ID
		}
	}
	for id, n := range b.Notes {
		if !ValidNoteID(id) || n.ID != id {
			return fmt.Errorf("note %q: %w", id, ErrInvalidID)
		}
		if strings.TrimSpace(n.Title) == "" {
			return fmt.Errorf("note %q: %w", id, ErrInvalidTitle)
		}
		if _, ok := listed[id]; !ok {
			return fmt.Errorf("note %q is not in any column: %w", id, ErrUnknownColumn)
		}
	}
	return nil
}

// allocateNoteID derives a fresh id from ids, retrying on collisions.
func (b Board) allocateNoteID(ids IDSource) (string, error) {
	if ids == nil {
		return "", ErrInvalidID
	}
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := noteIDFrom(ids())
		if len(id) != NoteIDLength {
			continue
		}
		if _, taken := b.Notes[id]; taken {
			continue
		}
		return id, nil
	}
	return "", ErrIDExhausted
}

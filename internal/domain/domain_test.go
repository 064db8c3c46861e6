package domain

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"
)

var testNow = time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

// sequenceIDs returns an IDSource that yields the given raw values in order.
func sequenceIDs(values ...string) IDSource {
	i := 0
	return func() string {
		if i >= len(values) {
			return ""
		}
		v := values[i]
		i++
		return v
	}
}

func newScenarioBoard(t *testing.T) Board {
	t.Helper()
	b, err := NewBoard("scenario", []Column{
		{ID: "todo", Name: "To Do"},
		{ID: "doing", Name: "Doing", WIPLimit: 1},
		{ID: "done", Name: "Done"},
	})
	if err != nil {
		t.Fatalf("NewBoard() error = %v", err)
	}
	if _, err := b.AddNote("doing", NoteInput{ID: "abc123", Title: "in flight"}, nil, testNow); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	return b
}

func TestNewColumnValidation(t *testing.T) {
	if _, err := NewColumn("", "To Do", 0); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	if _, err := NewColumn("To Do", "To Do", 0); err != ErrInvalidID {
		t.Fatalf("expected ErrInvalidID for uppercase id, got %v", err)
	}
	if _, err := NewColumn("todo", "  ", 0); err != ErrInvalidName {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	if _, err := NewColumn("todo", "To Do", -1); err != ErrInvalidWIPLimit {
		t.Fatalf("expected ErrInvalidWIPLimit, got %v", err)
	}
	c, err := NewColumn(" in-review ", " Review ", 2)
	if err != nil {
		t.Fatalf("NewColumn() error = %v", err)
	}
	if c.ID != "in-review" || c.Name != "Review" || c.WIPLimit != 2 || c.NoteIDs == nil {
		t.Fatalf("unexpected column %#v", c)
	}
}

func TestNewBoardRejectsDuplicateColumns(t *testing.T) {
	_, err := NewBoard("b", []Column{{ID: "todo", Name: "A"}, {ID: "todo", Name: "B"}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if _, err := NewBoard("b", nil); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn for empty board, got %v", err)
	}
}

func TestDefaultBoard(t *testing.T) {
	b := DefaultBoard("")
	if b.Name != "default" {
		t.Fatalf("unexpected board name %q", b.Name)
	}
	want := []string{"todo", "doing", "waiting", "done"}
	got := make([]string, 0, len(b.Columns))
	for _, c := range b.Columns {
		got = append(got, c.ID)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("unexpected default columns %v", got)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestAddNoteAppendsOnceAtEnd(t *testing.T) {
	b := DefaultBoard("demo")
	ids := sequenceIDs("aaaaaa", "bbbbbb", "cccccc")
	for _, title := range []string{"one", "two", "three"} {
		if _, err := b.AddNote("todo", NoteInput{Title: title}, ids, testNow); err != nil {
			t.Fatalf("AddNote(%q) error = %v", title, err)
		}
	}
	todo, _ := b.Column("todo")
	if !slices.Equal(todo.NoteIDs, []string{"aaaaaa", "bbbbbb", "cccccc"}) {
		t.Fatalf("unexpected todo order %v", todo.NoteIDs)
	}
	if idx, ok := b.ColumnOf("cccccc"); !ok || b.Columns[idx].ID != "todo" {
		t.Fatalf("expected cccccc in todo, got %d %t", idx, ok)
	}
}

func TestAddNoteNormalizesFields(t *testing.T) {
	b := DefaultBoard("demo")
	note, err := b.AddNote("todo", NoteInput{
		Title: "  Ship it  ",
		Body:  "\nline one\nline two\n",
		Tags:  []string{"Release", "api", "release", " "},
		Due:   "2024.12.31@09:30",
	}, sequenceIDs("1f0e-9c2a-77"), testNow)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if note.ID != "1f0e9c" {
		t.Fatalf("unexpected derived id %q", note.ID)
	}
	if note.Title != "Ship it" || note.Body != "line one\nline two" {
		t.Fatalf("unexpected title/body %q %q", note.Title, note.Body)
	}
	if !slices.Equal(note.Tags, []string{"api", "release"}) {
		t.Fatalf("unexpected tags %v", note.Tags)
	}
	if note.DueText() != "2024.12.31@09:30" {
		t.Fatalf("unexpected due %q", note.DueText())
	}
	if !note.CreatedAt.Equal(testNow) || !note.UpdatedAt.Equal(testNow) {
		t.Fatalf("unexpected timestamps %v %v", note.CreatedAt, note.UpdatedAt)
	}
}

func TestAddNoteFailures(t *testing.T) {
	b := newScenarioBoard(t)
	before := b.Clone()

	cases := []struct {
		name   string
		column string
		in     NoteInput
		want   error
	}{
		{name: "unknown column", column: "nope", in: NoteInput{Title: "x"}, want: ErrUnknownColumn},
		{name: "wip limit", column: "doing", in: NoteInput{Title: "x"}, want: ErrWIPLimitExceeded},
		{name: "blank title", column: "todo", in: NoteInput{Title: "  "}, want: ErrInvalidTitle},
		{name: "bad due", column: "todo", in: NoteInput{Title: "x", Due: "tomorrow"}, want: ErrInvalidDueDate},
		{name: "duplicate id", column: "todo", in: NoteInput{ID: "abc123", Title: "x"}, want: ErrDuplicateID},
		{name: "malformed id", column: "todo", in: NoteInput{ID: "ABC", Title: "x"}, want: ErrInvalidID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.AddNote(tc.column, tc.in, sequenceIDs("zzzzzz"), testNow)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !reflect.DeepEqual(b, before) {
				t.Fatalf("board changed after failed add")
			}
		})
	}
}

func TestAddNoteRetriesIDCollisions(t *testing.T) {
	b := newScenarioBoard(t)
	note, err := b.AddNote("todo", NoteInput{Title: "x"}, sequenceIDs("abc123", "short", "def456"), testNow)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if note.ID != "def456" {
		t.Fatalf("expected collision retry to pick def456, got %q", note.ID)
	}

	_, err = b.AddNote("todo", NoteInput{Title: "y"}, func() string { return "def456" }, testNow)
	if !errors.Is(err, ErrIDExhausted) {
		t.Fatalf("expected ErrIDExhausted, got %v", err)
	}
}

func TestMoveForwardThenBackward(t *testing.T) {
	b := DefaultBoard("demo")
	ids := sequenceIDs("n00001", "n00002")
	first, _ := b.AddNote("todo", NoteInput{Title: "first"}, ids, testNow)
	second, _ := b.AddNote("todo", NoteInput{Title: "second"}, ids, testNow)

	later := testNow.Add(time.Minute)
	dest, err := b.MoveNote(first.ID, Forward, later)
	if err != nil {
		t.Fatalf("MoveNote(forward) error = %v", err)
	}
	if dest.ID != "doing" {
		t.Fatalf("unexpected destination %q", dest.ID)
	}
	if _, err := b.MoveNote(first.ID, Backward, later); err != nil {
		t.Fatalf("MoveNote(backward) error = %v", err)
	}
	todo, _ := b.Column("todo")
	if !slices.Equal(todo.NoteIDs, []string{second.ID, first.ID}) {
		t.Fatalf("expected note re-appended at end, got %v", todo.NoteIDs)
	}
	if got := b.Notes[first.ID].UpdatedAt; !got.Equal(later) {
		t.Fatalf("expected updated_at touched, got %v", got)
	}
}

func TestMoveAtEdgesFails(t *testing.T) {
	b := DefaultBoard("demo")
	ids := sequenceIDs("edge01", "edge02")
	left, _ := b.AddNote("todo", NoteInput{Title: "left"}, ids, testNow)
	right, _ := b.AddNote("todo", NoteInput{Title: "right"}, ids, testNow)
	if err := b.MoveNoteTo(right.ID, "done", testNow); err != nil {
		t.Fatalf("MoveNoteTo() error = %v", err)
	}
	before := b.Clone()

	if _, err := b.MoveNote(left.ID, Backward, testNow); !errors.Is(err, ErrNoSuchColumn) {
		t.Fatalf("expected ErrNoSuchColumn moving back from first column, got %v", err)
	}
	if _, err := b.MoveNote(right.ID, Forward, testNow); !errors.Is(err, ErrNoSuchColumn) {
		t.Fatalf("expected ErrNoSuchColumn moving forward from last column, got %v", err)
	}
	if _, err := b.MoveNote("missing", Forward, testNow); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote, got %v", err)
	}
	if !reflect.DeepEqual(b, before) {
		t.Fatal("board changed after failed moves")
	}
}

func TestWIPLimitScenario(t *testing.T) {
	b := newScenarioBoard(t)
	added, err := b.AddNote("todo", NoteInput{ID: "add", Title: "add"}, nil, testNow)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if _, err := b.MoveNote(added.ID, Forward, testNow); !errors.Is(err, ErrWIPLimitExceeded) {
		t.Fatalf("expected ErrWIPLimitExceeded, got %v", err)
	}
	todo, _ := b.Column("todo")
	doing, _ := b.Column("doing")
	if !slices.Equal(todo.NoteIDs, []string{"add"}) {
		t.Fatalf("expected todo to keep the note, got %v", todo.NoteIDs)
	}
	if !slices.Equal(doing.NoteIDs, []string{"abc123"}) {
		t.Fatalf("expected doing to hold only abc123, got %v", doing.NoteIDs)
	}
	if _, err := b.AddNote("doing", NoteInput{Title: "over"}, sequenceIDs("over01"), testNow); !errors.Is(err, ErrWIPLimitExceeded) {
		t.Fatalf("expected ErrWIPLimitExceeded on add, got %v", err)
	}
	doing, _ = b.Column("doing")
	if len(doing.NoteIDs) != 1 {
		t.Fatalf("expected doing count unchanged, got %d", len(doing.NoteIDs))
	}
}

func TestMoveNoteTo(t *testing.T) {
	b := newScenarioBoard(t)
	if err := b.MoveNoteTo("abc123", "doing", testNow); err != nil {
		t.Fatalf("expected same-column move to be a no-op, got %v", err)
	}
	if err := b.MoveNoteTo("abc123", "nope", testNow); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if err := b.MoveNoteTo("abc123", "done", testNow); err != nil {
		t.Fatalf("MoveNoteTo() error = %v", err)
	}
	if idx, _ := b.ColumnOf("abc123"); b.Columns[idx].ID != "done" {
		t.Fatalf("expected abc123 in done, got %q", b.Columns[idx].ID)
	}
}

func TestEditNotePartialUpdate(t *testing.T) {
	b := DefaultBoard("demo")
	note, _ := b.AddNote("todo", NoteInput{Title: "draft", Body: "body", Tags: []string{"a"}, Due: "2024.01.02@03:04"}, sequenceIDs("edit01"), testNow)

	title := "final"
	later := testNow.Add(time.Hour)
	updated, err := b.EditNote(note.ID, NoteUpdate{Title: &title}, later)
	if err != nil {
		t.Fatalf("EditNote() error = %v", err)
	}
	if updated.Title != "final" || updated.Body != "body" || !slices.Equal(updated.Tags, []string{"a"}) {
		t.Fatalf("unexpected partial update %#v", updated)
	}
	if updated.DueText() != "2024.01.02@03:04" || !updated.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected due/updated_at %q %v", updated.DueText(), updated.UpdatedAt)
	}

	updated, err = b.EditNote(note.ID, NoteUpdate{ClearDue: true, ClearTags: true}, later)
	if err != nil {
		t.Fatalf("EditNote(clear) error = %v", err)
	}
	if updated.Due != nil || len(updated.Tags) != 0 {
		t.Fatalf("expected cleared due/tags, got %#v", updated)
	}

	column := "waiting"
	if _, err := b.EditNote(note.ID, NoteUpdate{Column: &column}, later); err != nil {
		t.Fatalf("EditNote(column) error = %v", err)
	}
	if idx, _ := b.ColumnOf(note.ID); b.Columns[idx].ID != "waiting" {
		t.Fatalf("expected note moved to waiting, got %q", b.Columns[idx].ID)
	}
}

func TestNoteBodyKeepsIndentation(t *testing.T) {
	b := DefaultBoard("demo")
	body := "    go build ./...\n    go test ./..."
	note, err := b.AddNote("todo", NoteInput{Title: "ci", Body: "\n" + body + "\n\n"}, sequenceIDs("body01"), testNow)
	if err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if note.Body != body {
		t.Fatalf("AddNote() body = %q, want %q", note.Body, body)
	}

	edited := "\tindented\n\t\tdeeper  \n"
	updated, err := b.EditNote(note.ID, NoteUpdate{Body: &edited}, testNow)
	if err != nil {
		t.Fatalf("EditNote() error = %v", err)
	}
	if updated.Body != "\tindented\n\t\tdeeper" {
		t.Fatalf("EditNote() body = %q", updated.Body)
	}

	blank := " \n\t "
	updated, err = b.EditNote(note.ID, NoteUpdate{Body: &blank}, testNow)
	if err != nil {
		t.Fatalf("EditNote(blank) error = %v", err)
	}
	if updated.Body != "" {
		t.Fatalf("expected whitespace-only body to be empty, got %q", updated.Body)
	}
}

func TestNoteUpdateEmpty(t *testing.T) {
	title := "x"
	if !(NoteUpdate{}).Empty() {
		t.Fatal("expected zero update to be empty")
	}
	for _, up := range []NoteUpdate{{Title: &title}, {ClearTags: true}, {Tags: []string{"a"}}, {ClearDue: true}} {
		if up.Empty() {
			t.Fatalf("expected %#v to be non-empty", up)
		}
	}
}

func TestEditNoteIsAllOrNothing(t *testing.T) {
	b := newScenarioBoard(t)
	if _, err := b.AddNote("todo", NoteInput{ID: "keep01", Title: "keep"}, nil, testNow); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	before := b.Clone()

	title := "changed"
	badDue := "2024.13.01@09:30"
	if _, err := b.EditNote("keep01", NoteUpdate{Title: &title, Due: &badDue}, testNow); !errors.Is(err, ErrInvalidDueDate) {
		t.Fatalf("expected ErrInvalidDueDate, got %v", err)
	}
	blank := " "
	if _, err := b.EditNote("keep01", NoteUpdate{Title: &blank}, testNow); !errors.Is(err, ErrInvalidTitle) {
		t.Fatalf("expected ErrInvalidTitle, got %v", err)
	}
	full := "doing"
	if _, err := b.EditNote("keep01", NoteUpdate{Title: &title, Column: &full}, testNow); !errors.Is(err, ErrWIPLimitExceeded) {
		t.Fatalf("expected ErrWIPLimitExceeded, got %v", err)
	}
	if _, err := b.EditNote("missing", NoteUpdate{Title: &title}, testNow); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote, got %v", err)
	}
	if !reflect.DeepEqual(b, before) {
		t.Fatal("board changed after failed edits")
	}
}

func TestDeleteNoteTwice(t *testing.T) {
	b := DefaultBoard("demo")
	if _, err := b.AddNote("todo", NoteInput{ID: "todo1", Title: "gone soon"}, nil, testNow); err != nil {
		t.Fatalf("AddNote() error = %v", err)
	}
	if _, err := b.DeleteNote("todo1"); err != nil {
		t.Fatalf("DeleteNote() error = %v", err)
	}
	todo, _ := b.Column("todo")
	if slices.Contains(todo.NoteIDs, "todo1") {
		t.Fatal("expected todo1 removed from column")
	}
	if _, ok := b.Note("todo1"); ok {
		t.Fatal("expected todo1 removed from note index")
	}
	if _, err := b.DeleteNote("todo1"); !errors.Is(err, ErrUnknownNote) {
		t.Fatalf("expected ErrUnknownNote on second delete, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	b := newScenarioBoard(t)
	c := b.Clone()
	c.Columns[0].NoteIDs = append(c.Columns[0].NoteIDs, "x")
	n := c.Notes["abc123"]
	n.Title = "changed"
	c.Notes["abc123"] = n
	if len(b.Columns[0].NoteIDs) != 0 || b.Notes["abc123"].Title != "in flight" {
		t.Fatal("clone shares state with the original")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Board)
		want   error
	}{
		{name: "listed note missing", mutate: func(b *Board) {
			b.Columns[0].NoteIDs = append(b.Columns[0].NoteIDs, "ghost1")
		}, want: ErrUnknownNote},
		{name: "listed twice", mutate: func(b *Board) {
			b.Columns[2].NoteIDs = append(b.Columns[2].NoteIDs, "abc123")
		}, want: ErrDuplicateID},
		{name: "orphan note", mutate: func(b *Board) {
			b.Notes["orphan"] = Note{ID: "orphan", Title: "lost"}
		}, want: ErrUnknownColumn},
		{name: "duplicate column", mutate: func(b *Board) {
			b.Columns[2].ID = "todo"
		}, want: ErrDuplicateID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newScenarioBoard(t)
			tc.mutate(&b)
			if err := b.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
	if err := newScenarioBoard(t).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestChangeEventSummary(t *testing.T) {
	cases := []struct {
		event ChangeEvent
		want  string
	}{
		{ChangeEvent{NoteID: "a1", Operation: ChangeOperationCreate, Metadata: map[string]string{"title": "Ship", "column": "todo"}}, `created a1 "Ship" in todo`},
		{ChangeEvent{NoteID: "a1", Operation: ChangeOperationMove, Metadata: map[string]string{"from": "todo", "to": "doing"}}, "moved a1 todo -> doing"},
		{ChangeEvent{NoteID: "a1", Operation: ChangeOperationDelete}, "deleted a1"},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			if got := tc.event.Summary(); got != tc.want {
				t.Fatalf("Summary() = %q, want %q", got, tc.want)
			}
		})
	}
}

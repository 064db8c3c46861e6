package tui

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/evanschultz/postit/internal/domain"
)

// Note form field indexes in focus order.
const (
	fieldTitle = iota
	fieldBody
	fieldTags
	fieldDue
	fieldCount
)

const bodyInputLines = 5

var fieldLabels = [fieldCount]string{"title", "body", "tags", "due"}

// noteForm holds the buffers of the add and edit forms.
type noteForm struct {
	title textinput.Model
	body  textarea.Model
	tags  textinput.Model
	due   textinput.Model
	focus int
}

// formValues is the trimmed form content.
type formValues struct {
	title string
	body  string
	tags  string
	due   string
}

// newNoteForm builds a form, pre-populated from note when editing.
func newNoteForm(note *domain.Note) noteForm {
	body := textarea.New()
	body.Prompt = ""
	body.Placeholder = "details (markdown)"
	body.ShowLineNumbers = false
	body.CharLimit = 4000
	body.SetHeight(bodyInputLines)

	f := noteForm{
		title: newModalInput("", "note title (required)", "", 120),
		body:  body,
		tags:  newModalInput("", "csv tags", "", 160),
		due:   newModalInput("", "YYYY.MM.DD@hh:mm or blank", "", 16),
	}
	if note != nil {
		f.title.SetValue(note.Title)
		f.body.SetValue(note.Body)
		f.tags.SetValue(strings.Join(note.Tags, ","))
		f.due.SetValue(note.DueText())
	}
	return f
}

// newModalInput constructs modal input.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// focusField moves focus to idx, wrapping around the field list.
func (f *noteForm) focusField(idx int) tea.Cmd {
	f.focus = wrapIndex(idx, fieldCount)
	f.title.Blur()
	f.body.Blur()
	f.tags.Blur()
	f.due.Blur()
	switch f.focus {
	case fieldBody:
		return f.body.Focus()
	case fieldTags:
		return f.tags.Focus()
	case fieldDue:
		return f.due.Focus()
	default:
		return f.title.Focus()
	}
}

// update routes msg to the focused field.
func (f *noteForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldBody:
		f.body, cmd = f.body.Update(msg)
	case fieldTags:
		f.tags, cmd = f.tags.Update(msg)
	case fieldDue:
		f.due, cmd = f.due.Update(msg)
	default:
		f.title, cmd = f.title.Update(msg)
	}
	return cmd
}

// setWidth resizes every field.
func (f *noteForm) setWidth(w int) {
	w = max(16, w)
	f.title.SetWidth(w)
	f.tags.SetWidth(w)
	f.due.SetWidth(w)
	f.body.SetWidth(w)
}

func (f noteForm) values() formValues {
	return formValues{
		title: strings.TrimSpace(f.title.Value()),
		body:  strings.TrimRight(f.body.Value(), " \t\n"),
		tags:  strings.TrimSpace(f.tags.Value()),
		due:   strings.TrimSpace(f.due.Value()),
	}
}

// view renders labelled fields with the focused one marked.
func (f noteForm) view() string {
	views := [fieldCount]string{f.title.View(), f.body.View(), f.tags.View(), f.due.View()}
	lines := make([]string, 0, fieldCount*2)
	for i, label := range fieldLabels {
		marker := "  "
		if i == f.focus {
			marker = "› "
		}
		lines = append(lines, marker+label+":")
		for _, line := range strings.Split(views[i], "\n") {
			lines = append(lines, "    "+line)
		}
	}
	return strings.Join(lines, "\n")
}

// wrapIndex wraps idx into [0, total).
func wrapIndex(idx, total int) int {
	if total <= 0 {
		return 0
	}
	idx %= total
	if idx < 0 {
		idx += total
	}
	return idx
}

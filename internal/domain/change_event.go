package domain

import (
	"strings"
	"time"
)

// ChangeOperation describes a journaled board operation.
type ChangeOperation string

// ChangeOperation values recorded in the activity journal.
const (
	ChangeOperationCreate ChangeOperation = "create"
	ChangeOperationUpdate ChangeOperation = "update"
	ChangeOperationMove   ChangeOperation = "move"
	ChangeOperationDelete ChangeOperation = "delete"
)

// ChangeEvent is one activity-log entry for a note on a board.
type ChangeEvent struct {
	ID         int64
	BoardPath  string
	NoteID     string
	Operation  ChangeOperation
	Metadata   map[string]string
	OccurredAt time.Time
}

// Summary renders a short human-readable description of the event.
func (e ChangeEvent) Summary() string {
	return strings.Join(strings.Fields(e.summary()), " ")
}

// summary builds the unnormalized summary text.
func (e ChangeEvent) summary() string {
	title := e.Metadata["title"]
	switch e.Operation {
	case ChangeOperationCreate:
		return "created " + e.NoteID + " " + quoteTitle(title) + " in " + e.Metadata["column"]
	case ChangeOperationMove:
		return "moved " + e.NoteID + " " + e.Metadata["from"] + " -> " + e.Metadata["to"]
	case ChangeOperationUpdate:
		return "updated " + e.NoteID + " " + quoteTitle(title)
	case ChangeOperationDelete:
		return "deleted " + e.NoteID + " " + quoteTitle(title)
	default:
		return string(e.Operation) + " " + e.NoteID
	}
}

// quoteTitle wraps a non-empty title in quotes.
func quoteTitle(title string) string {
	if title == "" {
		return ""
	}
	return "\"" + title + "\""
}

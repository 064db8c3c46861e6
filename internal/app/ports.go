package app

import (
	"context"

	"github.com/evanschultz/postit/internal/domain"
)

// Store loads and saves the whole board document.
// Load returns a fresh default board when no document exists yet.
type Store interface {
	Load(context.Context) (domain.Board, error)
	Save(context.Context, domain.Board) error
}

// Quarantiner is implemented by stores that can move an unreadable document aside.
type Quarantiner interface {
	Quarantine(context.Context) (string, error)
}

// Journal records board changes for the activity log.
type Journal interface {
	RecordChange(context.Context, domain.ChangeEvent) error
	ListChanges(context.Context, string, int) ([]domain.ChangeEvent, error)
}

// Logger receives structured runtime events.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// nopLogger discards all events.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/evanschultz/postit/internal/domain"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = j.Close()
	})
	return j
}

func TestJournalRecordAndList(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	now := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)

	events := []domain.ChangeEvent{
		{BoardPath: "/a/board.yml", NoteID: "n1", Operation: domain.ChangeOperationCreate, Metadata: map[string]string{"title": "one", "column": "todo"}, OccurredAt: now},
		{BoardPath: "/a/board.yml", NoteID: "n1", Operation: domain.ChangeOperationMove, Metadata: map[string]string{"from": "todo", "to": "doing"}, OccurredAt: now.Add(time.Minute)},
		{BoardPath: "/b/board.yml", NoteID: "n9", Operation: domain.ChangeOperationDelete, OccurredAt: now},
	}
	for _, e := range events {
		if err := j.RecordChange(ctx, e); err != nil {
			t.Fatalf("RecordChange() error = %v", err)
		}
	}

	got, err := j.ListChanges(ctx, "/a/board.yml", 10)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events for board a, got %d", len(got))
	}
	if got[0].Operation != domain.ChangeOperationMove || got[1].Operation != domain.ChangeOperationCreate {
		t.Fatalf("expected newest first, got %q then %q", got[0].Operation, got[1].Operation)
	}
	if got[0].Metadata["to"] != "doing" || !got[0].OccurredAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("unexpected move event %#v", got[0])
	}

	limited, err := j.ListChanges(ctx, "/a/board.yml", 1)
	if err != nil {
		t.Fatalf("ListChanges(limit) error = %v", err)
	}
	if len(limited) != 1 || limited[0].ID != got[0].ID {
		t.Fatalf("unexpected limited events %#v", limited)
	}

	other, err := j.ListChanges(ctx, "/b/board.yml", 0)
	if err != nil {
		t.Fatalf("ListChanges(b) error = %v", err)
	}
	if len(other) != 1 || other[0].Metadata == nil {
		t.Fatalf("unexpected board b events %#v", other)
	}
}

func TestJournalReopenKeepsEvents(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "activity.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := j.RecordChange(ctx, domain.ChangeEvent{BoardPath: "p", NoteID: "n1", Operation: domain.ChangeOperationUpdate}); err != nil {
		t.Fatalf("RecordChange() error = %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open(reopen) error = %v", err)
	}
	t.Cleanup(func() {
		_ = reopened.Close()
	})
	got, err := reopened.ListChanges(ctx, "p", 5)
	if err != nil {
		t.Fatalf("ListChanges() error = %v", err)
	}
	if len(got) != 1 || got[0].OccurredAt.IsZero() {
		t.Fatalf("expected stamped event after reopen, got %#v", got)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/evanschultz/postit/internal/domain"
	"github.com/google/uuid"
)

// defaultActivityLimit caps activity queries without an explicit limit.
const defaultActivityLimit = 50

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	// BoardRef identifies the board in journal entries, usually its resolved path.
	BoardRef string
	Journal  Journal
	Logger   Logger
}

// IDGenerator returns raw entropy for new note identifiers.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service applies board intents to the in-memory board and persists each success.
type Service struct {
	store    Store
	journal  Journal
	logger   Logger
	idGen    IDGenerator
	clock    Clock
	boardRef string

	board  domain.Board
	loaded bool
	dirty  bool
}

// NewService constructs a new value for this package.
func NewService(store Store, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = uuid.NewString
	}
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}
	return &Service{
		store:    store,
		journal:  cfg.Journal,
		logger:   logger,
		idGen:    idGen,
		clock:    clock,
		boardRef: cfg.BoardRef,
	}
}

// Load reads the board from the store, replacing the in-memory copy.
func (s *Service) Load(ctx context.Context) (domain.Board, error) {
	board, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("board load failed", "board", s.boardRef, "err", err)
		return domain.Board{}, wrapStorage("load board", err)
	}
	s.board = board
	s.loaded = true
	s.dirty = false
	s.logger.Debug("board loaded", "board", s.boardRef, "columns", len(board.Columns), "notes", board.NoteCount())
	return board.Clone(), nil
}

// RecoverCorrupt moves an unreadable document aside and starts from a fresh board.
// It returns the path the old document was moved to.
func (s *Service) RecoverCorrupt(ctx context.Context) (string, error) {
	q, ok := s.store.(Quarantiner)
	if !ok {
		return "", ErrNotRecoverable
	}
	moved, err := q.Quarantine(ctx)
	if err != nil {
		return "", wrapStorage("quarantine board", err)
	}
	s.logger.Warn("corrupt board moved aside", "board", s.boardRef, "moved_to", moved)
	if _, err := s.Load(ctx); err != nil {
		return moved, err
	}
	return moved, nil
}

// Board returns a deep copy of the in-memory board.
func (s *Service) Board() domain.Board {
	return s.board.Clone()
}

// Dirty reports whether the in-memory board has changes that failed to save.
func (s *Service) Dirty() bool {
	return s.dirty
}

// Init saves the current board, creating the document when it does not exist yet.
func (s *Service) Init(ctx context.Context) (domain.Board, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Board{}, err
	}
	s.dirty = true
	if err := s.persist(ctx); err != nil {
		return domain.Board{}, err
	}
	return s.board.Clone(), nil
}

// Flush retries saving a board left dirty by a failed save.
func (s *Service) Flush(ctx context.Context) error {
	if !s.dirty {
		return nil
	}
	return s.persist(ctx)
}

// AddNoteInput holds input values for add note operations.
type AddNoteInput struct {
	ID       string
	ColumnID string
	Title    string
	Body     string
	Tags     []string
	Due      string
}

// AddNote creates a note at the end of a column. A blank column means the first column.
func (s *Service) AddNote(ctx context.Context, in AddNoteInput) (domain.Note, error) {
	var created domain.Note
	err := s.mutate(ctx, func(b *domain.Board) (domain.ChangeEvent, error) {
		columnID := strings.TrimSpace(in.ColumnID)
		if columnID == "" && len(b.Columns) > 0 {
			columnID = b.Columns[0].ID
		}
		note, err := b.AddNote(columnID, domain.NoteInput{
			ID:    in.ID,
			Title: in.Title,
			Body:  in.Body,
			Tags:  in.Tags,
			Due:   in.Due,
		}, domain.IDSource(s.idGen), s.clock())
		if err != nil {
			return domain.ChangeEvent{}, err
		}
		created = note
		return s.event(note.ID, domain.ChangeOperationCreate, map[string]string{
			"title":  note.Title,
			"column": columnID,
		}), nil
	})
	return created, err
}

// MoveNote moves a note one column forward or backward and returns the destination.
func (s *Service) MoveNote(ctx context.Context, noteID string, dir domain.Direction) (domain.Column, error) {
	var dest domain.Column
	err := s.mutate(ctx, func(b *domain.Board) (domain.ChangeEvent, error) {
		from := columnIDOf(*b, noteID)
		col, err := b.MoveNote(noteID, dir, s.clock())
		if err != nil {
			return domain.ChangeEvent{}, err
		}
		dest = col
		return s.event(noteID, domain.ChangeOperationMove, map[string]string{
			"from": from,
			"to":   col.ID,
		}), nil
	})
	return dest, err
}

// MoveNoteTo moves a note to the named column.
func (s *Service) MoveNoteTo(ctx context.Context, noteID, columnID string) error {
	return s.mutate(ctx, func(b *domain.Board) (domain.ChangeEvent, error) {
		from := columnIDOf(*b, noteID)
		if err := b.MoveNoteTo(noteID, strings.TrimSpace(columnID), s.clock()); err != nil {
			return domain.ChangeEvent{}, err
		}
		return s.event(noteID, domain.ChangeOperationMove, map[string]string{
			"from": from,
			"to":   strings.TrimSpace(columnID),
		}), nil
	})
}

// EditNoteInput holds input values for edit note operations. Nil fields are unchanged.
type EditNoteInput struct {
	NoteID    string
	Title     *string
	Body      *string
	Tags      []string
	ClearTags bool
	Due       *string
	ClearDue  bool
	ColumnID  *string
}

// Update converts the input into a domain update.
func (in EditNoteInput) Update() domain.NoteUpdate {
	return domain.NoteUpdate{
		Title:     in.Title,
		Body:      in.Body,
		Tags:      in.Tags,
		ClearTags: in.ClearTags,
		Due:       in.Due,
		ClearDue:  in.ClearDue,
		Column:    in.ColumnID,
	}
}

// EditNote applies a partial update to a note.
func (s *Service) EditNote(ctx context.Context, in EditNoteInput) (domain.Note, error) {
	var updated domain.Note
	err := s.mutate(ctx, func(b *domain.Board) (domain.ChangeEvent, error) {
		from := columnIDOf(*b, in.NoteID)
		note, err := b.EditNote(in.NoteID, in.Update(), s.clock())
		if err != nil {
			return domain.ChangeEvent{}, err
		}
		updated = note
		meta := map[string]string{"title": note.Title}
		if to := columnIDOf(*b, in.NoteID); to != from {
			meta["from"] = from
			meta["to"] = to
		}
		return s.event(note.ID, domain.ChangeOperationUpdate, meta), nil
	})
	return updated, err
}

// DeleteNote removes a note from the board.
func (s *Service) DeleteNote(ctx context.Context, noteID string) (domain.Note, error) {
	var deleted domain.Note
	err := s.mutate(ctx, func(b *domain.Board) (domain.ChangeEvent, error) {
		from := columnIDOf(*b, noteID)
		note, err := b.DeleteNote(noteID)
		if err != nil {
			return domain.ChangeEvent{}, err
		}
		deleted = note
		return s.event(noteID, domain.ChangeOperationDelete, map[string]string{
			"title":  note.Title,
			"column": from,
		}), nil
	})
	return deleted, err
}

// ListFilter narrows list results.
type ListFilter struct {
	ColumnID string
}

// ColumnView is one column with its notes in display order.
type ColumnView struct {
	Column domain.Column
	Notes  []domain.Note
}

// ListNotes returns column views without touching the store.
func (s *Service) ListNotes(ctx context.Context, filter ListFilter) ([]ColumnView, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	board := s.board.Clone()
	columnID := strings.TrimSpace(filter.ColumnID)
	if columnID != "" {
		if _, ok := board.Column(columnID); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownColumn, columnID)
		}
	}
	out := make([]ColumnView, 0, len(board.Columns))
	for _, col := range board.Columns {
		if columnID != "" && col.ID != columnID {
			continue
		}
		notes, err := board.NotesIn(col.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ColumnView{Column: col, Notes: notes})
	}
	return out, nil
}

// RecentActivity returns the newest journal entries for this board.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]domain.ChangeEvent, error) {
	if s.journal == nil {
		return []domain.ChangeEvent{}, nil
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	events, err := s.journal.ListChanges(ctx, s.boardRef, limit)
	if err != nil {
		return nil, wrapStorage("list activity", err)
	}
	return events, nil
}

// ensureLoaded loads the board on first use.
func (s *Service) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	_, err := s.Load(ctx)
	return err
}

// mutate applies fn to a copy of the board and commits it only on success.
// A committed board is saved exactly once; a failed save leaves it dirty for Flush.
// Callers return their result alongside a save error, since the change is already committed.
func (s *Service) mutate(ctx context.Context, fn func(*domain.Board) (domain.ChangeEvent, error)) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	next := s.board.Clone()
	event, err := fn(&next)
	if err != nil {
		s.logger.Debug("board intent rejected", "board", s.boardRef, "err", err)
		return err
	}
	s.board = next
	s.dirty = true
	if err := s.persist(ctx); err != nil {
		return err
	}
	s.record(ctx, event)
	return nil
}

// persist saves the whole board and clears the dirty flag on success.
func (s *Service) persist(ctx context.Context) error {
	if err := s.store.Save(ctx, s.board); err != nil {
		s.logger.Error("board save failed", "board", s.boardRef, "err", err)
		return wrapStorage("save board", err)
	}
	s.dirty = false
	s.logger.Debug("board saved", "board", s.boardRef, "notes", s.board.NoteCount())
	return nil
}

// record appends a change to the journal. Journal failures are logged only.
func (s *Service) record(ctx context.Context, event domain.ChangeEvent) {
	if s.journal == nil {
		return
	}
	if err := s.journal.RecordChange(ctx, event); err != nil {
		s.logger.Warn("activity journal write failed", "board", s.boardRef, "note", event.NoteID, "err", err)
	}
}

// event builds a change event stamped with the service clock.
func (s *Service) event(noteID string, op domain.ChangeOperation, meta map[string]string) domain.ChangeEvent {
	return domain.ChangeEvent{
		BoardPath:  s.boardRef,
		NoteID:     noteID,
		Operation:  op,
		Metadata:   meta,
		OccurredAt: s.clock().UTC(),
	}
}

// columnIDOf returns the id of the column holding noteID, or "".
func columnIDOf(b domain.Board, noteID string) string {
	idx, ok := b.ColumnOf(noteID)
	if !ok {
		return ""
	}
	return b.Columns[idx].ID
}

// wrapStorage tags err as a storage failure unless it already is one.
func wrapStorage(action string, err error) error {
	if errors.Is(err, ErrStorage) {
		return fmt.Errorf("%s: %w", action, err)
	}
	return fmt.Errorf("%s: %w: %w", action, ErrStorage, err)
}

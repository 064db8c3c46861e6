package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanschultz/postit/internal/domain"
)

// Store persists one board as a YAML document at a fixed path.
type Store struct {
	path     string
	fallback func() domain.Board
	now      func() time.Time
}

// Open returns a store for path. fallback builds the board used when no document exists.
func Open(path string, fallback func() domain.Board) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("board path is required")
	}
	if fallback == nil {
		fallback = func() domain.Board { return domain.DefaultBoard("") }
	}
	return &Store{
		path:     filepath.Clean(path),
		fallback: fallback,
		now:      time.Now,
	}, nil
}

// Path returns the document path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether a document is present at the store path.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the document, or returns the fallback board when it is missing or blank.
func (s *Store) Load(ctx context.Context) (domain.Board, error) {
	if err := ctx.Err(); err != nil {
		return domain.Board{}, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.fallback(), nil
		}
		return domain.Board{}, fmt.Errorf("read board %q: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s.fallback(), nil
	}
	board, err := Decode(data)
	if err != nil {
		return domain.Board{}, fmt.Errorf("decode board %q: %w", s.path, err)
	}
	return board, nil
}

// Save overwrites the document with the whole board via a temp file and rename.
func (s *Store) Save(ctx context.Context, b domain.Board) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(b)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create board dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".board-*.yml")
	if err != nil {
		return fmt.Errorf("create temp board: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp board: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp board: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp board: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace board %q: %w", s.path, err)
	}
	return nil
}

// Quarantine moves an unreadable document aside and returns its new path.
func (s *Store) Quarantine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().UTC().Format("20060102T150405"))
	if err := os.Rename(s.path, target); err != nil {
		return "", fmt.Errorf("move corrupt board: %w", err)
	}
	return target, nil
}

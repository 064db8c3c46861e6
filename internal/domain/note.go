package domain

import (
	"slices"
	"strings"
	"time"
)

// NoteIDLength is the length of generated note identifiers.
const NoteIDLength = 6

// maxIDAttempts bounds collision retries when allocating note ids.
const maxIDAttempts = 64

// IDSource returns raw entropy used to derive note identifiers.
type IDSource func() string

// Note is a single sticky note on the board.
type Note struct {
	ID        string
	Title     string
	Body      string
	Tags      []string
	Due       *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteInput holds values for a new note. ID is optional; blank means generate.
type NoteInput struct {
	ID    string
	Title string
	Body  string
	Tags  []string
	Due   string
}

// NoteUpdate holds a partial note update. Nil fields are left unchanged.
type NoteUpdate struct {
	Title     *string
	Body      *string
	Tags      []string
	ClearTags bool
	Due       *string
	ClearDue  bool
	Column    *string
}

// Empty reports whether the update changes nothing.
func (u NoteUpdate) Empty() bool {
	return u.Title == nil && u.Body == nil && len(u.Tags) == 0 && !u.ClearTags &&
		u.Due == nil && !u.ClearDue && u.Column == nil
}

// DueText returns the formatted due date, or "" when unset.
func (n Note) DueText() string {
	if n.Due == nil {
		return ""
	}
	return FormatDueDate(*n.Due)
}

// normalizeBody drops trailing whitespace and leading blank lines but keeps
// the indentation of the first text line. A whitespace-only body is empty.
func normalizeBody(body string) string {
	body = strings.TrimRight(body, " \t\r\n")
	for {
		line, rest, ok := strings.Cut(body, "\n")
		if !ok || strings.TrimSpace(line) != "" {
			return body
		}
		body = rest
	}
}

// clone returns a deep copy of the note.
func (n Note) clone() Note {
	out := n
	out.Tags = slices.Clone(n.Tags)
	if n.Due != nil {
		due := *n.Due
		out.Due = &due
	}
	return out
}

// NormalizeTags trims, lowercases, dedupes and sorts tags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// SplitTags parses comma separated tag text.
func SplitTags(text string) []string {
	return NormalizeTags(strings.Split(text, ","))
}

// ValidNoteID reports whether id is a non-empty lowercase alphanumeric string.
func ValidNoteID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// noteIDFrom derives a candidate note id from raw entropy.
func noteIDFrom(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == NoteIDLength {
				break
			}
		}
	}
	return b.String()
}

package yamlfile

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evanschultz/postit/internal/app"
	"github.com/evanschultz/postit/internal/domain"
	"gopkg.in/yaml.v3"
)

// documentVersion is the schema version written to new documents.
const documentVersion = 1

// document is the on-disk board layout.
type document struct {
	Version int                `yaml:"version"`
	Name    string             `yaml:"name"`
	Columns columnList         `yaml:"columns"`
	Notes   map[string]noteDoc `yaml:"notes"`
}

// columnDoc is one column entry keyed by column id.
type columnDoc struct {
	Name     string   `yaml:"name"`
	WIPLimit int      `yaml:"wip_limit,omitempty"`
	Notes    []string `yaml:"notes"`
}

// noteDoc is one note entry keyed by note id.
type noteDoc struct {
	Title     string    `yaml:"title"`
	Body      string    `yaml:"body,omitempty"`
	Tags      []string  `yaml:"tags,omitempty"`
	Due       string    `yaml:"due,omitempty"`
	Column    string    `yaml:"column"`
	CreatedAt time.Time `yaml:"created_at,omitempty"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// columnEntry pairs a column id with its body.
type columnEntry struct {
	ID  string
	Doc columnDoc
}

// columnList keeps columns in document order; a plain map would lose it.
type columnList []columnEntry

// MarshalYAML encodes the columns as an ordered mapping.
func (l columnList) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, entry := range l {
		var value yaml.Node
		if err := value.Encode(entry.Doc); err != nil {
			return nil, fmt.Errorf("encode column %q: %w", entry.ID, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: entry.ID}
		node.Content = append(node.Content, key, &value)
	}
	return node, nil
}

// UnmarshalYAML decodes an ordered mapping of columns.
func (l *columnList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: columns must be a mapping", value.Line)
	}
	out := make(columnList, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var doc columnDoc
		if err := value.Content[i+1].Decode(&doc); err != nil {
			return fmt.Errorf("column %q: %w", value.Content[i].Value, err)
		}
		out = append(out, columnEntry{ID: value.Content[i].Value, Doc: doc})
	}
	*l = out
	return nil
}

// Encode renders a board as a YAML document.
func Encode(b domain.Board) ([]byte, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("validate board: %w", err)
	}
	doc := document{
		Version: documentVersion,
		Name:    b.Name,
		Columns: make(columnList, 0, len(b.Columns)),
		Notes:   make(map[string]noteDoc, len(b.Notes)),
	}
	for _, col := range b.Columns {
		doc.Columns = append(doc.Columns, columnEntry{
			ID: col.ID,
			Doc: columnDoc{
				Name:     col.Name,
				WIPLimit: col.WIPLimit,
				Notes:    append([]string{}, col.NoteIDs...),
			},
		})
		for _, id := range col.NoteIDs {
			n := b.Notes[id]
			doc.Notes[id] = noteDoc{
				Title:     n.Title,
				Body:      n.Body,
				Tags:      n.Tags,
				Due:       n.DueText(),
				Column:    col.ID,
				CreatedAt: n.CreatedAt.UTC(),
				UpdatedAt: n.UpdatedAt.UTC(),
			}
		}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("close yaml encoder: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses and validates a YAML document into a board.
// Every failure wraps app.ErrCorruptDocument.
func Decode(data []byte) (domain.Board, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return domain.Board{}, corrupt(err)
	}
	if violations := validateNode(&root); len(violations) > 0 {
		msgs := make([]string, 0, len(violations))
		for _, v := range violations {
			msgs = append(msgs, v.Error())
		}
		return domain.Board{}, fmt.Errorf("%w: %s", app.ErrCorruptDocument, strings.Join(msgs, "; "))
	}
	var doc document
	if err := root.Decode(&doc); err != nil {
		return domain.Board{}, corrupt(err)
	}
	board, err := boardFromDocument(doc)
	if err != nil {
		return domain.Board{}, corrupt(err)
	}
	return board, nil
}

// boardFromDocument builds the board and places notes only named by their column field.
func boardFromDocument(doc document) (domain.Board, error) {
	board := domain.Board{
		Name:    strings.TrimSpace(doc.Name),
		Columns: make([]domain.Column, 0, len(doc.Columns)),
		Notes:   make(map[string]domain.Note, len(doc.Notes)),
	}
	for _, entry := range doc.Columns {
		ids := entry.Doc.Notes
		if ids == nil {
			ids = []string{}
		}
		board.Columns = append(board.Columns, domain.Column{
			ID:       entry.ID,
			Name:     strings.TrimSpace(entry.Doc.Name),
			WIPLimit: entry.Doc.WIPLimit,
			NoteIDs:  slices.Clone(ids),
		})
	}

	unlisted := []string{}
	for id, nd := range doc.Notes {
		note := domain.Note{
			ID:        id,
			Title:     nd.Title,
			Body:      nd.Body,
			Tags:      domain.NormalizeTags(nd.Tags),
			CreatedAt: nd.CreatedAt.UTC(),
			UpdatedAt: nd.UpdatedAt.UTC(),
		}
		if strings.TrimSpace(nd.Due) != "" {
			due, err := domain.ParseDueDate(nd.Due)
			if err != nil {
				return domain.Board{}, fmt.Errorf("note %q: %w", id, err)
			}
			note.Due = &due
		}
		board.Notes[id] = note
		if _, listed := board.ColumnOf(id); !listed {
			unlisted = append(unlisted, id)
		}
	}
	slices.Sort(unlisted)
	for _, id := range unlisted {
		idx := board.ColumnIndex(doc.Notes[id].Column)
		if idx < 0 {
			return domain.Board{}, fmt.Errorf("note %q names column %q: %w", id, doc.Notes[id].Column, domain.ErrUnknownColumn)
		}
		board.Columns[idx].NoteIDs = append(board.Columns[idx].NoteIDs, id)
	}

	if err := board.Validate(); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

// corrupt tags err as an unreadable document.
func corrupt(err error) error {
	return fmt.Errorf("%w: %w", app.ErrCorruptDocument, err)
}

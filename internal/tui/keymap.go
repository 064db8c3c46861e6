package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user overrides for board bindings. Each value is a comma separated key list.
type KeyConfig struct {
	Add         string
	Edit        string
	Delete      string
	MoveForward string
	MoveBack    string
	ActivityLog string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	reload      key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	addNote     key.Binding
	editNote    key.Binding
	deleteNote  key.Binding
	moveForward key.Binding
	moveBack    key.Binding
	retrySave   key.Binding
	copyID      key.Binding
	activityLog key.Binding

	showBoard    key.Binding
	showTimeline key.Binding
	showProject  key.Binding
	cycleView    key.Binding
	nextPane     key.Binding
	prevPane     key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "note up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "note down")),
		addNote:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new note")),
		editNote:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit note")),
		deleteNote:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete note")),
		moveForward: key.NewBinding(key.WithKeys(">", "m"), key.WithHelp(">/m", "move forward")),
		moveBack:    key.NewBinding(key.WithKeys("<", "b"), key.WithHelp("</b", "move back")),
		retrySave:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "retry save")),
		copyID:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy note id")),
		activityLog: key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "activity log")),

		showBoard:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "board view")),
		showTimeline: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "timeline view")),
		showProject:  key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "project view")),
		cycleView:    key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "next view")),
		nextPane:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
		prevPane:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous pane")),
	}
}

// applyConfig applies configured key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.addNote, cfg.Add, "n", "new note")
	configureBinding(&k.editNote, cfg.Edit, "e,enter", "edit note")
	configureBinding(&k.deleteNote, cfg.Delete, "d", "delete note")
	configureBinding(&k.moveForward, cfg.MoveForward, ">,m", "move forward")
	configureBinding(&k.moveBack, cfg.MoveBack, "<,b", "move back")
	configureBinding(&k.activityLog, cfg.ActivityLog, "g", "activity log")
}

// configureBinding replaces the keys and help of a binding.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a comma separated key list into matcher keys and help text.
// A blank value uses fallback.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	keys := []string{}
	helps := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		helps = append(helps, part)
		switch {
		case strings.EqualFold(part, "space"):
			keys = append(keys, " ", "space")
		case utf8.RuneCountInString(part) == 1:
			r, _ := utf8.DecodeRuneInString(part)
			keys = append(keys, part)
			if unicode.IsUpper(r) {
				keys = append(keys, "shift+"+string(unicode.ToLower(r)))
			}
		default:
			keys = append(keys, strings.ToLower(part))
		}
	}
	return keys, strings.Join(helps, "/")
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.addNote, k.editNote, k.moveForward, k.moveBack, k.deleteNote, k.cycleView, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.addNote, k.editNote, k.deleteNote, k.copyID, k.activityLog},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.moveForward, k.moveBack},
		{k.showBoard, k.showTimeline, k.showProject, k.cycleView, k.nextPane, k.prevPane},
		{k.retrySave, k.reload, k.toggleHelp, k.quit},
	}
}

// formKeyMap lists the bindings active while a note form is open.
type formKeyMap struct {
	next   key.Binding
	prev   key.Binding
	save   key.Binding
	cancel key.Binding
}

func newFormKeyMap() formKeyMap {
	return formKeyMap{
		next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		prev:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		save:   key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("enter/ctrl+s", "save")),
		cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	}
}

// ShortHelp handles short help.
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.next, k.prev, k.save, k.cancel}
}

// FullHelp handles full help.
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

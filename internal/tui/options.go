package tui

import (
	"context"
	"strings"
)

// DetailConfig selects which note fields the detail pane shows.
type DetailConfig struct {
	ShowBody       bool
	ShowTags       bool
	ShowDue        bool
	RenderMarkdown bool
}

// Option configures a Model.
type Option func(*Model)

// DefaultDetailConfig returns the detail pane defaults.
func DefaultDetailConfig() DetailConfig {
	return DetailConfig{
		ShowBody:       true,
		ShowTags:       true,
		ShowDue:        true,
		RenderMarkdown: true,
	}
}

// WithDetailConfig sets the detail pane fields.
func WithDetailConfig(cfg DetailConfig) Option {
	return func(m *Model) {
		m.detail = cfg
	}
}

// WithKeyConfig applies key overrides to the board bindings.
func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithBoardLabel sets the scope label shown next to the board name, such as "project".
func WithBoardLabel(label string) Option {
	return func(m *Model) {
		m.boardLabel = strings.TrimSpace(label)
	}
}

// WithActivityLimit caps the entries loaded into the activity overlay.
func WithActivityLimit(limit int) Option {
	return func(m *Model) {
		if limit > 0 {
			m.activityLimit = limit
		}
	}
}

// WithClipboard replaces the clipboard writer used by the copy binding.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithContext sets the context passed to service calls.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

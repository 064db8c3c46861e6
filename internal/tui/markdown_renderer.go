package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const minMarkdownWidth = 24

// markdownRenderer renders note bodies for the detail pane.
// The glamour renderer is rebuilt only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns styled text for body, or body itself when glamour fails.
func (r *markdownRenderer) render(body string, width int) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}
	width = max(width, minMarkdownWidth)
	if r.renderer == nil || r.width != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return body
		}
		r.renderer = renderer
		r.width = width
	}
	out, err := r.renderer.Render(body)
	if err != nil {
		return body
	}
	return strings.Trim(out, "\n")
}

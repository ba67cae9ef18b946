package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/aeolun/clicklite/pkg/markdown"
)

// messageRenderer turns message text into terminal output. Rendered bodies
// are cached per message until the wrap width changes.
type messageRenderer struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

// resolveMarkdownStyle picks a concrete glamour style. "auto" asks the
// terminal once, before the program takes over the screen.
func resolveMarkdownStyle(style string) string {
	switch style {
	case "dark", "light", "notty":
		return style
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func newMessageRenderer(style string) *messageRenderer {
	return &messageRenderer{
		style: resolveMarkdownStyle(style),
		cache: make(map[string]string),
	}
}

func (r *messageRenderer) setWidth(width int) {
	if width == r.width {
		return
	}
	r.width = width
	r.renderer = nil
	r.cache = make(map[string]string)
}

func (r *messageRenderer) ensure() {
	if r.renderer != nil || r.width <= 0 {
		return
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return
	}
	r.renderer = tr
}

// Render normalizes and renders content. The plain normalized text is used
// whenever glamour is unavailable or fails.
func (r *messageRenderer) Render(id, content string) string {
	key := id + "\x00" + content
	if out, ok := r.cache[key]; ok {
		return out
	}

	normalized := markdown.Normalize(content)
	out := normalized

	r.ensure()
	if r.renderer != nil {
		if rendered, err := r.renderer.Render(normalized); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}

	r.cache[key] = out
	return out
}

// reset drops cached bodies, e.g. when switching channels
func (r *messageRenderer) reset() {
	r.cache = make(map[string]string)
}

package tui

import "github.com/charmbracelet/glamour"

// contentRenderer turns agent-authored text into terminal output. Agent
// replies carry markdown-ish emphasis (**bold** and friends); rendering
// goes through glamour so the markup is interpreted, never echoed raw.
type contentRenderer struct {
	renderer *glamour.TermRenderer
}

func newContentRenderer(width int) *contentRenderer {
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Fall back to plain text rendering.
		return &contentRenderer{}
	}
	return &contentRenderer{renderer: r}
}

// Render formats agent content for display. On any renderer failure the
// raw text comes back unchanged; showing plain text beats showing nothing.
func (c *contentRenderer) Render(content string) string {
	if c.renderer == nil {
		return content
	}
	out, err := c.renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}

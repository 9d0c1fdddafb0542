package views

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"snapname/internal/adapters/tui/styles"
)

// Notice is the one-line feedback shown under the table
type Notice struct {
	Text string
	Err  bool
}

func (n Notice) render() string {
	switch {
	case n.Text == "":
		return ""
	case n.Err:
		return styles.ErrorMsg.Render(n.Text)
	default:
		return styles.Success.Render(n.Text)
	}
}

// page lays out one screen. Empty blocks are dropped.
type page struct {
	title    string
	subtitle string
	blocks   []string
	keys     []key.Binding
}

func (p page) render() string {
	parts := []string{styles.Title.Render(p.title)}
	if p.subtitle != "" {
		parts = append(parts, styles.Subtitle.Render(p.subtitle), "")
	}
	for _, b := range p.blocks {
		if b != "" {
			parts = append(parts, b, "")
		}
	}
	if len(p.keys) > 0 {
		parts = append(parts, keyHints(p.keys...))
	}
	return styles.App.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func keyHints(bindings ...key.Binding) string {
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, styles.HelpKey.Render(h.Key)+" "+styles.HelpDesc.Render(h.Desc))
	}
	return strings.Join(hints, styles.HelpSeparator.String())
}

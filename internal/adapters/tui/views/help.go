package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"snapname/internal/adapters/tui/styles"
)

var helpClose = key.NewBinding(
	key.WithKeys("esc", "q", "?"),
	key.WithHelp("esc/q/?", "close"),
)

// HelpModel lists the review keys and what each status means
type HelpModel struct{}

func NewHelpModel() *HelpModel {
	return &HelpModel{}
}

func (m *HelpModel) Init() tea.Cmd {
	return nil
}

func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, helpClose) {
		return m, func() tea.Msg { return SwitchToReviewMsg{} }
	}
	return m, nil
}

func (m *HelpModel) View() string {
	keys := lipgloss.JoinVertical(lipgloss.Left,
		styles.InputLabel.Render("Keys"),
		helpRow(styles.HelpKey, "j / k / ↑ / ↓", "Move between files"),
		helpRow(styles.HelpKey, "y", "Apply the plan shown (no new analysis)"),
		helpRow(styles.HelpKey, "c", "Copy the report as text"),
		helpRow(styles.HelpKey, "o", "Open the selected file"),
		helpRow(styles.HelpKey, "q / esc", "Quit"),
	)

	statuses := []string{styles.InputLabel.Render("Status")}
	for _, st := range []struct{ status, desc string }{
		{"rename", "Will be (or was) given the new name"},
		{"no_change", "Already has the name the model suggests"},
		{"skip", "Looks descriptively named already"},
		{"error", "Could not be read or renamed"},
	} {
		statuses = append(statuses, helpRow(styles.StatusStyle(st.status), st.status, st.desc))
	}

	return page{
		title:  "snapname review help",
		blocks: []string{keys, lipgloss.JoinVertical(lipgloss.Left, statuses...)},
		keys:   []key.Binding{helpClose},
	}.render()
}

func helpRow(label lipgloss.Style, name, desc string) string {
	return "  " + label.Render(fmt.Sprintf("%-16s", name)) + styles.HelpDesc.Render(desc)
}

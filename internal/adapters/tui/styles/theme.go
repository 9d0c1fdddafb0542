package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	Info      = lipgloss.Color("#60A5FA") // Blue
	White     = lipgloss.Color("#FFFFFF")

	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Change status cells
	StatusRename   = lipgloss.NewStyle().Foreground(Secondary).Bold(true)
	StatusNoChange = lipgloss.NewStyle().Foreground(Info)
	StatusSkip     = lipgloss.NewStyle().Foreground(Muted)
	StatusError    = lipgloss.NewStyle().Foreground(Error).Bold(true)
	Fallback       = lipgloss.NewStyle().Foreground(Warning).Italic(true)

	// Report table
	TableHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	TableCell = lipgloss.NewStyle().
			Padding(0, 1)

	TableBorder = lipgloss.NewStyle().
			Foreground(Muted)

	TableSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	Spinner = lipgloss.NewStyle().
		Foreground(Primary)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// StatusStyle returns the cell style for a change status name
func StatusStyle(status string) lipgloss.Style {
	switch status {
	case "rename":
		return StatusRename
	case "no_change":
		return StatusNoChange
	case "skip":
		return StatusSkip
	case "error":
		return StatusError
	default:
		return TableCell
	}
}

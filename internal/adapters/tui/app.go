package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"snapname/internal/adapters/tui/views"
)

// Screen is the view currently on top
type Screen int

const (
	ScreenReview Screen = iota
	ScreenHelp
)

// App is the review TUI: a batch plan table with a help overlay
type App struct {
	screen Screen
	review *views.ReviewModel
	help   *views.HelpModel
}

// NewApp creates the review application for dir. copyText and openFile may be nil.
func NewApp(dir string, reviewer views.Reviewer, copyText, openFile func(string) error) *App {
	return &App{
		screen: ScreenReview,
		review: views.NewReviewModel(dir, reviewer, copyText, openFile),
		help:   views.NewHelpModel(),
	}
}

// Init starts planning
func (a *App) Init() tea.Cmd {
	return a.review.Init()
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case views.SwitchToHelpMsg:
		a.screen = ScreenHelp
		return a, nil

	case views.SwitchToReviewMsg:
		a.screen = ScreenReview
		return a, nil
	}

	// keys go to the screen on top; everything else reaches the review
	if _, isKey := msg.(tea.KeyMsg); isKey && a.screen == ScreenHelp {
		_, cmd := a.help.Update(msg)
		return a, cmd
	}
	_, cmd := a.review.Update(msg)
	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	if a.screen == ScreenHelp {
		return a.help.View()
	}
	return a.review.View()
}

// Screen returns the view currently on top
func (a *App) Screen() Screen {
	return a.screen
}

// Review exposes the review model, mainly for reading the final report after Run
func (a *App) Review() *views.ReviewModel {
	return a.review
}

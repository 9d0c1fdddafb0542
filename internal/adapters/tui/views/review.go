package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"snapname/internal/adapters/tui/styles"
	"snapname/internal/domain"
)

// Reviewer plans a batch and applies exactly the plan it was given
type Reviewer interface {
	Plan(ctx context.Context) (*domain.BatchReport, error)
	Apply(ctx context.Context, plan *domain.BatchReport) (*domain.BatchReport, error)
}

// ReviewState represents the phase of the review view
type ReviewState int

const (
	ReviewLoading ReviewState = iota
	ReviewShowPlan
	ReviewApplying
	ReviewDone
	ReviewError
)

// ReviewKeyMap defines key bindings for the review view
type ReviewKeyMap struct {
	Apply key.Binding
	Copy  key.Binding
	Open  key.Binding
	Help  key.Binding
	Quit  key.Binding
}

var ReviewKeys = ReviewKeyMap{
	Apply: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "apply"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy report"),
	),
	Open: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open file"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Messages
type (
	PlanReadyMsg      struct{ Report *domain.BatchReport }
	PlanErrMsg        struct{ Err error }
	ApplyDoneMsg      struct{ Report *domain.BatchReport }
	ApplyErrMsg       struct{ Err error }
	CopiedMsg         struct{ Err error }
	OpenedMsg         struct{ Err error }
	SwitchToHelpMsg   struct{}
	SwitchToReviewMsg struct{}
)

// ReviewModel shows a batch plan and applies it on confirmation
type ReviewModel struct {
	width    int
	height   int
	notice   Notice
	reviewer Reviewer
	copyText func(string) error
	openFile func(string) error
	state    ReviewState
	plan     *domain.BatchReport
	applied  *domain.BatchReport
	err      error
	spinner  spinner.Model
	table    table.Model
	dir      string
}

// NewReviewModel creates the review view. copyText and openFile may be nil.
func NewReviewModel(dir string, reviewer Reviewer, copyText, openFile func(string) error) *ReviewModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	return &ReviewModel{
		reviewer: reviewer,
		copyText: copyText,
		openFile: openFile,
		spinner:  s,
		state:    ReviewLoading,
		dir:      dir,
	}
}

// Init starts planning
func (m *ReviewModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchPlan())
}

func (m *ReviewModel) fetchPlan() tea.Cmd {
	return func() tea.Msg {
		plan, err := m.reviewer.Plan(context.Background())
		if err != nil {
			return PlanErrMsg{Err: err}
		}
		return PlanReadyMsg{Report: plan}
	}
}

func (m *ReviewModel) applyPlan() tea.Cmd {
	plan := m.plan
	return func() tea.Msg {
		report, err := m.reviewer.Apply(context.Background(), plan)
		if err != nil {
			return ApplyErrMsg{Err: err}
		}
		return ApplyDoneMsg{Report: report}
	}
}

// State returns the current phase
func (m *ReviewModel) State() ReviewState {
	return m.state
}

// Notice returns the feedback line currently shown
func (m *ReviewModel) Notice() Notice {
	return m.notice
}

func (m *ReviewModel) say(text string, isErr bool) {
	m.notice = Notice{Text: text, Err: isErr}
}

// Current returns the report being shown: the applied one once available
func (m *ReviewModel) Current() *domain.BatchReport {
	if m.applied != nil {
		return m.applied
	}
	return m.plan
}

// Update handles messages for the review view
func (m *ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.Current() != nil {
			m.table.SetHeight(m.tableHeight())
			m.table.SetWidth(m.tableWidth())
		}
		return m, nil

	case spinner.TickMsg:
		if m.state == ReviewLoading || m.state == ReviewApplying {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case PlanReadyMsg:
		m.plan = msg.Report
		m.state = ReviewShowPlan
		m.table = m.buildTable(m.plan)
		if len(m.plan.Pending()) == 0 {
			m.say("Nothing to rename", false)
		}
		return m, nil

	case PlanErrMsg:
		m.err = msg.Err
		m.state = ReviewError
		return m, nil

	case ApplyDoneMsg:
		m.applied = msg.Report
		m.state = ReviewDone
		m.table = m.buildTable(m.applied)
		m.say(Summary(m.applied), m.applied.Errors > 0)
		return m, nil

	case ApplyErrMsg:
		m.state = ReviewShowPlan
		m.say(msg.Err.Error(), true)
		return m, nil

	case CopiedMsg:
		if msg.Err != nil {
			m.say("Copy failed: "+msg.Err.Error(), true)
		} else {
			m.say("Report copied to clipboard", false)
		}
		return m, nil

	case OpenedMsg:
		if msg.Err != nil {
			m.say("Open failed: "+msg.Err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *ReviewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// a started apply runs to completion
	if m.state == ReviewApplying {
		return m, nil
	}
	if key.Matches(msg, ReviewKeys.Quit) {
		return m, tea.Quit
	}

	switch m.state {
	case ReviewShowPlan, ReviewDone:
	case ReviewError:
		return m, tea.Quit
	default:
		return m, nil
	}

	switch {
	case key.Matches(msg, ReviewKeys.Help):
		return m, func() tea.Msg { return SwitchToHelpMsg{} }

	case key.Matches(msg, ReviewKeys.Apply):
		if m.state != ReviewShowPlan {
			return m, nil
		}
		if m.plan.Mock {
			m.say("Mock plans cannot be applied; run without --mock", true)
			return m, nil
		}
		if len(m.plan.Pending()) == 0 {
			return m, nil
		}
		m.notice = Notice{}
		m.state = ReviewApplying
		return m, tea.Batch(m.spinner.Tick, m.applyPlan())

	case key.Matches(msg, ReviewKeys.Copy):
		if m.copyText == nil {
			return m, nil
		}
		text := ReportText(m.Current())
		copyText := m.copyText
		return m, func() tea.Msg { return CopiedMsg{Err: copyText(text)} }

	case key.Matches(msg, ReviewKeys.Open):
		path := m.selectedPath()
		if m.openFile == nil || path == "" {
			return m, nil
		}
		openFile := m.openFile
		return m, func() tea.Msg { return OpenedMsg{Err: openFile(path)} }
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// selectedPath returns where the highlighted file lives now
func (m *ReviewModel) selectedPath() string {
	r := m.Current()
	if r == nil {
		return ""
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(r.Entries) {
		return ""
	}
	e := r.Entries[i]
	if e.AppliedPath != "" {
		return e.AppliedPath
	}
	return e.OriginalPath
}

func (m *ReviewModel) buildTable(r *domain.BatchReport) table.Model {
	cols := []table.Column{
		{Title: ReportHeaders[0], Width: 36},
		{Title: ReportHeaders[1], Width: 40},
		{Title: ReportHeaders[2], Width: 10},
		{Title: ReportHeaders[3], Width: 10},
	}
	rows := make([]table.Row, 0, len(r.Entries))
	for _, e := range r.Entries {
		rows = append(rows, table.Row(EntryCells(e)))
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(m.tableHeight()),
		table.WithWidth(m.tableWidth()),
	)
	s := table.DefaultStyles()
	s.Header = styles.TableHeader
	s.Selected = styles.TableSelected
	t.SetStyles(s)
	return t
}

func (m *ReviewModel) tableWidth() int {
	if m.width <= 0 {
		return 110
	}
	return max(m.width-4, 40)
}

func (m *ReviewModel) tableHeight() int {
	if m.height <= 0 {
		return 15
	}
	return max(m.height-10, 5)
}

// View renders the review view
func (m *ReviewModel) View() string {
	p := page{title: "snapname review", subtitle: m.dir}

	switch m.state {
	case ReviewLoading:
		p.blocks = []string{m.spinner.View() + " Analyzing images..."}
		return p.render()
	case ReviewApplying:
		p.blocks = []string{m.spinner.View() + " Applying plan..."}
		return p.render()
	case ReviewError:
		p.blocks = []string{
			Notice{Text: fmt.Sprintf("Error: %v", m.err), Err: true}.render(),
			styles.MutedText.Render("Press any key to exit"),
		}
		return p.render()
	}

	p.blocks = append(p.blocks, m.table.View())
	if m.state == ReviewShowPlan {
		p.blocks = append(p.blocks, styles.MutedText.Render(Summary(m.plan)))
		p.keys = []key.Binding{ReviewKeys.Apply, ReviewKeys.Copy, ReviewKeys.Open, ReviewKeys.Help, ReviewKeys.Quit}
	} else {
		p.keys = []key.Binding{ReviewKeys.Copy, ReviewKeys.Open, ReviewKeys.Quit}
	}
	p.blocks = append(p.blocks, m.notice.render())
	return p.render()
}

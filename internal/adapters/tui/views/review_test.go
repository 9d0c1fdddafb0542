package views

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"snapname/internal/domain"
)

type fakeReviewer struct {
	plan       *domain.BatchReport
	planErr    error
	planCalls  int
	applyCalls int
	appliedTo  *domain.BatchReport
}

func (f *fakeReviewer) Plan(ctx context.Context) (*domain.BatchReport, error) {
	f.planCalls++
	return f.plan, f.planErr
}

func (f *fakeReviewer) Apply(ctx context.Context, plan *domain.BatchReport) (*domain.BatchReport, error) {
	f.applyCalls++
	f.appliedTo = plan
	out := *plan
	out.Mode = domain.ModeRename
	out.Entries = append([]domain.ChangeEntry(nil), plan.Entries...)
	for i := range out.Entries {
		out.Entries[i].AppliedPath = "/shots/" + out.Entries[i].FinalName
	}
	out.Tally()
	return &out, nil
}

func samplePlan() *domain.BatchReport {
	r := &domain.BatchReport{
		RunID: "run",
		Dir:   "/shots",
		Mode:  domain.ModePreview,
		Entries: []domain.ChangeEntry{
			{OriginalPath: "/shots/IMG_1.png", ProposedName: "red_car.png", FinalName: "red_car.png", Status: domain.StatusRename, Size: 2048, Elapsed: 40 * time.Millisecond},
			{OriginalPath: "/shots/blue_login_dialog.png", Status: domain.StatusSkip, Reason: "already processed", Size: 10},
		},
	}
	r.Tally()
	return r
}

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// run feeds msg to the model and then feeds back whatever its command returns
func run(m *ReviewModel, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	out := cmd()
	m.Update(out)
	return out
}

func TestReview_AppliesTheSamePlan(t *testing.T) {
	rev := &fakeReviewer{plan: samplePlan()}
	m := NewReviewModel("/shots", rev, nil, nil)

	plan := m.fetchPlan()()
	m.Update(plan)
	if m.State() != ReviewShowPlan {
		t.Fatalf("state = %v, want ReviewShowPlan", m.State())
	}

	_, cmd := m.Update(keyMsg('y'))
	if m.State() != ReviewApplying {
		t.Fatalf("state = %v, want ReviewApplying", m.State())
	}
	if cmd == nil {
		t.Fatal("expected an apply command")
	}
	m.Update(m.applyPlan()())

	if rev.planCalls != 1 {
		t.Errorf("Plan called %d times, want 1", rev.planCalls)
	}
	if rev.applyCalls != 1 {
		t.Errorf("Apply called %d times, want 1", rev.applyCalls)
	}
	if rev.appliedTo != rev.plan {
		t.Error("Apply must receive the plan that was shown")
	}
	if m.State() != ReviewDone {
		t.Errorf("state = %v, want ReviewDone", m.State())
	}
	if m.Current().Mode != domain.ModeRename {
		t.Errorf("current report mode = %q, want rename", m.Current().Mode)
	}
}

func TestReview_MockPlanCannotBeApplied(t *testing.T) {
	plan := samplePlan()
	plan.Mock = true
	rev := &fakeReviewer{plan: plan}
	m := NewReviewModel("/shots", rev, nil, nil)
	m.Update(PlanReadyMsg{Report: plan})

	_, cmd := m.Update(keyMsg('y'))
	if cmd != nil {
		t.Error("expected no command for a mock plan")
	}
	if !m.Notice().Err {
		t.Error("expected an error message")
	}
	if rev.applyCalls != 0 {
		t.Errorf("Apply called %d times, want 0", rev.applyCalls)
	}
}

func TestReview_CopyReport(t *testing.T) {
	var copied string
	copyText := func(s string) error {
		copied = s
		return nil
	}
	m := NewReviewModel("/shots", &fakeReviewer{}, copyText, nil)
	m.Update(PlanReadyMsg{Report: samplePlan()})

	out := run(m, keyMsg('c'))
	if _, ok := out.(CopiedMsg); !ok {
		t.Fatalf("got %T, want CopiedMsg", out)
	}
	if !strings.Contains(copied, "red_car.png") {
		t.Errorf("copied text missing new name:\n%s", copied)
	}
	if m.Notice().Err {
		t.Errorf("unexpected error message %q", m.Notice().Text)
	}
}

func TestReview_CopyFailureIsShown(t *testing.T) {
	m := NewReviewModel("/shots", &fakeReviewer{}, func(string) error { return errors.New("no display") }, nil)
	m.Update(PlanReadyMsg{Report: samplePlan()})

	run(m, keyMsg('c'))
	if !m.Notice().Err || !strings.Contains(m.Notice().Text, "no display") {
		t.Errorf("message = %q, want copy failure", m.Notice().Text)
	}
}

func TestReview_OpenSelectedFile(t *testing.T) {
	var opened string
	m := NewReviewModel("/shots", &fakeReviewer{}, nil, func(p string) error {
		opened = p
		return nil
	})
	m.Update(PlanReadyMsg{Report: samplePlan()})

	run(m, keyMsg('o'))
	if opened != "/shots/IMG_1.png" {
		t.Errorf("opened %q, want the highlighted original", opened)
	}
}

func TestReview_PlanErrorQuitsOnKey(t *testing.T) {
	m := NewReviewModel("/shots", &fakeReviewer{planErr: errors.New("boom")}, nil, nil)
	m.Update(m.fetchPlan()())
	if m.State() != ReviewError {
		t.Fatalf("state = %v, want ReviewError", m.State())
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}

	_, cmd := m.Update(keyMsg('x'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestReview_KeysIgnoredWhileApplying(t *testing.T) {
	rev := &fakeReviewer{plan: samplePlan()}
	m := NewReviewModel("/shots", rev, nil, nil)
	m.Update(PlanReadyMsg{Report: rev.plan})
	m.Update(keyMsg('y'))

	_, cmd := m.Update(keyMsg('q'))
	if cmd != nil {
		t.Error("quit must wait for the apply to finish")
	}
}

func TestReportText(t *testing.T) {
	text := ReportText(samplePlan())

	for _, want := range []string{"IMG_1.png", "red_car.png", "already processed", "2.0 KB", "2 files: 1 processed, 1 skipped, 0 errors, avg 40ms"} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KB"},
		{3 << 20, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestEntryCells(t *testing.T) {
	tests := []struct {
		name  string
		entry domain.ChangeEntry
		want  string
	}{
		{"rename", domain.ChangeEntry{OriginalPath: "/a/x.png", FinalName: "red_car.png", Status: domain.StatusRename}, "red_car.png"},
		{"fallback", domain.ChangeEntry{OriginalPath: "/a/x.png", FinalName: "image_1718900000000.png", Status: domain.StatusRename, IsFallback: true}, "image_1718900000000.png (fallback)"},
		{"no change", domain.ChangeEntry{OriginalPath: "/a/red_car.png", FinalName: "red_car.png", Status: domain.StatusNoChange}, "(unchanged)"},
		{"skip", domain.ChangeEntry{OriginalPath: "/a/a_b_c.png", Status: domain.StatusSkip, Reason: "already processed"}, "already processed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells := EntryCells(tt.entry)
			if cells[1] != tt.want {
				t.Errorf("name cell = %q, want %q", cells[1], tt.want)
			}
		})
	}
}

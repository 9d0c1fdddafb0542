package views

import (
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"snapname/internal/adapters/tui/styles"
	"snapname/internal/domain"
)

// ReportHeaders are the columns shown for a batch report
var ReportHeaders = []string{"Original", "New name", "Status", "Size"}

// EntryCells returns the plain cell values of one entry
func EntryCells(e domain.ChangeEntry) []string {
	name := e.FinalName
	switch e.Status {
	case domain.StatusSkip, domain.StatusError:
		name = e.Reason
	case domain.StatusNoChange:
		name = "(unchanged)"
	}
	if e.IsFallback && e.Status == domain.StatusRename {
		name += " (fallback)"
	}
	return []string{filepath.Base(e.OriginalPath), name, string(e.Status), FormatSize(e.Size)}
}

// RenderReport renders a report as a styled table plus a summary line
func RenderReport(r *domain.BatchReport) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.TableBorder).
		Headers(ReportHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeader
			}
			return styles.TableCell
		})

	for _, e := range r.Entries {
		cells := EntryCells(e)
		cells[2] = styles.StatusStyle(cells[2]).Render(cells[2])
		if e.IsFallback && e.Status == domain.StatusRename {
			cells[1] = styles.Fallback.Render(cells[1])
		}
		t.Row(cells...)
	}

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(Summary(r)))
	b.WriteString("\n")
	return b.String()
}

// ReportText renders a report as plain aligned text, suitable for pasting
func ReportText(r *domain.BatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "snapname %s %s\n\n", r.Mode, r.Dir)

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(ReportHeaders, "\t"))
	for _, e := range r.Entries {
		fmt.Fprintln(w, strings.Join(EntryCells(e), "\t"))
	}
	w.Flush()

	b.WriteString("\n")
	b.WriteString(Summary(r))
	b.WriteString("\n")
	return b.String()
}

// Summary is the one-line aggregate of a report
func Summary(r *domain.BatchReport) string {
	s := fmt.Sprintf("%d files: %d processed, %d skipped, %d errors, avg %dms",
		r.TotalFiles, r.Processed, r.Skipped, r.Errors, r.AverageLatency.Milliseconds())
	if r.Mock {
		s += " (mock names)"
	}
	return s
}

// FormatSize renders a byte count in B, KB or MB
func FormatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

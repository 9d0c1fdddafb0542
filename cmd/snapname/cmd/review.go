package cmd

import (
	"context"
	"io"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"snapname/internal/adapters/opener"
	"snapname/internal/adapters/tui"
	"snapname/internal/adapters/tui/views"
	"snapname/internal/application/commands"
	"snapname/internal/config"
	"snapname/internal/domain"
	"snapname/internal/logger"
)

// batchReviewer adapts a BatchCommand to the review view
type batchReviewer struct {
	batch *commands.BatchCommand
	plan  commands.PlanOptions
	apply commands.ApplyOptions
}

var _ views.Reviewer = batchReviewer{}

func (r batchReviewer) Plan(ctx context.Context) (*domain.BatchReport, error) {
	return r.batch.Plan(ctx, r.plan)
}

func (r batchReviewer) Apply(ctx context.Context, plan *domain.BatchReport) (*domain.BatchReport, error) {
	return r.batch.Apply(ctx, plan, r.apply)
}

var reviewCmd = &cobra.Command{
	Use:   "review <dir>",
	Short: "Interactively review and apply names for a directory",
	Long: `Plan names for every image in a directory and show them in a table.
Press y to apply exactly what is shown, c to copy the report, o to open the
highlighted file and q to quit.

Examples:
  snapname review ~/Desktop
  snapname review ~/Desktop --dest ~/Pictures/named`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// stderr belongs to the alt screen while the table is up
		log = logger.InitLogger(snapshot.LogLevel, snapshot.LogFormat, io.Discard)

		rt, err := newRuntime(snapshot, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !batchMock {
			if err := checkBackend(cmd.Context(), snapshot); err != nil {
				return err
			}
		}

		dir := config.ExpandPath(args[0])
		batch, err := newBatch(rt, dir)
		if err != nil {
			return err
		}

		reviewer := batchReviewer{
			batch: batch,
			plan:  commands.PlanOptions{Mock: batchMock, Reprocess: batchReprocess},
			apply: applyOptions(),
		}
		app := tui.NewApp(dir, reviewer, clipboard.WriteAll, opener.NewOpener().Open)

		p := tea.NewProgram(app, tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	reviewCmd.Flags().StringVar(&batchDest, "dest", "", "copy renamed files into this directory instead of renaming in place")
	reviewCmd.Flags().BoolVar(&batchMock, "mock", false, "use generated names instead of calling the vision backend")
	reviewCmd.Flags().BoolVar(&batchReprocess, "reprocess", false, "include files that already look processed")
	rootCmd.AddCommand(reviewCmd)
}

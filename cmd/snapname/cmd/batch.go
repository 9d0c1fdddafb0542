package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snapname/internal/adapters/tui/views"
	"snapname/internal/app"
	"snapname/internal/application/commands"
	"snapname/internal/config"
	"snapname/internal/domain"
)

var (
	batchApply     bool
	batchDest      string
	batchMock      bool
	batchJSON      bool
	batchReprocess bool
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Preview or apply names for every image in a directory",
	Long: `Analyze every image directly inside a directory and show what each
file would be called. Nothing changes unless --apply is given.

With --dest the renamed files are copied into that directory (created if
missing) and the originals stay untouched. The backend is checked before
planning unless --mock is given; bad credentials or a missing model stop here.

Examples:
  snapname batch ~/Desktop
  snapname batch ~/Desktop --mock
  snapname batch ~/Desktop --apply
  snapname batch ~/Desktop --apply --dest ~/Pictures/named --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchMock && batchApply {
			return fmt.Errorf("--mock plans cannot be applied")
		}
		ctx := context.Background()

		rt, err := newRuntime(snapshot, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if !batchMock {
			if err := checkBackend(ctx, snapshot); err != nil {
				return err
			}
		}

		batch, err := newBatch(rt, config.ExpandPath(args[0]))
		if err != nil {
			return err
		}

		report, err := batch.Plan(ctx, commands.PlanOptions{Mock: batchMock, Reprocess: batchReprocess})
		if err != nil {
			return err
		}

		if batchApply {
			report, err = batch.Apply(ctx, report, applyOptions())
			if err != nil {
				return err
			}
		}

		if batchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Print(views.RenderReport(report))
		if !batchApply && len(report.Pending()) > 0 && !report.Mock {
			fmt.Println("Run again with --apply to rename.")
		}
		return nil
	},
}

func newBatch(rt *app.Runtime, dir string) (*commands.BatchCommand, error) {
	p, err := rt.Pipeline(snapshot)
	if err != nil {
		return nil, err
	}
	return commands.NewBatchCommand(p, dir), nil
}

func applyOptions() commands.ApplyOptions {
	opts := commands.ApplyOptions{Mode: domain.ModeRename, Clipboard: snapshot.Clipboard.Enabled}
	if batchDest != "" {
		opts.Mode = domain.ModeCopy
		opts.DestDir = config.ExpandPath(batchDest)
	}
	return opts
}

func init() {
	batchCmd.Flags().BoolVar(&batchApply, "apply", false, "rename (or copy with --dest) after planning")
	batchCmd.Flags().StringVar(&batchDest, "dest", "", "copy renamed files into this directory instead of renaming in place")
	batchCmd.Flags().BoolVar(&batchMock, "mock", false, "use generated names instead of calling the vision backend")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print the report as JSON")
	batchCmd.Flags().BoolVar(&batchReprocess, "reprocess", false, "include files that already look processed")
	rootCmd.AddCommand(batchCmd)
}

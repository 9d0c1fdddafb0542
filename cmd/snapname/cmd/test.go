package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"snapname/internal/adapters/vision"
	"snapname/internal/application/commands"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that the configured vision backend is usable",
	Long: `Send the selected backend its smallest possible request and report
whether it answered, how long it took and whether a failure is worth retrying.

Examples:
  snapname test
  snapname test --provider lmstudio`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := snapshot.Validate(false); err != nil {
			return err
		}
		analyzer, err := vision.FromSnapshot(snapshot, log)
		if err != nil {
			return err
		}

		res := commands.NewTestConnectionCommand(analyzer).Execute(context.Background())
		if res.Success {
			fmt.Printf("ok   %s (%dms)\n", res.Message, res.Elapsed.Milliseconds())
			return nil
		}

		kind := "transient"
		if res.Permanent {
			kind = "permanent"
		}
		return fmt.Errorf("%s backend failed (%s): %w", res.Provider, kind, res.Err)
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
}

package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyPrune time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent renames",
	Long: `Show the most recent renames and copies, newest first.

Examples:
  snapname history
  snapname history -n 50
  snapname history --prune 720h`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !snapshot.History.Enabled {
			return fmt.Errorf("history is disabled in the config")
		}
		rt, err := newRuntime(snapshot, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		if historyPrune > 0 {
			if last, err := rt.History.LastPruned(context.Background()); err == nil && !last.IsZero() {
				fmt.Printf("Last pruned %s\n", last.Local().Format("2006-01-02 15:04"))
			}
			n, err := rt.History.Prune(context.Background(), time.Now().Add(-historyPrune))
			if err != nil {
				return err
			}
			log.Info("history pruned", "deleted", n, "older_than", historyPrune.String())
			fmt.Printf("Deleted %d records older than %s\n", n, historyPrune)
			return nil
		}

		records, err := rt.History.Recent(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No renames recorded")
			return nil
		}

		for _, r := range records {
			fallback := ""
			if r.IsFallback {
				fallback = " (fallback)"
			}
			fmt.Printf("%s  %-6s %s -> %s  [%s]%s\n",
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				r.Mode,
				filepath.Base(r.OriginalPath),
				r.FinalPath,
				r.Provider,
				fallback,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of records to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete records older than this instead of listing")
	rootCmd.AddCommand(historyCmd)
}

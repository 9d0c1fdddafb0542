package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"snapname/internal/adapters/vision"
	"snapname/internal/ports"
)

var modelsCmd = &cobra.Command{
	Use:   "models [list|pull]",
	Short: "List or fetch models on a local backend",
	Long: `List the models a local backend serves, or pull one onto the Ollama daemon.

Examples:
  snapname models list
  snapname models list --provider lmstudio
  snapname models pull llava`,
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := vision.FromSnapshot(snapshot, log)
		if err != nil {
			return err
		}

		var models []string
		switch b := analyzer.(type) {
		case ports.ModelManager:
			models, err = b.ListModels(context.Background())
		case interface {
			ListModels(context.Context) ([]string, error)
		}:
			models, err = b.ListModels(context.Background())
		default:
			return fmt.Errorf("%s does not list models", analyzer.Kind())
		}
		if err != nil {
			return err
		}

		current := vision.ModelName(snapshot)
		for _, m := range models {
			marker := " "
			if m == current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, m)
		}
		return nil
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull [model]",
	Short: "Pull a model onto the Ollama daemon (defaults to the configured one)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		analyzer, err := vision.FromSnapshot(snapshot, log)
		if err != nil {
			return err
		}
		mm, ok := analyzer.(ports.ModelManager)
		if !ok {
			return fmt.Errorf("%s cannot pull models", analyzer.Kind())
		}

		model := vision.ModelName(snapshot)
		if len(args) == 1 {
			model = args[0]
		}
		if model == "" {
			return fmt.Errorf("no model given and none configured")
		}

		fmt.Printf("Pulling %s...\n", model)
		if err := mm.EnsureModel(cmd.Context(), model); err != nil {
			return err
		}
		fmt.Printf("%s is ready\n", model)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPullCmd)
}

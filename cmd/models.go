package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plotloom/plotloom-cli/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List and inspect known models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := requireConfig()
		for _, mi := range ai.ListModels() {
			marker := "  "
			if mi.Name == c.DefaultModel {
				marker = "* "
			}
			fmt.Printf("%s%-32s %7d tokens  %s\n", marker, mi.Name, mi.ContextTokens, mi.Notes)
		}
		fmt.Println()
		fmt.Println("* marks the configured default. Any Groq model name is accepted")
		fmt.Println("  with --model even when it is not listed here.")
		return nil
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show details for one model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mi, ok := ai.LookupModel(args[0])
		if !ok {
			return fmt.Errorf("unknown model %q (see 'plotloom models list')", args[0])
		}
		fmt.Printf("name:           %s\n", mi.Name)
		fmt.Printf("context tokens: %d\n", mi.ContextTokens)
		if mi.Notes != "" {
			fmt.Printf("notes:          %s\n", mi.Notes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var generateOutput string

var generateCmd = &cobra.Command{
	Use:   "generate PIPELINE...",
	Short: "Generate state machine definitions and policies",
	Long: `Compile each pipeline file into an Amazon States Language definition
(<name>.asl.json) and the IAM policy its role needs (<name>.policy.json).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer eng.Close(ctx)

		for _, path := range args {
			g, err := eng.Generate(ctx, path, generateOutput)
			if err != nil {
				return fmt.Errorf("generating %s: %w", path, err)
			}
			fmt.Printf("%s (%d states)\n", g.Name, len(g.Machine.StateNames()))
			fmt.Printf("  Definition: %s\n", g.DefinitionPath)
			fmt.Printf("  Policy:     %s\n", g.PolicyPath)
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "./output", "output directory for generated files")
	rootCmd.AddCommand(generateCmd)
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emrlaunch/emrlaunch/internal/workflow"
)

var policyCmd = &cobra.Command{
	Use:   "policy PIPELINE",
	Short: "Print the IAM policy a pipeline's state machine needs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer eng.Close(ctx)

		p, err := workflow.LoadPipeline(args[0])
		if err != nil {
			return err
		}
		sm, err := eng.Compile(ctx, p)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sm.Policy()); err != nil {
			return fmt.Errorf("encoding policy: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(policyCmd)
}

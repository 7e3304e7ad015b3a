package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var preflightPrincipal string

var preflightCmd = &cobra.Command{
	Use:   "preflight NAME",
	Short: "Simulate a generated policy against an IAM principal",
	Long: `Ask IAM whether the principal that will run the state machine is allowed
every action of the generated policy. Without --principal the caller's
identity is checked.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		client, err := newAWSClient(ctx, eng.Config)
		if err != nil {
			return err
		}

		fmt.Println("Simulating policy actions...")
		result, err := eng.Preflight(ctx, client, args[0], preflightPrincipal)
		if err != nil {
			return err
		}

		fmt.Printf("  Principal: %s\n", result.Principal)
		fmt.Printf("  Checked:   %d action(s)\n", result.Checked)
		for _, d := range result.Denied {
			fmt.Printf("  DENIED  %s on %s (%s)\n", d.Action, d.Resource, d.Decision)
		}
		for _, e := range result.Errors {
			fmt.Printf("  ERROR   %s\n", e)
		}
		if !result.OK() {
			return fmt.Errorf("preflight failed for %s", args[0])
		}
		fmt.Println("  All actions allowed.")
		return nil
	},
}

func init() {
	preflightCmd.Flags().StringVar(&preflightPrincipal, "principal", "", "IAM role or user ARN to simulate (default: caller)")
	rootCmd.AddCommand(preflightCmd)
}

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rollbackForget bool

var rollbackCmd = &cobra.Command{
	Use:   "rollback [NAME...]",
	Short: "Withdraw published definitions from S3",
	Long: `Delete the published objects of the named state machines, or of every
published machine when no name is given. With --forget the machines are also
removed from the local state.`,
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
		result, err := eng.Rollback(ctx, client, args, rollbackForget)
		if err != nil {
			return err
		}

		for _, n := range result.Withdrawn {
			fmt.Printf("  Withdrawn: %s\n", n)
		}
		for _, n := range result.Forgotten {
			fmt.Printf("  Forgotten: %s\n", n)
		}
		for _, e := range result.Errors {
			fmt.Printf("  ERROR: %s\n", e)
		}
		if !result.OK() {
			return fmt.Errorf("rollback finished with %d error(s)", len(result.Errors))
		}
		if len(result.Withdrawn)+len(result.Forgotten) == 0 {
			fmt.Println("Nothing to roll back.")
		}
		return nil
	},
}

func init() {
	rollbackCmd.Flags().BoolVar(&rollbackForget, "forget", false, "also remove the machines from the local state")
	rootCmd.AddCommand(rollbackCmd)
}

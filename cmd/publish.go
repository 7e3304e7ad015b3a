package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var publishReplace bool

var publishCmd = &cobra.Command{
	Use:   "publish NAME",
	Short: "Upload a generated definition and policy to S3",
	Long: `Upload the generated definition and policy of a state machine to
s3://<aws.s3_bucket>/<aws.s3_prefix><NAME>/ for deployment tooling to pick up.`,
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
		result, err := eng.Publish(ctx, client, args[0], publishReplace)
		if err != nil {
			return err
		}
		fmt.Printf("Published %s\n", args[0])
		fmt.Printf("  Definition: %s\n", result.DefinitionS3URI)
		if result.PolicyS3URI != "" {
			fmt.Printf("  Policy:     %s\n", result.PolicyS3URI)
		}
		return nil
	},
}

func init() {
	publishCmd.Flags().BoolVar(&publishReplace, "replace", false, "delete previously published objects first")
	rootCmd.AddCommand(publishCmd)
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emrlaunch/emrlaunch/internal/workflow"
)

var validateClusters []string

var validateCmd = &cobra.Command{
	Use:   "validate [PIPELINE...]",
	Short: "Check pipelines and stored cluster configurations",
	Long: `Compile pipelines without writing anything, and check stored cluster
configurations against the fields the create-cluster task projects.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && len(validateClusters) == 0 {
			return fmt.Errorf("nothing to validate: pass pipeline files or --cluster")
		}
		eng, err := newEngine()
		if err != nil {
			return err
		}
		ctx := context.Background()
		defer eng.Close(ctx)

		failed := 0
		for _, path := range args {
			p, err := workflow.LoadPipeline(path)
			if err == nil {
				var sm workflow.StateMachine
				if sm, err = eng.Compile(ctx, p); err == nil {
					fmt.Printf("  OK    %s: %s (%d states)\n", path, p.Name, len(sm.StateNames()))
					continue
				}
			}
			failed++
			fmt.Printf("  FAIL  %s: %v\n", path, err)
		}

		for _, ref := range validateClusters {
			ns, name, ok := strings.Cut(ref, "/")
			if !ok || ns == "" || name == "" {
				failed++
				fmt.Printf("  FAIL  %s: expected NAMESPACE/NAME\n", ref)
				continue
			}
			ignored, err := eng.CheckClusterConfiguration(ctx, ns, name)
			if err != nil {
				failed++
				fmt.Printf("  FAIL  cluster %s: %v\n", ref, err)
				continue
			}
			fmt.Printf("  OK    cluster %s\n", ref)
			for _, f := range ignored {
				fmt.Printf("        %s is fixed by the launch task; the stored value is ignored\n", f)
			}
		}

		if failed > 0 {
			return fmt.Errorf("%d validation error(s)", failed)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().StringArrayVar(&validateClusters, "cluster", nil, "stored cluster configuration to check, as NAMESPACE/NAME (repeatable)")
	rootCmd.AddCommand(validateCmd)
}

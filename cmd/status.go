package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show generated state machines and their progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := newEngine()
		if err != nil {
			return err
		}
		st, err := eng.LoadState()
		if err != nil {
			return fmt.Errorf("loading state: %w", err)
		}

		names := st.Names()
		if len(names) == 0 {
			fmt.Println("No state machines generated yet.")
			return nil
		}
		for _, name := range names {
			m := st.Machines[name]
			fmt.Printf("%s [%s]\n", name, m.Status)
			if m.PipelinePath != "" {
				fmt.Printf("  Pipeline:   %s\n", m.PipelinePath)
			}
			fmt.Printf("  Definition: %s (generated %s)\n", m.DefinitionPath, m.GeneratedAt.Format("2006-01-02 15:04"))
			if !m.VerifiedAt.IsZero() {
				fmt.Printf("  Preflight:  %s (%s)\n", m.PreflightPrincipal, m.VerifiedAt.Format("2006-01-02 15:04"))
			}
			if m.DefinitionS3URI != "" {
				fmt.Printf("  Published:  %s (%s)\n", m.DefinitionS3URI, m.PublishedAt.Format("2006-01-02 15:04"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/emrlaunch/emrlaunch/internal/config"
	"github.com/emrlaunch/emrlaunch/internal/wizard"
)

var (
	initForce   bool
	initNoCheck bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long:  `Walk through a form to create an emrlaunch configuration file at ~/.emrlaunch/emrlaunch.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("checking %s: %w", path, err)
		}

		check := wizard.CheckStore
		if initNoCheck {
			check = nil
		}
		cfg, err := wizard.RunConfig(check)
		if err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Configuration saved to %s\n", path)
		fmt.Println("Add backing functions under 'functions:' before generating cluster launch pipelines.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	initCmd.Flags().BoolVar(&initNoCheck, "no-check", false, "save without connecting to the store")
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emrlaunch/emrlaunch/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and validate the emrlaunch configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  AWS:\n")
		fmt.Printf("    Region:         %s\n", orDeployTime(cfg.AWS.Region))
		fmt.Printf("    Partition:      %s\n", orDeployTime(cfg.AWS.Partition))
		fmt.Printf("    Account:        %s\n", orDeployTime(cfg.AWS.Account))
		fmt.Printf("    Profile:        %s\n", cfg.AWS.Profile)
		fmt.Printf("    Publish to:     s3://%s/%s\n", cfg.AWS.S3Bucket, cfg.AWS.S3Prefix)
		fmt.Println()
		fmt.Printf("  Store:\n")
		fmt.Printf("    Type:           %s\n", cfg.Store.Type)
		switch cfg.Store.Type {
		case config.StoreFile:
			fmt.Printf("    Directory:      %s\n", cfg.Store.Directory)
		case config.StoreS3:
			fmt.Printf("    Location:       s3://%s/%s\n", cfg.Store.Bucket, cfg.Store.Prefix)
		case config.StorePostgres:
			fmt.Printf("    Connection:     %s\n", maskSecret(cfg.Store.ConnectionString))
			fmt.Printf("    Table:          %s\n", cfg.Store.Table)
		case config.StoreMongo:
			fmt.Printf("    Connection:     %s\n", maskSecret(cfg.Store.ConnectionString))
			fmt.Printf("    Database:       %s\n", cfg.Store.Database)
		}
		if cfg.Profile.Name != "" {
			fmt.Println()
			fmt.Printf("  Profile:          %s/%s\n", cfg.Profile.Namespace, cfg.Profile.Name)
		}
		if keys := cfg.FunctionKeys(); len(keys) > 0 {
			fmt.Println()
			fmt.Printf("  Functions:\n")
			for _, k := range keys {
				f := cfg.Functions[k]
				ref := f.Name
				if f.ARN != "" {
					ref = f.ARN
				}
				fmt.Printf("    %-15s %s\n", k+":", ref)
			}
		}
		fmt.Println()
		fmt.Printf("  Logging:          %s (%s)\n", cfg.Logging.Level, cfg.Logging.Directory)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Println("Validation errors:")
			for _, p := range strings.Split(strings.TrimPrefix(err.Error(), config.ErrInvalid.Error()+": "), "; ") {
				fmt.Printf("  - %s\n", p)
			}
			return err
		}

		fmt.Println("Configuration is valid.")
		return nil
	},
}

func orDeployTime(s string) string {
	if s == "" {
		return "(resolved at deploy time)"
	}
	return s
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd)
}

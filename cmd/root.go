package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	awspkg "github.com/emrlaunch/emrlaunch/internal/aws"
	"github.com/emrlaunch/emrlaunch/internal/config"
	"github.com/emrlaunch/emrlaunch/internal/engine"
	"github.com/emrlaunch/emrlaunch/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "emrlaunch",
	Short: "emrlaunch generates Step Functions definitions for EMR workflows",
	Long: `emrlaunch compiles pipeline files into Amazon States Language definitions
that launch EMR clusters, run steps and tear clusters down, together with the
IAM policy the state machine needs.

Profiles and cluster configurations are kept in a document store read by the
backing functions at execution time.`,
	SilenceUsage: true,
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.emrlaunch/emrlaunch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides logging.level")
}

// loadConfig reads the config file. Without --config a missing default file
// means defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err == nil {
		return cfg, nil
	}
	if cfgFile == "" && errors.Is(err, fs.ErrNotExist) {
		cfg = &config.Config{Version: config.CurrentVersion}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return nil, fmt.Errorf("loading config: %w", err)
}

// newEngine builds the engine shared by the commands.
func newEngine() (*engine.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.Setup(level, cfg.Logging.Directory)
	if err != nil {
		return nil, err
	}
	return engine.New(cfg, logger), nil
}

func newAWSClient(ctx context.Context, cfg *config.Config) (*awspkg.RealClient, error) {
	client, err := awspkg.NewRealClient(ctx, cfg.AWS.Profile, cfg.AWS.Region)
	if err != nil {
		return nil, fmt.Errorf("creating AWS client: %w", err)
	}
	return client, nil
}

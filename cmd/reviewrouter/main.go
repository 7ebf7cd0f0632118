package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"reviewrouter/internal/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger   *zap.Logger
	logLevel zap.AtomicLevel
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reviewrouter",
	Short: "reviewrouter - review link distribution and generation backend",
	Long: `reviewrouter serves the review funnel for small businesses:

  - round-robin distribution of survey visitors across review links
  - per-tier survey forms and AI-generated review drafts
  - tenant configuration with secret-preserving admin edits
  - Stripe-backed subscription gating

Configuration comes from a YAML file plus environment overrides.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		logLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if lvl, err := zapcore.ParseLevel(cfg.Logging.Level); err == nil {
			logLevel.SetLevel(lvl)
		}
		if verbose {
			logLevel.SetLevel(zapcore.DebugLevel)
		}

		zapCfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "text" {
			zapCfg = zap.NewDevelopmentConfig()
		}
		zapCfg.Level = logLevel
		if cfg.Logging.File != "" {
			zapCfg.OutputPaths = []string{cfg.Logging.File}
		}

		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// settingsCmd groups configuration file helpers.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the configuration file",
}

// settingsInitCmd writes the default configuration file.
var settingsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config already exists at %s", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		cmd.Printf("wrote default config to %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "reviewrouter.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	settingsCmd.AddCommand(settingsInitCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

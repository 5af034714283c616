package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dinerd/internal/config"
	"dinerd/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool
	provider   string
	noDelay    bool

	// Loaded once in PersistentPreRunE, shared by all commands
	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dinerd",
	Short: "dinerd - restaurant recommendation dialog agent",
	Long: `dinerd is a text-based dialog agent that recommends restaurants.

It classifies each utterance into a dialog act, extracts area, price range
and food type preferences (with fuzzy matching for misspellings), looks up
matching restaurants in SQLite and applies a small rule base to additional
requirements such as "romantic" or "touristic", explaining every inference.

Run without arguments to start a conversation.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Logging.Development)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: start the conversation
		return runChat(cmd, args)
	},
}

// applyFlagOverrides lets command-line flags win over the config file.
func applyFlagOverrides() {
	if provider != "" {
		cfg.Classifier.Provider = provider
	}
	if noDelay {
		cfg.Dialog.ResponseDelay = false
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "dinerd.yaml", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&provider, "classifier", "", "classifier backend (keyword, genai)")
	rootCmd.PersistentFlags().BoolVar(&noDelay, "no-delay", false, "disable the artificial response delay")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(dataCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chitralabs/chitra/internal/config"
)

// Shared CLI flags (used across multiple command files)
var (
	verbose     bool
	noProactive bool
	configPath  string
)

// AppConfig holds the loaded configuration (set by main)
var AppConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	AppConfig = c

	rootCmd := &cobra.Command{
		Use:   "chitra",
		Short: "Chitra - AI operating system",
		Long: `Chitra is an AI-first operating system for personal devices. The LLM is
the primary interface: it remembers who you are, manages your contacts,
calendar, reminders and tasks, and speaks up on its own when something
needs your attention.

Just type 'chitra' to boot the orchestration core.`,
		Run: func(cmd *cobra.Command, args []string) {
			RunAssistant()
		},
		// --config replaces the default <data_dir>/config.yaml lookup for
		// this invocation and every subcommand.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return nil
			}
			loaded, err := config.LoadFrom(configPath)
			if err != nil {
				return fmt.Errorf("load config %s: %w", configPath, err)
			}
			AppConfig = loaded
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to an alternate config.yaml")
	rootCmd.Flags().BoolVar(&noProactive, "no-proactive", false, "disable the proactive background loop")

	rootCmd.AddCommand(SeedCmd())
	rootCmd.AddCommand(ConfigCmd())

	return rootCmd
}

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/caremesh/config"
	"github.com/hupe1980/caremesh/logging"
)

var (
	// cfg is loaded before every subcommand runs.
	cfg config.Config

	logger logging.Logger = logging.NoOpLogger{}
)

var rootCmd = &cobra.Command{
	Use:   "caremesh",
	Short: "Non-diagnostic medical information assistant",
	Long: `caremesh structures patient intake data, describes medical images, answers
questions from uploaded reports and drafts cautious educational guidance. Every
answer passes a safety review and carries a medical disclaimer.

Models are reached through OpenAI-compatible servers (including a local Ollama),
Anthropic or Gemini. Settings come from caremesh.yaml and CAREMESH_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = c

		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger = logging.NewLogger(&logging.LoggerConfig{
			Level:     level,
			Format:    cfg.Log.Format,
			Output:    os.Stderr,
			Component: "caremesh",
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./caremesh.yaml or ~/.config/caremesh/caremesh.yaml)")
}

// componentLogger scopes the configured logger to a component.
func componentLogger(name string) logging.Logger {
	if cl, ok := logger.(*logging.CareLogger); ok {
		return cl.WithComponent(name)
	}
	return logger
}

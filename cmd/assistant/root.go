package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ptit-hub/study-assistant/config"
	"github.com/ptit-hub/study-assistant/pkg/logger"
)

// cli carries what every subcommand needs once the root has loaded it.
type cli struct {
	logLevel string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Conversational assistant over a student's academic records",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.logLevel != "" {
				cfg.App.LogLevel = c.logLevel
			}
			c.cfg = cfg
			c.logger = setupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	root.AddCommand(
		c.serveCmd(),
		c.botCmd(),
		c.askCmd(),
		c.forgetCmd(),
		c.featuresCmd(),
	)
	return root
}

// setupLogger configures structured logging: JSON in production, text
// everywhere else. Development logs carry source locations.
func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := logger.DefaultOptions()
	opts.Output = w
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	opts.Format = logger.FormatFor(cfg.IsProduction())
	opts.AddSource = cfg.IsDevelopment()
	opts.Attrs = []any{"app", cfg.App.Name, "version", cfg.App.Version}

	log := logger.New(opts)
	slog.SetDefault(log)
	return log
}

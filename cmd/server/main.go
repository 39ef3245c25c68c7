package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mxchen/turtlesoup-server/internal/app"
	"github.com/mxchen/turtlesoup-server/internal/config"
	"github.com/mxchen/turtlesoup-server/internal/log"
)

func main() {
	cobra.CheckErr(newCmd().Execute())
}

func newCmd() *cobra.Command {
	var (
		configPath string
		addr       string
		dataDir    string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:           "turtlesoup-server",
		Short:         "Real-time coordinator for a shared Turtle Soup puzzle room.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := log.New(logLevel)

			cfg, path, err := config.Load(logger, configPath)
			if err != nil {
				return err
			}
			// Flags win over config file and env.
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			logger = log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting turtlesoup server")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}

			start := time.Now()
			err = application.Run(ctx)
			logger.Info().Dur("uptime", time.Since(start)).Msg("server stopped")
			return err
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&configPath, "config", "c", "", "path to config file")
	fs.StringVarP(&addr, "addr", "a", config.Default().Addr, "HTTP listen address")
	fs.StringVar(&dataDir, "data-dir", config.Default().DataDir, "directory for the snapshot and puzzle library")
	fs.StringVar(&logLevel, "log-level", config.Default().LogLevel, "log level (debug, info, warn, error)")

	return cmd
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/queue"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var logPath string
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Consume watchlist activity events into a log file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if logPath == "" {
				logPath = cfg.ActivityLogPath
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := &queue.Consumer{URL: cfg.AMQPURL, LogPath: logPath, Log: log.Named("activity")}
			log.Info("activity consumer started", zap.String("log_path", logPath))
			if err := c.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logPath, "log-path", "", "Override ACTIVITY_LOG_PATH")
	return cmd
}

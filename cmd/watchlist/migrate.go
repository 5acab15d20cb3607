package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-watchlist/internal/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create missing database tables and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := ctx.ensure()
			if err != nil {
				return err
			}
			db, err := database.Open(dbOptions(cfg))
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := database.Migrate(cmd.Context(), db, cfg.DBDriver); err != nil {
				return err
			}
			log.Info("schema up to date", zap.String("db", cfg.DBDriver))
			return nil
		},
	}
}

package main

import (
	"github.com/prontuario/patients/internal/config"
	"github.com/prontuario/patients/internal/logging"
	"github.com/prontuario/patients/internal/migrate"
	"github.com/prontuario/patients/internal/repo"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var dir string
	var cleanup bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir != "" {
				cfg.MigrationsDir = dir
			}
			log := logging.New(nil, cfg.LogLevel, cfg.IsDev())
			db, err := openDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			applied, err := migrate.Run(cmd.Context(), db, cfg.MigrationsDir)
			if err != nil {
				return err
			}
			log.Info().Strs("applied", applied).Str("dir", cfg.MigrationsDir).Msg("migrations done")
			if !cleanup {
				return nil
			}
			n, err := repo.CleanupOrphanAddresses(cmd.Context(), db)
			if err != nil {
				return err
			}
			log.Info().Int64("removed", n).Msg("orphan addresses removed")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default MIGRATIONS_DIR)")
	cmd.Flags().BoolVar(&cleanup, "cleanup-addresses", false, "also delete addresses no patient references")
	return cmd
}

package main

import (
	"errors"

	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/config"
	"github.com/prontuario/patients/internal/crypto"
	"github.com/prontuario/patients/internal/logging"
	"github.com/prontuario/patients/internal/migrate"
	"github.com/prontuario/patients/internal/seed"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert demo specialists, patients and appointments into an empty database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("seed is disabled in production")
			}
			log := logging.New(nil, cfg.LogLevel, cfg.IsDev())
			db, err := openDB(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			if _, err := migrate.Run(cmd.Context(), db, cfg.MigrationsDir); err != nil {
				return err
			}
			keys, err := crypto.NewKeyRing(cfg.DataEncryptionKeys, cfg.CurrentDataKeyVer)
			if err != nil {
				return err
			}
			_, err = seed.Run(cmd.Context(), db, auth.NewHasher(cfg.BcryptCost), keys, log)
			return err
		},
	}
}

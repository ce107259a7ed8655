package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prontuario/patients/internal/api"
	"github.com/prontuario/patients/internal/auth"
	"github.com/prontuario/patients/internal/cache"
	"github.com/prontuario/patients/internal/config"
	"github.com/prontuario/patients/internal/crypto"
	"github.com/prontuario/patients/internal/logging"
	"github.com/prontuario/patients/internal/migrate"
	"github.com/prontuario/patients/internal/patient"
	"github.com/prontuario/patients/internal/repo"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var skipMigrations bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (applies migrations first)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on start")
	return cmd
}

func serve(ctx context.Context, skipMigrations bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(nil, cfg.LogLevel, cfg.IsDev())

	db, err := openDB(ctx, cfg, log)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	if !skipMigrations {
		applied, err := migrate.Run(ctx, db, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		if len(applied) > 0 {
			log.Info().Strs("applied", applied).Msg("migrations applied")
		}
	}

	keys, err := crypto.NewKeyRing(cfg.DataEncryptionKeys, cfg.CurrentDataKeyVer)
	if err != nil {
		return err
	}
	ttl := cache.New(cfg.CacheTTL())
	defer ttl.Close()

	svc := patient.NewService(repo.NewStore(db), auth.NewHasher(cfg.BcryptCost), keys)
	h := api.NewHandler(svc, ttl, pinger(db), log)
	router := api.NewRouter(h, api.RouterOptions{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Timeout:     time.Duration(cfg.RequestTimeoutSec) * time.Second,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      time.Duration(cfg.RequestTimeoutSec+5) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("patients API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
		return err
	}
	log.Info().Msg("patients API stopped")
	return nil
}

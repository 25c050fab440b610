package main

import (
	"alcyxob/workout-tracker/internal/api"
	"alcyxob/workout-tracker/internal/config"
	"alcyxob/workout-tracker/internal/logging"
	"alcyxob/workout-tracker/internal/service"
	"alcyxob/workout-tracker/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logging.Init(cfg.Log.Level, cfg.Log.Pretty)
	log.Info().Str("version", version).Msg("starting workout tracker server")

	// --- Database Connection ---
	startCtx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	store, err := openStore(startCtx, cfg.Database)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	// --- Initialize Storage ---
	var fileStorage storage.FileStorage
	if cfg.S3.BucketName != "" {
		fileStorage, err = storage.NewS3Storage(cmd.Context(), cfg.S3)
		if err != nil {
			return fmt.Errorf("initializing S3 storage: %w", err)
		}
	} else {
		log.Info().Msg("s3.bucket_name not set; history export disabled")
	}

	// --- Initialize Services ---
	services := api.Services{
		Auth:      service.NewAuthService(store.users, cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.RefreshExpiration),
		Sessions:  service.NewSessionService(store.tx, store.sessions, store.templates),
		Templates: service.NewTemplateService(store.tx, store.templates, store.sessions),
		Analytics: service.NewAnalyticsService(store.tx, store.history, store.sessions),
		Export:    service.NewExportService(store.history, store.sessions, fileStorage),
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, cfg.Metrics.Enabled)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-quit:
	}
	log.Info().Msg("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/app"
	"github.com/unclebandit/medshare-backend/internal/auth"
	"github.com/unclebandit/medshare-backend/internal/config"
	"github.com/unclebandit/medshare-backend/internal/controller"
	"github.com/unclebandit/medshare-backend/internal/logger"
	"github.com/unclebandit/medshare-backend/internal/service"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeStores, err := app.OpenRepositories(ctx, cfg, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open stores")
	}
	defer closeStores()

	claims, closeClaims, err := app.OpenClaims(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open claim store")
	}
	defer closeClaims()

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	svc := service.New(repos, service.Options{
		PublicBaseURL:    cfg.PublicBaseURL,
		Tokens:           tokens,
		SyncBatchSize:    cfg.Sync.BatchSize,
		SyncEventTimeout: cfg.Sync.EventTimeout,
	})

	// The worker cannot reach in-memory stores, so archive in process.
	if cfg.StoreDriver == config.StoreDriverMemory {
		sched, err := app.StartSyncScheduler(ctx, cfg.Sync.Interval, cfg.Sync.BatchSize, svc.Archival.Sync)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to schedule archival")
		}
		defer sched.Shutdown()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: controller.NewRouter(controller.RouterConfig{
			Services:     svc,
			Repos:        repos,
			Tokens:       tokens,
			Claims:       claims,
			SecureCookie: cfg.Environment != "development",
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

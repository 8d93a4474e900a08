package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/5-07/sweeten/internal"
	"github.com/5-07/sweeten/internal/api"
	"github.com/5-07/sweeten/internal/auth"
	"github.com/5-07/sweeten/internal/config"
	"github.com/5-07/sweeten/internal/llm"
	"github.com/5-07/sweeten/internal/plan"
	"github.com/5-07/sweeten/internal/service"
	"github.com/5-07/sweeten/internal/storage"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger, err := internal.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("failed to close storage: %v", err)
		}
	}()

	client, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatalf("failed to init llm client: %v", err)
	}
	gen := plan.NewGenerator(client, plan.WithTimeout(cfg.GenerationTimeout))

	plans := service.NewPlanService(store, store, store, gen, logger)
	plans.Window = cfg.VitalsWindow
	plans.EnforceGate = cfg.EnforcePlanGate

	app := api.NewApplication(logger, store, plans, cfg.MonthlyTokenCeiling)
	router := api.NewRouter(app, auth.NewProvider(cfg, logger))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server running on %s (storage=%s, llm=%s)", cfg.HTTPAddr, cfg.StorageBackend, cfg.LLMProvider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Generation may outlive the request; give it time to persist.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

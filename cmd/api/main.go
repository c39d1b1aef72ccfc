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

	"github.com/gin-gonic/gin"

	"github.com/sazalo101/mindis/internal/config"
	"github.com/sazalo101/mindis/internal/logging"
	"github.com/sazalo101/mindis/internal/models"
	"github.com/sazalo101/mindis/internal/server"
	"github.com/sazalo101/mindis/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if cfg.AppEnv != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	clock := models.SystemClock{}
	st, err := store.Open(ctx, cfg, clock, logger)
	if err != nil {
		logger.Error("open store failed", "driver", cfg.DatabaseDriver, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	if cfg.AIMock {
		logger.Warn("AI_MOCK is set; completions are canned")
	} else if cfg.OpenRouterAPIKey == "" {
		logger.Warn("OPENROUTER_API_KEY is empty; every completion will use its fallback reply")
	}
	services, err := server.NewServices(cfg, st, server.NewChatter(cfg, logger), clock, logger)
	if err != nil {
		logger.Error("wire services failed", "error", err)
		os.Exit(1)
	}

	app := server.New(cfg, services, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("mindi api listening", "addr", "http://localhost:"+cfg.AppPort, "driver", cfg.DatabaseDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

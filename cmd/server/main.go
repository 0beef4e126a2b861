package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/examscheduling/pkg/cache"
	"github.com/limaJavier/examscheduling/pkg/config"
	"github.com/limaJavier/examscheduling/pkg/logger"
	"github.com/limaJavier/examscheduling/pkg/metrics"
	"github.com/limaJavier/examscheduling/pkg/server"
	"github.com/limaJavier/examscheduling/pkg/service"
	"github.com/limaJavier/examscheduling/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	m := metrics.New()

	// Interfaces stay nil unless the backing service is enabled
	var repo service.Repository
	if cfg.Database.Enabled {
		db, err := store.NewPostgres(cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()
		if err := store.EnsureSchema(context.Background(), db); err != nil {
			logr.Fatal("failed to prepare schema", zap.Error(err))
		}
		repo = store.NewScheduleRepository(db)
	}

	var runCache service.Cache
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(context.Background(), cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		runCache = cache.NewScheduleCache(client, cfg.Cache.TTL)
	}

	svc := service.NewScheduleService(cfg.Scheduler, repo, runCache, m, logr)
	router := server.NewRouter(cfg.APIPrefix, server.NewScheduleHandler(svc), m, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env,
			"postgres", cfg.Database.Enabled, "redis", cfg.Redis.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

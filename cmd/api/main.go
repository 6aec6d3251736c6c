package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/auth"
	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/config"
	"github.com/gestao-concessionaria-api/internal/database"
	"github.com/gestao-concessionaria-api/internal/handlers"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/realtime"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/services"
	"github.com/gestao-concessionaria-api/internal/session"
	"github.com/gestao-concessionaria-api/internal/storage"
	"github.com/juju/clock"
)

const serviceName = "concessionaria-api"

// seleção de loja persistida por dispositivo
const persistTTL = 30 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuração inválida: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: serviceName,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backend: tabelas, auth, storage e realtime
	dbManager := database.GetManager(&cfg.Backend)
	tables, err := dbManager.Tables(ctx)
	if err != nil {
		log.Fatal("Failed to open backend", zap.Error(err))
	}

	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize Redis client", zap.Error(err))
	}

	hub := realtime.NewHub()
	if cfg.Realtime.RedisBridge {
		bridge := realtime.NewRedisBridge(hub, redisClient, cfg.Realtime.Channel)
		go func() {
			if err := bridge.Run(ctx); err != nil {
				log.Error("Realtime bridge stopped", zap.Error(err))
			}
		}()
	}

	driver, err := storage.NewStorageDriver(&cfg.Storage)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}

	client := backend.NewClient(tables, hub)
	client.Auth = auth.NewService(client.Tables, cfg.Backend.AnonKey,
		time.Duration(cfg.JWT.ExpirationHours)*time.Hour, clock.WallClock)
	client.Storage = driver

	// QUERY_RETRY=0 desliga as tentativas
	retry := cfg.Cache.Retry
	if retry == 0 {
		retry = -1
	}
	registry := session.NewRegistry(session.Deps{
		Backend: client,
		Persister: func(deviceID string) cache.Persister {
			return cache.NewRedisPersister(redisClient, "device:"+deviceID+":", persistTTL)
		},
		Cache: querycache.Options{
			StaleTime: cfg.Cache.StaleTime,
			GCTime:    cfg.Cache.GCTime,
			Retry:     retry,
		},
	}, cfg.Cache.SessionIdle)
	go registry.Run(ctx, time.Minute)

	deps := handlers.RouterDeps{
		ServiceName: serviceName,
		Registry:    registry,
		Tenants:     repository.NewTenantRepository(client.Tables),
		Fotos:       services.NewFotoService(driver, redisClient),
	}
	if local, ok := driver.(*storage.LocalStorage); ok {
		deps.UploadsPath = filepath.Clean(local.BasePath())
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: handlers.NewRouter(deps),
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	registry.Close()
	dbManager.Close()
	redisClient.Close()

	log.Info("Server exited")
}

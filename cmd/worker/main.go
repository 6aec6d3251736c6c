package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/config"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/services"
	"github.com/gestao-concessionaria-api/internal/storage"
)

// Worker responsável por gerar as variantes das fotos de veículos
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuração inválida: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: "image-worker",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatal("Erro ao conectar no Redis", zap.Error(err))
	}
	defer redisClient.Close()

	driver, err := storage.NewStorageDriver(&cfg.Storage)
	if err != nil {
		log.Fatal("Erro ao inicializar storage driver", zap.Error(err))
	}

	log.Info("Worker em execução. Aguardando fotos...",
		zap.String("queue", services.FotoQueue),
		zap.String("storage", cfg.Storage.Driver))

	// Run só retorna quando o contexto é cancelado
	if err := services.NewFotoProcessor(driver).Run(ctx, redisClient); err != nil {
		log.Error("Worker interrompido", zap.Error(err))
		return
	}
	log.Info("Worker encerrado.")
}

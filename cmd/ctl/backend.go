package main

import (
	"context"

	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/config"
	"github.com/gestao-concessionaria-api/internal/database"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/repository"
)

// setup carrega a configuração e inicializa o logger dos comandos
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.App.Env,
		ServiceName: "ctl",
	}); err != nil {
		return nil, errors.Annotate(err, "logger")
	}
	return cfg, nil
}

// withTenants abre o backend e entrega o repositório de tenants ao comando
func withTenants(ctx context.Context, fn func(*repository.TenantRepository) error) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	manager := database.GetManager(&cfg.Backend)
	defer manager.Close()
	if manager.IsMemory() {
		return errors.NotSupportedf("comando com BACKEND_URL=%s", database.MemoryURL)
	}

	tables, err := manager.Tables(ctx)
	if err != nil {
		return err
	}
	return fn(repository.NewTenantRepository(tables))
}

package database

import (
	"context"
	"strings"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/backend/memory"
	"github.com/gestao-concessionaria-api/internal/backend/postgres"
	"github.com/gestao-concessionaria-api/internal/logger"
)

// MemoryURL como BACKEND_URL usa o backend em memória (desenvolvimento local)
const MemoryURL = "memory://"

func (m *Manager) IsMemory() bool {
	return strings.HasPrefix(m.cfg.URL, MemoryURL)
}

// Tables abre o TableStore do backend, aplicando o schema se BACKEND_MIGRATE=true
func (m *Manager) Tables(ctx context.Context) (backend.TableStore, error) {
	if m.IsMemory() {
		logger.Named("database").Warn("Usando backend em memória; os dados não são persistidos")
		return memory.New(), nil
	}
	if err := m.InitPool(ctx); err != nil {
		return nil, err
	}
	if m.cfg.Migrate {
		if err := postgres.Migrate(ctx, m.GetPool()); err != nil {
			return nil, err
		}
	}
	return postgres.New(m.GetPool()), nil
}

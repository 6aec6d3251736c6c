package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/config"
	"github.com/gestao-concessionaria-api/internal/logger"
)

// Manager mantém o pool de conexões com o Postgres do backend
type Manager struct {
	pool *pgxpool.Pool
	cfg  *config.BackendConfig
	mu   sync.RWMutex
}

var (
	instance *Manager
	once     sync.Once
)

// GetManager returns the singleton database manager instance
func GetManager(cfg *config.BackendConfig) *Manager {
	once.Do(func() {
		instance = &Manager{cfg: cfg}
	})
	return instance
}

// InitPool cria o pool e testa a conexão. Chamadas repetidas são no-op.
func (m *Manager) InitPool(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		return nil
	}

	poolConfig, err := pgxpool.ParseConfig(m.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to parse backend db config: %w", err)
	}

	poolConfig.MaxConns = m.cfg.MaxConns
	poolConfig.MinConns = m.cfg.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("failed to create backend pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("failed to ping backend db: %w", err)
	}

	m.pool = pool
	logger.Named("database").Info("Backend DB pool initialized",
		zap.Int32("max_conns", poolConfig.MaxConns),
		zap.Int32("min_conns", poolConfig.MinConns),
	)
	return nil
}

// GetPool returns the backend pool (nil before InitPool)
func (m *Manager) GetPool() *pgxpool.Pool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pool
}

// Close closes all database connections
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
		logger.Named("database").Info("Backend DB pool closed")
	}
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/metrics"
)

// Registry guarda as sessões por id de dispositivo (header X-Device-ID)
type Registry struct {
	sessions sync.Map // map[string]*Session
	deps     Deps
	idle     time.Duration
	clock    clock.Clock
	log      *zap.Logger
}

// NewRegistry cria o registro; sessões sem uso por idle são descartadas em Sweep
func NewRegistry(deps Deps, idle time.Duration) *Registry {
	if deps.Clock == nil {
		deps.Clock = clock.WallClock
	}
	return &Registry{
		deps:  deps,
		idle:  idle,
		clock: deps.Clock,
		log:   logger.Named("session"),
	}
}

// Get devolve a sessão do dispositivo, criando-a na primeira requisição
func (r *Registry) Get(ctx context.Context, deviceID string) *Session {
	if s, ok := r.sessions.Load(deviceID); ok {
		sess := s.(*Session)
		sess.Touch()
		return sess
	}

	created := New(ctx, deviceID, r.deps)
	actual, loaded := r.sessions.LoadOrStore(deviceID, created)
	if loaded {
		// outra requisição criou primeiro
		created.Close()
		sess := actual.(*Session)
		sess.Touch()
		return sess
	}
	metrics.ActiveSessions.Inc()
	r.log.Debug("session created", zap.String("device_id", deviceID))
	return created
}

// Remove encerra e descarta a sessão do dispositivo
func (r *Registry) Remove(deviceID string) {
	if s, ok := r.sessions.LoadAndDelete(deviceID); ok {
		s.(*Session).Close()
		metrics.ActiveSessions.Dec()
	}
}

// Len é o número de sessões em memória
func (r *Registry) Len() int {
	n := 0
	r.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Sweep roda o GC do cache de cada sessão e descarta as ociosas.
// Devolve quantas sessões foram descartadas.
func (r *Registry) Sweep() int {
	now := r.clock.Now()
	evicted := 0
	r.sessions.Range(func(key, value any) bool {
		sess := value.(*Session)
		if r.idle > 0 && sess.idleSince(now) >= r.idle {
			r.Remove(key.(string))
			evicted++
			return true
		}
		sess.Cache.GC()
		return true
	})
	if evicted > 0 {
		r.log.Info("idle sessions evicted", zap.Int("count", evicted))
	}
	return evicted
}

// Run chama Sweep a cada interval até o contexto ser cancelado
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(interval):
			r.Sweep()
		}
	}
}

// Close encerra todas as sessões
func (r *Registry) Close() {
	r.sessions.Range(func(key, _ any) bool {
		r.Remove(key.(string))
		return true
	})
}

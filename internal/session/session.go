// Package session mantém o estado de cada cliente conectado: autenticação,
// cache de consultas, tenant e loja selecionada, hooks e o caminho atual.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/auth"
	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/hooks"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/tenantctx"
)

// Deps são as dependências compartilhadas por todas as sessões
type Deps struct {
	Backend *backend.Client
	// Persister devolve o armazenamento persistido de um dispositivo
	Persister func(deviceID string) cache.Persister
	Cache     querycache.Options
	Clock     clock.Clock
}

type Session struct {
	ID     string
	Auth   *auth.State
	Cache  *querycache.Client
	Tenant *tenantctx.State
	Hooks  *hooks.Set

	clock clock.Clock
	log   *zap.Logger

	mu       sync.Mutex
	path     string
	reload   bool
	lastSeen time.Time
	closers  []func()
}

func New(ctx context.Context, id string, d Deps) *Session {
	clk := d.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	opts := d.Cache
	if opts.Clock == nil {
		opts.Clock = clk
	}

	s := &Session{
		ID:       id,
		Auth:     auth.NewState(d.Backend.Auth),
		Cache:    querycache.New(opts),
		clock:    clk,
		log:      logger.Named("session").With(zap.String("device_id", id)),
		lastSeen: clk.Now(),
	}
	s.Tenant = tenantctx.New(ctx, tenantctx.Deps{
		Auth:      s.Auth,
		Tenants:   repository.NewTenantRepository(d.Backend.Tables),
		Lojas:     repository.NewLojaRepository(d.Backend.Tables),
		Cache:     s.Cache,
		Persister: d.Persister(id),
		Path:      s.Path,
	})
	s.Hooks = hooks.NewSet(d.Backend.Tables, s.Cache, s.Tenant)

	s.closers = append(s.closers, s.Tenant.Close, s.Auth.OnAuthStateChange(s.onAuthChange))
	for _, table := range s.Hooks.Tables() {
		s.closers = append(s.closers, d.Backend.Subscribe(backend.Filter{
			Schema: backend.Schema,
			Table:  table,
			Event:  backend.EventAll,
		}, s.onRowChange))
	}
	s.closers = append(s.closers, d.Backend.Subscribe(backend.Filter{
		Schema: backend.Schema,
		Table:  repository.TenantMembersTable.Name,
		Event:  backend.EventAll,
	}, s.onMembershipChange))
	return s
}

// Nenhum dado do usuário anterior pode continuar em cache: SIGNED_IN pode
// trazer outro usuário para o mesmo dispositivo.
func (s *Session) onAuthChange(ev auth.Event, _ *models.AuthSession) {
	switch ev {
	case auth.SignedOut, auth.SignedIn:
		s.Cache.Clear()
		s.log.Debug("session cache cleared", zap.String("event", string(ev)))
	}
}

func (s *Session) onRowChange(change backend.RowChange) {
	tenantID, ok := s.Tenant.TenantID()
	if !ok || change.TenantID() != tenantID.String() {
		return
	}
	s.Hooks.InvalidateTable(change.Table)
	if change.Table == repository.LojasTable.Name {
		s.Cache.InvalidateQueries(querycache.Key{"lojas"})
	}
}

func (s *Session) onMembershipChange(change backend.RowChange) {
	user := s.Auth.User()
	if user == nil {
		return
	}
	for _, row := range []backend.Row{change.New, change.Old} {
		if row == nil {
			continue
		}
		if id, err := uuid.Parse(row.Text("user_id")); err == nil && id == user.ID {
			s.Cache.InvalidateQueries(querycache.Key{"tenant"})
			return
		}
	}
}

// Navigate registra o caminho exibido pelo cliente
func (s *Session) Navigate(path string) {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
}

func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SelectLoja troca a loja; se a página atual exigir, faz a recarga completa
func (s *Session) SelectLoja(ctx context.Context, id uuid.UUID) (bool, error) {
	reload, err := s.Tenant.SelectLoja(ctx, id)
	if err != nil {
		return false, err
	}
	if reload {
		s.FullReload()
	}
	return reload, nil
}

// FullReload descarta o cache de consultas e sinaliza ao cliente que recarregue
func (s *Session) FullReload() {
	s.Cache.Clear()
	s.mu.Lock()
	s.reload = true
	s.mu.Unlock()
	s.log.Info("full reload requested", zap.String("path", s.Path()))
}

// ReloadRequired consome o sinal de recarga
func (s *Session) ReloadRequired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.reload
	s.reload = false
	return r
}

// Touch marca a sessão como usada agora
func (s *Session) Touch() {
	now := s.clock.Now()
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Close remove as assinaturas de autenticação e realtime
func (s *Session) Close() {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()
	for _, fn := range closers {
		fn()
	}
}

// Package tenantctx resolve o tenant do usuário autenticado, a lista de
// lojas e a loja selecionada de uma sessão.
package tenantctx

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"github.com/gestao-concessionaria-api/internal/auth"
	"github.com/gestao-concessionaria-api/internal/cache"
	"github.com/gestao-concessionaria-api/internal/logger"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/result"
)

// SelectedLojaKey é a chave da loja selecionada no armazenamento persistido
const SelectedLojaKey = "selectedLojaId"

// ErrAmbiguousMembership: o usuário tem mais de um vínculo ativo
const ErrAmbiguousMembership = errors.ConstError("user has more than one active tenant membership")

// Páginas com dados da loja que exigem recarga completa ao trocar de loja.
// Uma reorganização das rotas precisa atualizar esta lista.
var ReloadPrefixes = []string{"/dashboard/vitrine", "/dashboard/veiculo/"}

var (
	tenantPrefix = querycache.Key{"tenant"}
	lojasPrefix  = querycache.Key{"lojas"}
)

// State é o contexto de tenant e loja de uma sessão
type State struct {
	auth    *auth.State
	tenants *repository.TenantRepository
	lojas   *repository.LojaRepository
	cache   *querycache.Client
	persist cache.Persister
	path    func() string
	log     *zap.Logger

	mu           sync.Mutex
	selected     uuid.UUID
	autoSelected bool
	unsubscribe  func()
}

type Deps struct {
	Auth      *auth.State
	Tenants   *repository.TenantRepository
	Lojas     *repository.LojaRepository
	Cache     *querycache.Client
	Persister cache.Persister
	// Path devolve o caminho atual do cliente
	Path func() string
}

// New carrega a seleção persistida e passa a invalidar tenant e lojas a cada
// mudança de autenticação.
func New(ctx context.Context, d Deps) *State {
	s := &State{
		auth:    d.Auth,
		tenants: d.Tenants,
		lojas:   d.Lojas,
		cache:   d.Cache,
		persist: d.Persister,
		path:    d.Path,
		log:     logger.Named("tenantctx"),
	}
	if s.path == nil {
		s.path = func() string { return "" }
	}

	raw, ok, err := s.persist.Get(ctx, SelectedLojaKey)
	switch {
	case err != nil:
		s.log.Warn("failed to load selected loja", zap.Error(err))
	case ok:
		if id, err := uuid.Parse(raw); err == nil {
			s.selected = id
		}
	}

	s.unsubscribe = s.auth.OnAuthStateChange(func(ev auth.Event, _ *models.AuthSession) {
		s.cache.InvalidateQueries(tenantPrefix)
		s.cache.InvalidateQueries(lojasPrefix)
		s.log.Debug("tenant queries invalidated", zap.String("event", string(ev)))
	})
	return s
}

// Close remove o listener de autenticação
func (s *State) Close() {
	s.unsubscribe()
}

func (s *State) tenantKey(userID uuid.UUID) querycache.Key {
	return querycache.Key{"tenant", userID}
}

// Tenant resolve o tenant do vínculo ativo do usuário. Sem usuário ou sem
// vínculo devolve (nil, nil): o usuário é tratado como sem tenant.
func (s *State) Tenant(ctx context.Context) (*models.Tenant, error) {
	user := s.auth.User()
	if user == nil {
		return nil, nil
	}
	return querycache.Query(ctx, s.cache, s.tenantKey(user.ID), func(ctx context.Context) (*models.Tenant, error) {
		members, err := s.tenants.ActiveMemberships(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		switch len(members) {
		case 0:
			return nil, nil
		case 1:
		default:
			// conflito: não é repetido pelo cache e vira 409
			return nil, fmt.Errorf("%w: %w", result.ErrConflict, ErrAmbiguousMembership)
		}
		return s.tenants.FindTenant(ctx, members[0].TenantID).Unwrap()
	})
}

// TenantID é o tenant já resolvido, sem consultar o backend
func (s *State) TenantID() (uuid.UUID, bool) {
	user := s.auth.User()
	if user == nil {
		return uuid.Nil, false
	}
	t, ok := querycache.Get[models.Tenant](s.cache, s.tenantKey(user.ID))
	if !ok || t == nil {
		return uuid.Nil, false
	}
	return t.ID, true
}

// Memberships lista os vínculos do usuário com os dados de cada tenant
func (s *State) Memberships(ctx context.Context) ([]models.Membership, error) {
	user := s.auth.User()
	if user == nil {
		return []models.Membership{}, nil
	}
	key := querycache.Key{"tenant", user.ID, "memberships"}
	ms, err := querycache.Query(ctx, s.cache, key, func(ctx context.Context) (*[]models.Membership, error) {
		m, err := s.tenants.Memberships(ctx, user.ID)
		return &m, err
	})
	if err != nil || ms == nil {
		return nil, err
	}
	return *ms, nil
}

// Lojas lista as lojas do tenant por nome. Sem seleção, a primeira loja é
// selecionada automaticamente uma única vez.
func (s *State) Lojas(ctx context.Context) ([]models.Loja, error) {
	tenant, err := s.Tenant(ctx)
	if err != nil || tenant == nil {
		return []models.Loja{}, err
	}
	repo := s.lojas.WithTenant(tenant.ID)
	res, err := querycache.Query(ctx, s.cache, querycache.Key{"lojas", tenant.ID}, func(ctx context.Context) (*[]models.Loja, error) {
		l, err := repo.FindOrdered(ctx)
		return &l, err
	})
	if err != nil {
		return nil, err
	}
	lojas := *res

	s.mu.Lock()
	if s.selected != uuid.Nil && !contains(lojas, s.selected) {
		// seleção persistida de outro tenant ou de loja removida
		s.selected = uuid.Nil
		s.autoSelected = false
	}
	var auto uuid.UUID
	if s.selected == uuid.Nil && !s.autoSelected && len(lojas) > 0 {
		auto = lojas[0].ID
		s.selected = auto
		s.autoSelected = true
	}
	s.mu.Unlock()

	if auto != uuid.Nil {
		if err := s.persist.Set(ctx, SelectedLojaKey, auto.String()); err != nil {
			s.log.Warn("failed to persist selected loja", zap.Error(err))
		}
	}
	return lojas, nil
}

// SelectedLojaID é a loja selecionada, se houver
func (s *State) SelectedLojaID() (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.selected != uuid.Nil
}

// SelectLoja troca a loja selecionada e devolve true quando o cliente
// precisa recarregar a página atual. uuid.Nil limpa a seleção.
func (s *State) SelectLoja(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		s.mu.Lock()
		s.selected = uuid.Nil
		s.mu.Unlock()
		return false, s.persist.Delete(ctx, SelectedLojaKey)
	}

	lojas, err := s.Lojas(ctx)
	if err != nil {
		return false, err
	}
	if !contains(lojas, id) {
		return false, errors.NotFoundf("loja %s", id)
	}

	s.mu.Lock()
	previous := s.selected
	s.selected = id
	s.autoSelected = true
	s.mu.Unlock()

	if previous == id {
		return false, nil
	}
	if err := s.persist.Set(ctx, SelectedLojaKey, id.String()); err != nil {
		return false, errors.Annotate(err, "failed to persist selected loja")
	}
	return NeedsReload(s.path()), nil
}

// NeedsReload indica se o caminho exibe dados da loja fora do cache por loja
func NeedsReload(path string) bool {
	for _, p := range ReloadPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func contains(lojas []models.Loja, id uuid.UUID) bool {
	for _, l := range lojas {
		if l.ID == id {
			return true
		}
	}
	return false
}

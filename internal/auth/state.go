package auth

import (
	"context"
	"sort"
	"sync"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
)

// Event é o tipo de mudança no estado de autenticação
type Event string

const (
	SignedIn       Event = "SIGNED_IN"
	SignedOut      Event = "SIGNED_OUT"
	TokenRefreshed Event = "TOKEN_REFRESHED"
	UserUpdated    Event = "USER_UPDATED"
)

// Listener recebe o evento e a sessão resultante (nil após SIGNED_OUT)
type Listener func(Event, *models.AuthSession)

// State é o estado de autenticação de um cliente
type State struct {
	auth backend.Authenticator

	mu        sync.RWMutex
	session   *models.AuthSession
	listeners map[int]Listener
	next      int
}

func NewState(a backend.Authenticator) *State {
	return &State{auth: a, listeners: map[int]Listener{}}
}

// Session devolve a sessão atual ou nil
func (s *State) Session() *models.AuthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// User devolve o usuário autenticado ou nil
func (s *State) User() *models.User {
	if sess := s.Session(); sess != nil {
		u := sess.User
		return &u
	}
	return nil
}

func (s *State) SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthSession, error) {
	sess, err := s.auth.SignIn(ctx, req)
	if err != nil {
		return nil, err
	}
	s.set(SignedIn, sess)
	return sess, nil
}

func (s *State) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error) {
	sess, err := s.auth.SignUp(ctx, req)
	if err != nil {
		return nil, err
	}
	s.set(SignedIn, sess)
	return sess, nil
}

// SignOut descarta a sessão; sem sessão não há evento
func (s *State) SignOut() {
	if s.Session() == nil {
		return
	}
	s.set(SignedOut, nil)
}

// Restore adota o token apresentado pelo cliente. Mesmo token não gera evento;
// outro token do mesmo usuário gera TOKEN_REFRESHED; outro usuário, SIGNED_IN.
func (s *State) Restore(ctx context.Context, token string) (*models.AuthSession, error) {
	current := s.Session()
	if current != nil && current.AccessToken == token {
		return current, nil
	}
	sess, err := s.auth.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	ev := SignedIn
	if current != nil && current.User.ID == sess.User.ID {
		ev = TokenRefreshed
	}
	s.set(ev, sess)
	return sess, nil
}

// Refresh renova o token da sessão atual
func (s *State) Refresh(ctx context.Context) (*models.AuthSession, error) {
	current := s.Session()
	if current == nil {
		return nil, nil
	}
	sess, err := s.auth.Refresh(ctx, current.AccessToken)
	if err != nil {
		return nil, err
	}
	s.set(TokenRefreshed, sess)
	return sess, nil
}

// UpdateUser troca os dados do usuário mantendo o token
func (s *State) UpdateUser(user models.User) {
	current := s.Session()
	if current == nil {
		return
	}
	next := *current
	next.User = user
	s.set(UserUpdated, &next)
}

// OnAuthStateChange registra um listener e devolve a função que o remove
func (s *State) OnAuthStateChange(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *State) set(ev Event, sess *models.AuthSession) {
	s.mu.Lock()
	s.session = sess
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]Listener, len(ids))
	for i, id := range ids {
		fns[i] = s.listeners[id]
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev, sess)
	}
}

package backend

import (
	"context"
	"time"

	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/storage"
)

// Schema público onde vivem as tabelas da aplicação
const Schema = "public"

// Nomes das RPCs expostas pelo backend
const (
	RPCCreateTenant       = "create_tenant"
	RPCAcceptTenantInvite = "accept_tenant_invite"
)

// TableStore é o acesso a linhas do backend
type TableStore interface {
	// Select devolve as linhas do range pedido e o total sem paginação
	Select(ctx context.Context, q *Query) ([]Row, int, error)
	Count(ctx context.Context, q *Query) (int, error)
	Insert(ctx context.Context, table string, values Row) (Row, error)
	// Update e Delete devolvem as linhas afetadas
	Update(ctx context.Context, q *Query, values Row) ([]Row, error)
	Delete(ctx context.Context, q *Query) ([]Row, error)
	RPC(ctx context.Context, name string, args Row) (any, error)
}

// EventType segue os nomes de evento do postgres_changes
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// RowChange é uma notificação de alteração de linha
type RowChange struct {
	Schema    string    `json:"schema"`
	Table     string    `json:"table"`
	Event     EventType `json:"event"`
	New       Row       `json:"new,omitempty"`
	Old       Row       `json:"old,omitempty"`
	Timestamp time.Time `json:"commit_timestamp"`
}

// TenantID extrai o tenant_id da linha nova ou antiga, se houver
func (c RowChange) TenantID() string {
	for _, r := range []Row{c.New, c.Old} {
		if v, ok := r["tenant_id"]; ok && v != nil {
			return stringify(v)
		}
	}
	return ""
}

// Filter seleciona eventos; campos vazios e Event "*" casam com qualquer valor
type Filter struct {
	Schema string
	Table  string
	Event  EventType
}

func (f Filter) Matches(c RowChange) bool {
	if f.Schema != "" && f.Schema != c.Schema {
		return false
	}
	if f.Table != "" && f.Table != c.Table {
		return false
	}
	return f.Event == "" || f.Event == EventAll || f.Event == c.Event
}

// Realtime distribui alterações de linhas para assinantes
type Realtime interface {
	Publish(ctx context.Context, change RowChange)
	Subscribe(filter Filter, fn func(RowChange)) (unsubscribe func())
}

// Authenticator é a parte de autenticação do backend
type Authenticator interface {
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthSession, error)
	SignIn(ctx context.Context, req models.SignInRequest) (*models.AuthSession, error)
	Verify(ctx context.Context, token string) (*models.AuthSession, error)
	Refresh(ctx context.Context, token string) (*models.AuthSession, error)
}

// Client é a fachada única do backend: tabelas, autenticação, arquivos e realtime
type Client struct {
	Tables   TableStore
	Auth     Authenticator
	Storage  storage.StorageDriver
	Realtime Realtime
}

// NewClient monta o cliente. Se houver realtime, as mutações em Tables
// passam a publicar RowChange.
func NewClient(tables TableStore, rt Realtime) *Client {
	c := &Client{Tables: tables, Realtime: rt}
	if rt != nil {
		c.Tables = &notifyingStore{TableStore: tables, rt: rt, now: time.Now}
	}
	return c
}

// Subscribe assina alterações de linha; sem realtime não há eventos
func (c *Client) Subscribe(filter Filter, fn func(RowChange)) func() {
	if c.Realtime == nil {
		return func() {}
	}
	return c.Realtime.Subscribe(filter, fn)
}

type notifyingStore struct {
	TableStore
	rt  Realtime
	now func() time.Time
}

func (s *notifyingStore) Insert(ctx context.Context, table string, values Row) (Row, error) {
	row, err := s.TableStore.Insert(ctx, table, values)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, table, EventInsert, row, nil)
	return row, nil
}

func (s *notifyingStore) Update(ctx context.Context, q *Query, values Row) ([]Row, error) {
	rows, err := s.TableStore.Update(ctx, q, values)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.publish(ctx, q.Table, EventUpdate, row, nil)
	}
	return rows, nil
}

func (s *notifyingStore) Delete(ctx context.Context, q *Query) ([]Row, error) {
	rows, err := s.TableStore.Delete(ctx, q)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		s.publish(ctx, q.Table, EventDelete, nil, row)
	}
	return rows, nil
}

func (s *notifyingStore) publish(ctx context.Context, table string, ev EventType, newRow, oldRow Row) {
	s.rt.Publish(ctx, RowChange{
		Schema:    Schema,
		Table:     table,
		Event:     ev,
		New:       newRow,
		Old:       oldRow,
		Timestamp: s.now().UTC(),
	})
}

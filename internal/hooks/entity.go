// Package hooks liga os repositórios às chaves do query cache e declara o
// que é invalidado depois de cada mutação.
//
// Hierarquia de chaves por entidade:
//
//	[nome]
//	[nome, "list"]
//	[nome, "list", tenantID, opções]         (lojaID antes das opções nas entidades por loja)
//	[nome, "detail", tenantID, id]
package hooks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/querycache"
	"github.com/gestao-concessionaria-api/internal/repository"
	"github.com/gestao-concessionaria-api/internal/result"
)

// ErrDisabled é devolvido pelas leituras enquanto o tenant (ou a loja, nas
// entidades por loja) não foi resolvido. Nenhuma consulta sai sem escopo.
const ErrDisabled = errors.ConstError("query disabled: scope not resolved")

// Scope fornece os valores de escopo já resolvidos da sessão
type Scope interface {
	TenantID() (uuid.UUID, bool)
	SelectedLojaID() (uuid.UUID, bool)
}

// Entity é o conjunto de queries e mutações de uma tabela
type Entity[R, I, U any] struct {
	name  string
	cache *querycache.Client
	repo  *repository.Repository[R, I, U]
	scope Scope
	idOf  func(*R) uuid.UUID
	// lojaColumn != "" torna a entidade sensível à loja selecionada
	lojaColumn string
}

func NewEntity[R, I, U any](name string, cache *querycache.Client, repo *repository.Repository[R, I, U], scope Scope, idOf func(*R) uuid.UUID) *Entity[R, I, U] {
	return &Entity[R, I, U]{name: name, cache: cache, repo: repo, scope: scope, idOf: idOf}
}

// PerLoja filtra as listas pela loja selecionada e inclui o id dela na chave
func (e *Entity[R, I, U]) PerLoja(column string) *Entity[R, I, U] {
	e.lojaColumn = column
	return e
}

func (e *Entity[R, I, U]) Name() string { return e.name }

func (e *Entity[R, I, U]) AllKey() querycache.Key   { return querycache.Key{e.name} }
func (e *Entity[R, I, U]) ListsKey() querycache.Key { return querycache.Key{e.name, "list"} }

// DetailKey inclui o tenant: um detalhe em cache nunca atende outro tenant
func (e *Entity[R, I, U]) DetailKey(tenantID, id uuid.UUID) querycache.Key {
	return querycache.Key{e.name, "detail", tenantID, id}
}

// ListKey é a chave de uma listagem; falha com ErrDisabled sem escopo
func (e *Entity[R, I, U]) ListKey(opts repository.FindOptions) (querycache.Key, error) {
	tenantID, ok := e.scope.TenantID()
	if !ok {
		return nil, ErrDisabled
	}
	key := querycache.Key{e.name, "list", tenantID}
	if e.lojaColumn != "" {
		lojaID, ok := e.scope.SelectedLojaID()
		if !ok {
			return nil, ErrDisabled
		}
		key = append(key, lojaID)
	}
	return append(key, opts.Normalized()), nil
}

// Repo devolve o repositório escopado ao tenant atual
func (e *Entity[R, I, U]) Repo() (*repository.Repository[R, I, U], error) {
	_, repo, err := e.scoped()
	return repo, err
}

func (e *Entity[R, I, U]) scoped() (uuid.UUID, *repository.Repository[R, I, U], error) {
	tenantID, ok := e.scope.TenantID()
	if !ok {
		return uuid.Nil, nil, ErrDisabled
	}
	return tenantID, e.repo.WithTenant(tenantID), nil
}

func (e *Entity[R, I, U]) List(ctx context.Context, opts repository.FindOptions) (*result.Page[R], error) {
	key, err := e.ListKey(opts)
	if err != nil {
		return nil, err
	}
	repo, err := e.Repo()
	if err != nil {
		return nil, err
	}
	if e.lojaColumn != "" {
		lojaID, _ := e.scope.SelectedLojaID()
		opts.Where = append(opts.Where, backend.Eq(e.lojaColumn, lojaID))
	}
	return querycache.Query(ctx, e.cache, key, func(ctx context.Context) (*result.Page[R], error) {
		return repo.FindAll(ctx, opts).Unwrap()
	})
}

// Get devolve (nil, nil) quando o id não existe no tenant
func (e *Entity[R, I, U]) Get(ctx context.Context, id uuid.UUID) (*R, error) {
	if id == uuid.Nil {
		return nil, ErrDisabled
	}
	tenantID, repo, err := e.scoped()
	if err != nil {
		return nil, err
	}
	return querycache.Query(ctx, e.cache, e.DetailKey(tenantID, id), func(ctx context.Context) (*R, error) {
		return repo.FindByID(ctx, id).Unwrap()
	})
}

// Count fica sob [nome, "list"] para ser invalidado junto com as listas
func (e *Entity[R, I, U]) Count(ctx context.Context, filters map[string]any) (int, error) {
	tenantID, ok := e.scope.TenantID()
	if !ok {
		return 0, ErrDisabled
	}
	repo := e.repo.WithTenant(tenantID)
	key := querycache.Key{e.name, "list", tenantID, "count", filters}
	n, err := querycache.Query(ctx, e.cache, key, func(ctx context.Context) (*int, error) {
		return repo.Count(ctx, filters).Unwrap()
	})
	if err != nil || n == nil {
		return 0, err
	}
	return *n, nil
}

// Create invalida as listas e semeia o detalhe do registro criado
func (e *Entity[R, I, U]) Create(ctx context.Context, in I) (*R, error) {
	tenantID, repo, err := e.scoped()
	if err != nil {
		return nil, err
	}
	row, err := mutated(repo.Create(ctx, in))
	if err != nil {
		return nil, err
	}
	e.cache.InvalidateQueries(e.ListsKey())
	e.cache.SetQueryData(e.DetailKey(tenantID, e.idOf(row)), row)
	return row, nil
}

// Update sobrescreve o detalhe e invalida as listas
func (e *Entity[R, I, U]) Update(ctx context.Context, id uuid.UUID, in U) (*R, error) {
	tenantID, repo, err := e.scoped()
	if err != nil {
		return nil, err
	}
	return e.afterUpdate(e.DetailKey(tenantID, id), repo.Update(ctx, id, in))
}

// UpdateIfUnmodified é o Update com detecção de escrita perdida. Em conflito
// o detalhe é invalidado para a próxima leitura trazer a versão atual.
func (e *Entity[R, I, U]) UpdateIfUnmodified(ctx context.Context, id uuid.UUID, updatedAt time.Time, in U) (*R, error) {
	tenantID, repo, err := e.scoped()
	if err != nil {
		return nil, err
	}
	return e.afterUpdate(e.DetailKey(tenantID, id), repo.UpdateIfUnmodified(ctx, id, updatedAt, in))
}

func (e *Entity[R, I, U]) afterUpdate(detail querycache.Key, res result.Result[R]) (*R, error) {
	row, err := mutated(res)
	if err != nil {
		if res.Kind == result.Conflict {
			e.cache.InvalidateQueries(detail)
		}
		return nil, err
	}
	e.cache.SetQueryData(detail, row)
	e.cache.InvalidateQueries(e.ListsKey())
	return row, nil
}

// Delete remove o detalhe do cache e invalida as listas
func (e *Entity[R, I, U]) Delete(ctx context.Context, id uuid.UUID) (*R, error) {
	tenantID, repo, err := e.scoped()
	if err != nil {
		return nil, err
	}
	row, err := mutated(repo.Delete(ctx, id))
	if err != nil {
		return nil, err
	}
	e.cache.RemoveQueries(e.DetailKey(tenantID, id))
	e.cache.InvalidateQueries(e.ListsKey())
	return row, nil
}

// InvalidateLists é usado pelas notificações de realtime
func (e *Entity[R, I, U]) InvalidateLists() int {
	return e.cache.InvalidateQueries(e.ListsKey())
}

// mutações só têm sucesso com a linha em mãos
func mutated[R any](res result.Result[R]) (*R, error) {
	if res.Found() {
		return res.Data, nil
	}
	if res.Err != nil {
		return nil, res.Err
	}
	return nil, errors.NotFoundf("registro")
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
	"github.com/gestao-concessionaria-api/internal/models"
	"github.com/gestao-concessionaria-api/internal/result"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Table descreve a tabela de uma entidade. O nome da tabela só aparece aqui.
type Table[R any] struct {
	Name         string
	SearchFields []string
	DefaultSort  backend.Order
	// Unscoped marca tabelas sem tenant_id (ex.: tenants)
	Unscoped bool
}

type Search struct {
	Term   string   `json:"term"`
	Fields []string `json:"fields,omitempty"`
}

type Sort struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // asc | desc
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// FindOptions são as opções de listagem. Filters são igualdades; Where
// aceita predicados arbitrários para finders específicos.
type FindOptions struct {
	Filters    map[string]any      `json:"filters,omitempty"`
	Where      []backend.Predicate `json:"-"`
	Search     *Search             `json:"search,omitempty"`
	Sort       *Sort               `json:"sort,omitempty"`
	Pagination *Pagination         `json:"pagination,omitempty"`
}

// Normalized aplica os padrões de paginação (página 1, limite 20, máximo 100)
func (o FindOptions) Normalized() FindOptions {
	p := Pagination{Page: DefaultPage, Limit: DefaultLimit}
	if o.Pagination != nil {
		if o.Pagination.Page > 0 {
			p.Page = o.Pagination.Page
		}
		if o.Pagination.Limit > 0 {
			p.Limit = o.Pagination.Limit
		}
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	o.Pagination = &p
	return o
}

// Repository é o CRUD de uma tabela, escopado por tenant quando construído com um
type Repository[R, I, U any] struct {
	tables   backend.TableStore
	table    Table[R]
	tenantID *uuid.UUID
}

func New[R, I, U any](tables backend.TableStore, table Table[R]) *Repository[R, I, U] {
	return &Repository[R, I, U]{tables: tables, table: table}
}

// WithTenant devolve uma cópia escopada ao tenant
func (r *Repository[R, I, U]) WithTenant(tenantID uuid.UUID) *Repository[R, I, U] {
	cp := *r
	cp.tenantID = &tenantID
	return &cp
}

// TenantID devolve o tenant do escopo, se houver
func (r *Repository[R, I, U]) TenantID() (uuid.UUID, bool) {
	if r.tenantID == nil {
		return uuid.Nil, false
	}
	return *r.tenantID, true
}

// TableName é o nome da tabela subjacente
func (r *Repository[R, I, U]) TableName() string {
	return r.table.Name
}

func (r *Repository[R, I, U]) query() *backend.Query {
	q := backend.From(r.table.Name)
	if r.tenantID != nil && !r.table.Unscoped {
		q.Eq("tenant_id", *r.tenantID)
	}
	return q
}

func (r *Repository[R, I, U]) FindAll(ctx context.Context, opts FindOptions) result.Result[result.Page[R]] {
	opts = opts.Normalized()
	q := r.query()
	for _, col := range sortedFilterKeys(opts.Filters) {
		q.Eq(col, opts.Filters[col])
	}
	q.Where(opts.Where...)

	if opts.Search != nil && strings.TrimSpace(opts.Search.Term) != "" {
		fields := opts.Search.Fields
		if len(fields) == 0 {
			fields = r.table.SearchFields
		}
		pattern := "%" + backend.EscapeLike(strings.TrimSpace(opts.Search.Term)) + "%"
		preds := make([]backend.Predicate, len(fields))
		for i, f := range fields {
			preds[i] = backend.ILike(f, pattern)
		}
		if len(preds) > 0 {
			q.Or(preds...)
		}
	}

	switch {
	case opts.Sort != nil && opts.Sort.Field != "":
		q.Order(opts.Sort.Field, !strings.EqualFold(opts.Sort.Direction, "desc"))
	case r.table.DefaultSort.Column != "":
		q.Order(r.table.DefaultSort.Column, r.table.DefaultSort.Ascending)
	}

	p := opts.Pagination
	from := (p.Page - 1) * p.Limit
	q.Range(from, from+p.Limit-1)

	rows, total, err := r.tables.Select(ctx, q)
	if err != nil {
		return result.Fail[result.Page[R]](fmt.Errorf("failed to list %s: %w", r.table.Name, err))
	}
	items, err := backend.DecodeAll[R](rows)
	if err != nil {
		return result.Fail[result.Page[R]](err)
	}
	return result.Of(result.NewPage(items, total, p.Page, p.Limit))
}

// FindByID devolve Absent (sucesso) quando o id não existe no escopo
func (r *Repository[R, I, U]) FindByID(ctx context.Context, id uuid.UUID) result.Result[R] {
	return r.FindOne(ctx, backend.Eq("id", id))
}

// FindOne devolve a primeira linha que satisfaz os predicados
func (r *Repository[R, I, U]) FindOne(ctx context.Context, preds ...backend.Predicate) result.Result[R] {
	rows, _, err := r.tables.Select(ctx, r.query().Where(preds...).Range(0, 0))
	if err != nil {
		return result.Fail[R](fmt.Errorf("failed to get %s: %w", r.table.Name, err))
	}
	if len(rows) == 0 {
		return result.Absent[R]()
	}
	return decodeOne[R](rows[0])
}

// FindWhere lista sem paginação, para finders específicos
func (r *Repository[R, I, U]) FindWhere(ctx context.Context, orders []backend.Order, preds ...backend.Predicate) ([]R, error) {
	q := r.query().Where(preds...)
	q.Orders = append(q.Orders, orders...)
	rows, _, err := r.tables.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table.Name, err)
	}
	return backend.DecodeAll[R](rows)
}

func (r *Repository[R, I, U]) Create(ctx context.Context, in I) result.Result[R] {
	if err := validate(&in); err != nil {
		return result.Fail[R](err)
	}
	values, err := backend.ToRow(&in)
	if err != nil {
		return result.Fail[R](err)
	}
	if r.tenantID != nil && !r.table.Unscoped {
		values["tenant_id"] = *r.tenantID
	}
	row, err := r.tables.Insert(ctx, r.table.Name, values)
	if err != nil {
		return result.Fail[R](fmt.Errorf("failed to create %s: %w", r.table.Name, err))
	}
	return decodeOne[R](row)
}

// Update altera a linha do id dentro do escopo do tenant.
// Id inexistente ou de outro tenant resulta em NotFound com Err preenchido.
func (r *Repository[R, I, U]) Update(ctx context.Context, id uuid.UUID, in U) result.Result[R] {
	return r.update(ctx, r.query().Eq("id", id), id, in)
}

// UpdateIfUnmodified só altera se updated_at ainda for o lido pelo cliente;
// caso contrário devolve Conflict.
func (r *Repository[R, I, U]) UpdateIfUnmodified(ctx context.Context, id uuid.UUID, updatedAt time.Time, in U) result.Result[R] {
	res := r.update(ctx, r.query().Eq("id", id).Eq("updated_at", updatedAt), id, in)
	if res.Kind != result.NotFound {
		return res
	}
	// distingue "não existe" de "foi alterado"
	exists := r.FindByID(ctx, id)
	switch {
	case !exists.Success():
		return exists
	case exists.Found():
		return result.Fail[R](fmt.Errorf("%w: %s %s alterado por outra sessão", result.ErrConflict, r.table.Name, id))
	}
	return res
}

func (r *Repository[R, I, U]) update(ctx context.Context, q *backend.Query, id uuid.UUID, in U) result.Result[R] {
	if err := validate(&in); err != nil {
		return result.Fail[R](err)
	}
	values, err := backend.ToRow(&in)
	if err != nil {
		return result.Fail[R](err)
	}
	delete(values, "tenant_id")
	if len(values) == 0 {
		return result.Fail[R](errors.NotValidf("update de %s sem campos", r.table.Name))
	}
	rows, err := r.tables.Update(ctx, q, values)
	if err != nil {
		return result.Fail[R](fmt.Errorf("failed to update %s: %w", r.table.Name, err))
	}
	if len(rows) == 0 {
		return result.Fail[R](errors.NotFoundf("%s %s", r.table.Name, id))
	}
	return decodeOne[R](rows[0])
}

// Delete remove a linha do id dentro do escopo e devolve a linha removida
func (r *Repository[R, I, U]) Delete(ctx context.Context, id uuid.UUID) result.Result[R] {
	rows, err := r.tables.Delete(ctx, r.query().Eq("id", id))
	if err != nil {
		return result.Fail[R](fmt.Errorf("failed to delete %s: %w", r.table.Name, err))
	}
	if len(rows) == 0 {
		return result.Fail[R](errors.NotFoundf("%s %s", r.table.Name, id))
	}
	return decodeOne[R](rows[0])
}

// Count conta as linhas do escopo que satisfazem as igualdades
func (r *Repository[R, I, U]) Count(ctx context.Context, filters map[string]any, preds ...backend.Predicate) result.Result[int] {
	q := r.query()
	for _, col := range sortedFilterKeys(filters) {
		q.Eq(col, filters[col])
	}
	q.Where(preds...)
	n, err := r.tables.Count(ctx, q)
	if err != nil {
		return result.Fail[int](fmt.Errorf("failed to count %s: %w", r.table.Name, err))
	}
	return result.Of(&n)
}

func decodeOne[R any](row backend.Row) result.Result[R] {
	var out R
	if err := backend.Decode(row, &out); err != nil {
		return result.Fail[R](err)
	}
	return result.Of(&out)
}

func validate(v any) error {
	if val, ok := v.(models.Validator); ok {
		return val.Validate()
	}
	return nil
}

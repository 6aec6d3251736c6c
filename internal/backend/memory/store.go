// Package memory implementa o TableStore em memória, usado nos testes e
// no desenvolvimento local sem Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/gestao-concessionaria-api/internal/backend"
)

// Store guarda as tabelas em memória
type Store struct {
	mu      sync.RWMutex
	tables  map[string][]backend.Row
	uniques map[string][][]string
	clock   clock.Clock
}

type Option func(*Store)

// WithClock troca o relógio usado em created_at/updated_at
func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithUnique declara uma restrição de unicidade
func WithUnique(table string, cols ...string) Option {
	return func(s *Store) { s.uniques[table] = append(s.uniques[table], cols) }
}

// New cria um store com as mesmas restrições de unicidade do schema Postgres
func New(opts ...Option) *Store {
	s := &Store{
		tables:  map[string][]backend.Row{},
		uniques: map[string][][]string{},
		clock:   clock.WallClock,
	}
	WithUnique("users", "email")(s)
	WithUnique("tenant_members", "tenant_id", "user_id")(s)
	WithUnique("tenant_invites", "token")(s)
	WithUnique("veiculos", "tenant_id", "placa")(s)
	WithUnique("veiculos_loja", "veiculo_id", "loja_id")(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Select(ctx context.Context, q *backend.Query) ([]backend.Row, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, errors.Trace(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched, err := s.match(q)
	if err != nil {
		return nil, 0, err
	}
	rows := make([]backend.Row, 0, len(matched))
	for _, i := range matched {
		rows = append(rows, s.tables[q.Table][i].Clone())
	}
	sortRows(rows, q.Orders)

	total := len(rows)
	if q.HasRange {
		from, to := q.From, q.To+1
		if from > total {
			from = total
		}
		if to > total {
			to = total
		}
		if from < 0 {
			from = 0
		}
		if to < from {
			to = from
		}
		rows = rows[from:to]
	}
	return rows, total, nil
}

func (s *Store) Count(ctx context.Context, q *backend.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.Trace(err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(q)
	return len(matched), err
}

func (s *Store) Insert(ctx context.Context, table string, values backend.Row) (backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(table, values)
}

func (s *Store) insertLocked(table string, values backend.Row) (backend.Row, error) {
	row := values.Clone()
	if id, ok := row["id"]; !ok || id == nil {
		row["id"] = uuid.New()
	}
	now := s.clock.Now().UTC()
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now
	}
	if _, ok := row["updated_at"]; !ok {
		row["updated_at"] = now
	}
	if err := s.checkUnique(table, row, -1); err != nil {
		return nil, err
	}
	s.tables[table] = append(s.tables[table], row)
	return row.Clone(), nil
}

func (s *Store) Update(ctx context.Context, q *backend.Query, values backend.Row) ([]backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(q, values)
}

func (s *Store) updateLocked(q *backend.Query, values backend.Row) ([]backend.Row, error) {
	matched, err := s.match(q)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	updated := make([]backend.Row, 0, len(matched))
	for _, i := range matched {
		row := s.tables[q.Table][i].Clone()
		for k, v := range values {
			if k == "id" {
				continue
			}
			row[k] = v
		}
		if _, ok := values["updated_at"]; !ok {
			row["updated_at"] = now
		}
		if err := s.checkUnique(q.Table, row, i); err != nil {
			return nil, err
		}
		s.tables[q.Table][i] = row
		updated = append(updated, row.Clone())
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, q *backend.Query) ([]backend.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched, err := s.match(q)
	if err != nil {
		return nil, err
	}
	drop := make(map[int]bool, len(matched))
	for _, i := range matched {
		drop[i] = true
	}
	var kept, deleted []backend.Row
	for i, row := range s.tables[q.Table] {
		if drop[i] {
			deleted = append(deleted, row)
			continue
		}
		kept = append(kept, row)
	}
	s.tables[q.Table] = kept
	return deleted, nil
}

// match devolve os índices das linhas que satisfazem os filtros
func (s *Store) match(q *backend.Query) ([]int, error) {
	if q.Table == "" {
		return nil, errors.NotValidf("tabela vazia")
	}
	var out []int
	for i, row := range s.tables[q.Table] {
		ok, err := matchAll(row, q.Filters)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *Store) checkUnique(table string, row backend.Row, self int) error {
	for _, cols := range s.uniques[table] {
		for i, other := range s.tables[table] {
			if i == self {
				continue
			}
			same := true
			for _, col := range cols {
				if row[col] == nil || !backend.Equal(row[col], other[col]) {
					same = false
					break
				}
			}
			if same {
				return errors.AlreadyExistsf("%s (%s)", table, strings.Join(cols, ", "))
			}
		}
	}
	return nil
}

func matchAll(row backend.Row, preds []backend.Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := matchOne(row, p)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchOne(row backend.Row, p backend.Predicate) (bool, error) {
	if p.IsGroup() {
		for _, alt := range p.Any {
			ok, err := matchOne(row, alt)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	v := row[p.Column]
	switch p.Op {
	case backend.OpEq:
		return v != nil && backend.Equal(v, p.Value), nil
	case backend.OpNeq:
		return v != nil && !backend.Equal(v, p.Value), nil
	case backend.OpIsNil:
		return backend.Normalize(v) == nil, nil
	case backend.OpGte, backend.OpLte:
		c, ok := backend.Compare(v, p.Value)
		if !ok || v == nil {
			return false, nil
		}
		if p.Op == backend.OpGte {
			return c >= 0, nil
		}
		return c <= 0, nil
	case backend.OpIn:
		values, ok := p.Value.([]any)
		if !ok {
			return false, errors.NotValidf("valor de in para %s", p.Column)
		}
		for _, want := range values {
			if v != nil && backend.Equal(v, want) {
				return true, nil
			}
		}
		return false, nil
	case backend.OpILike:
		str, ok := backend.Normalize(v).(string)
		if !ok {
			return false, nil
		}
		pattern, _ := p.Value.(string)
		return backend.MatchILike(str, pattern), nil
	}
	return false, errors.NotValidf("operador %q", p.Op)
}

func sortRows(rows []backend.Row, orders []backend.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c, ok := backend.Compare(rows[i][o.Column], rows[j][o.Column])
			if !ok || c == 0 {
				continue
			}
			if o.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
